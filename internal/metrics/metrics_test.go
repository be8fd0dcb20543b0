package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// counterValue returns the value of the counter name labelled with device.
func counterValue(t *testing.T, reg *prometheus.Registry, name, device string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "device" && lp.GetValue() == device {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewCollectors(reg).Recorder("/dev/ttyUSB0")

	r.LineRead(3)
	r.LineRead(2)
	r.Overflow()
	r.SourceError(errors.New("boom"))

	require.Equal(t, 2.0, counterValue(t, reg, "linereader_lines_total", "/dev/ttyUSB0"))
	require.Equal(t, 5.0, counterValue(t, reg, "linereader_payload_bytes_total", "/dev/ttyUSB0"))
	require.Equal(t, 1.0, counterValue(t, reg, "linereader_overflows_total", "/dev/ttyUSB0"))
	require.Equal(t, 1.0, counterValue(t, reg, "linereader_source_errors_total", "/dev/ttyUSB0"))
	require.Equal(t, 0.0, counterValue(t, reg, "linereader_lines_total", "/dev/ttyUSB1"))
}
