// Package metrics exports line reader counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder counts read cycle outcomes for one device. It satisfies the
// serial.Observer interface.
type Recorder struct {
	lines        prometheus.Counter
	payloadBytes prometheus.Counter
	overflows    prometheus.Counter
	sourceErrors prometheus.Counter
}

// Collectors holds the metric vectors shared by every Recorder.
type Collectors struct {
	lines        *prometheus.CounterVec
	payloadBytes *prometheus.CounterVec
	overflows    *prometheus.CounterVec
	sourceErrors *prometheus.CounterVec
}

// NewCollectors creates the vectors and registers them with reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		lines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "linereader",
				Name:      "lines_total",
				Help:      "Completed lines total",
			},
			[]string{"device"},
		),
		payloadBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "linereader",
				Name:      "payload_bytes_total",
				Help:      "Payload bytes of completed lines total",
			},
			[]string{"device"},
		),
		overflows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "linereader",
				Name:      "overflows_total",
				Help:      "Lines dropped because the buffer filled before the delimiter",
			},
			[]string{"device"},
		),
		sourceErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "linereader",
				Name:      "source_errors_total",
				Help:      "Read cycles ended by a source error",
			},
			[]string{"device"},
		),
	}
	reg.MustRegister(c.lines, c.payloadBytes, c.overflows, c.sourceErrors)
	return c
}

// Recorder returns the Recorder for device.
func (c *Collectors) Recorder(device string) *Recorder {
	return &Recorder{
		lines:        c.lines.WithLabelValues(device),
		payloadBytes: c.payloadBytes.WithLabelValues(device),
		overflows:    c.overflows.WithLabelValues(device),
		sourceErrors: c.sourceErrors.WithLabelValues(device),
	}
}

func (r *Recorder) LineRead(n int) {
	r.lines.Inc()
	r.payloadBytes.Add(float64(n))
}

func (r *Recorder) Overflow() {
	r.overflows.Inc()
}

func (r *Recorder) SourceError(error) {
	r.sourceErrors.Inc()
}
