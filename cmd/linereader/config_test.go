package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	serial "github.com/luhtfiimanal/go-serial-linereader"
	"github.com/luhtfiimanal/go-serial-linereader/internal/confengine"
)

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		input   string
		want    byte
		wantErr bool
	}{
		{input: "", want: ' '},
		{input: "space", want: ' '},
		{input: "newline", want: '\n'},
		{input: `\r`, want: '\r'},
		{input: "comma", want: ','},
		{input: ";", want: ';'},
		{input: "ab", wantErr: true},
		{input: "\x00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDelimiter(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLoadAppConfig(t *testing.T) {
	conf, err := confengine.LoadContent([]byte(`
serial:
  device: /dev/ttyUSB1
  delimiter: newline
  bufferSize: 16
  busyLine: dtr
logger:
  level: debug
server:
  enabled: true
  address: 127.0.0.1:9999
`))
	require.NoError(t, err)

	cfg, err := loadAppConfig(conf)
	require.NoError(t, err)
	require.Equal(t, serial.DefaultBaudRate, cfg.Serial.BaudRate)
	require.Equal(t, "debug", cfg.Logger.Level)
	require.True(t, cfg.Server.Enabled)
	require.Equal(t, "127.0.0.1:9999", cfg.Server.Address)
	require.Equal(t, 10*time.Second, cfg.Server.Timeout)

	sc, err := cfg.Serial.toSerial()
	require.NoError(t, err)
	require.Equal(t, serial.Config{
		Device:     "/dev/ttyUSB1",
		BaudRate:   serial.DefaultBaudRate,
		Delimiter:  '\n',
		BufferSize: 16,
		BusyLine:   serial.BusyLineDTR,
	}, sc)
}

func TestToSerialErrors(t *testing.T) {
	_, err := serialConfig{}.toSerial()
	require.Error(t, err)

	_, err = serialConfig{Device: "/dev/ttyS0", BusyLine: "cts"}.toSerial()
	require.Error(t, err)
}

func TestResolveConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linereader.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serial:\n  device: /dev/ttyS0\n  baudRate: 9600\n"), 0o644))

	require.NoError(t, readCmd.Flags().Set("device", "/dev/ttyS1"))
	t.Cleanup(func() {
		readCmd.Flags().Set("device", "")
		readCmd.Flags().Lookup("device").Changed = false
	})

	rc := readCmdConfig{ConfigPath: path, Device: "/dev/ttyS1", Mode: modeInt}
	cfg, err := resolveConfig(readCmd, rc)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyS1", cfg.Serial.Device)
	require.Equal(t, 9600, cfg.Serial.BaudRate)

	rc.Mode = "hex"
	_, err = resolveConfig(readCmd, rc)
	require.Error(t, err)
}

func TestConsume(t *testing.T) {
	tests := []struct {
		name  string
		mode  string
		count int
		input string
		want  string
	}{
		{name: "Line", mode: modeLine, input: "ab cdefgh ij ", want: "ab\ngh\nij\n"},
		{name: "Char", mode: modeChar, count: 3, input: "C A  ", want: "C\nA\n\n"},
		{name: "Int", mode: modeInt, count: 3, input: "42 x -1 ", want: "42\n0\n-1\n"},
		{name: "IntOverflow", mode: modeInt, count: 2, input: "12345 7 ", want: "5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r := serial.NewLineReader(strings.NewReader(tt.input), serial.WithBufferSize(4))
			err := consume(r, tt.mode, tt.count, &out)
			if tt.mode == modeLine {
				require.ErrorIs(t, err, io.EOF)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.want, out.String())
		})
	}
}
