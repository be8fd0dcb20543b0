package main

import (
	"time"

	"github.com/pkg/errors"

	serial "github.com/luhtfiimanal/go-serial-linereader"
	"github.com/luhtfiimanal/go-serial-linereader/internal/confengine"
	"github.com/luhtfiimanal/go-serial-linereader/internal/logger"
	"github.com/luhtfiimanal/go-serial-linereader/internal/server"
)

type serialConfig struct {
	Device      string        `config:"device"`
	BaudRate    int           `config:"baudRate"`
	Delimiter   string        `config:"delimiter"`
	BufferSize  int           `config:"bufferSize"`
	ReadTimeout time.Duration `config:"readTimeout"`
	BusyLine    string        `config:"busyLine"`
}

type appConfig struct {
	Serial serialConfig
	Logger logger.Options
	Server server.Config
}

func defaultAppConfig() appConfig {
	return appConfig{
		Serial: serialConfig{
			BaudRate:   serial.DefaultBaudRate,
			Delimiter:  string(serial.DefaultDelimiter),
			BufferSize: serial.DefaultBufferSize,
		},
		Logger: logger.Options{Level: string(logger.LevelInfo)},
		Server: server.Config{Address: ":9110", Timeout: 10 * time.Second},
	}
}

// loadAppConfig reads the serial, logger and server sections of conf over
// the defaults.
func loadAppConfig(conf *confengine.Config) (appConfig, error) {
	cfg := defaultAppConfig()
	if err := conf.UnpackChild("serial", &cfg.Serial); err != nil {
		return cfg, err
	}
	if err := conf.UnpackChild("logger", &cfg.Logger); err != nil {
		return cfg, err
	}
	if err := conf.UnpackChild("server", &cfg.Server); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c serialConfig) toSerial() (serial.Config, error) {
	if c.Device == "" {
		return serial.Config{}, errors.New("serial device is required")
	}
	delim, err := parseDelimiter(c.Delimiter)
	if err != nil {
		return serial.Config{}, err
	}
	switch c.BusyLine {
	case serial.BusyLineNone, serial.BusyLineDTR, serial.BusyLineRTS:
	default:
		return serial.Config{}, errors.Errorf("unknown busy line %q", c.BusyLine)
	}
	return serial.Config{
		Device:      c.Device,
		BaudRate:    c.BaudRate,
		Delimiter:   delim,
		BufferSize:  c.BufferSize,
		ReadTimeout: c.ReadTimeout,
		BusyLine:    c.BusyLine,
	}, nil
}

// parseDelimiter accepts a single character or one of the names
// "space", "newline", "cr", "tab", "comma" and "semicolon".
func parseDelimiter(s string) (byte, error) {
	switch s {
	case "":
		return serial.DefaultDelimiter, nil
	case "space":
		return ' ', nil
	case "newline", `\n`:
		return '\n', nil
	case "cr", `\r`:
		return '\r', nil
	case "tab", `\t`:
		return '\t', nil
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	}
	if len(s) != 1 {
		return 0, errors.Errorf("delimiter must be a single byte, got %q", s)
	}
	if s[0] == serial.Terminator {
		return 0, errors.New("delimiter cannot be the NUL terminator")
	}
	return s[0], nil
}
