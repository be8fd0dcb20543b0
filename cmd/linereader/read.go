package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	serial "github.com/luhtfiimanal/go-serial-linereader"
	"github.com/luhtfiimanal/go-serial-linereader/internal/confengine"
	"github.com/luhtfiimanal/go-serial-linereader/internal/logger"
	"github.com/luhtfiimanal/go-serial-linereader/internal/metrics"
	"github.com/luhtfiimanal/go-serial-linereader/internal/server"
)

const (
	modeLine = "line"
	modeChar = "char"
	modeInt  = "int"
)

type readCmdConfig struct {
	ConfigPath  string
	Device      string
	BaudRate    int
	Delimiter   string
	BufferSize  int
	BusyLine    string
	ReadTimeout time.Duration
	LogLevel    string
	MetricsAddr string
	Mode        string
	Count       int
}

var readConfig readCmdConfig

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read lines from a serial device and print them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd, readConfig)
		if err != nil {
			return err
		}
		return runRead(cfg, readConfig.Mode, readConfig.Count, cmd.OutOrStdout())
	},
}

func init() {
	flags := readCmd.Flags()
	flags.StringVar(&readConfig.ConfigPath, "config", "", "YAML configuration file path")
	flags.StringVar(&readConfig.Device, "device", "", "Serial device path, e.g. /dev/ttyUSB0")
	flags.IntVar(&readConfig.BaudRate, "baud", serial.DefaultBaudRate, "Baud rate")
	flags.StringVar(&readConfig.Delimiter, "delimiter", "space", "Line delimiter: a single character or space|newline|cr|tab|comma|semicolon")
	flags.IntVar(&readConfig.BufferSize, "buffer-size", serial.DefaultBufferSize, "Line buffer capacity including the terminator")
	flags.StringVar(&readConfig.BusyLine, "busy-line", "", "Modem line raised while waiting for input: dtr|rts")
	flags.DurationVar(&readConfig.ReadTimeout, "timeout", 0, "Per-line read timeout in line mode, 0 waits forever")
	flags.StringVar(&readConfig.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	flags.StringVar(&readConfig.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flags.StringVar(&readConfig.Mode, "mode", modeLine, "Output mode: line|char|int")
	flags.IntVar(&readConfig.Count, "count", 0, "Stop after this many reads in char and int mode, 0 reads forever")
	rootCmd.AddCommand(readCmd)
}

// resolveConfig loads the optional YAML file and lets explicitly set flags
// override it.
func resolveConfig(cmd *cobra.Command, rc readCmdConfig) (appConfig, error) {
	conf := confengine.Empty()
	if rc.ConfigPath != "" {
		var err error
		if conf, err = confengine.LoadConfigPath(rc.ConfigPath); err != nil {
			return appConfig{}, err
		}
	}
	cfg, err := loadAppConfig(conf)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Serial.Device = rc.Device
	}
	if flags.Changed("baud") {
		cfg.Serial.BaudRate = rc.BaudRate
	}
	if flags.Changed("delimiter") {
		cfg.Serial.Delimiter = rc.Delimiter
	}
	if flags.Changed("buffer-size") {
		cfg.Serial.BufferSize = rc.BufferSize
	}
	if flags.Changed("busy-line") {
		cfg.Serial.BusyLine = rc.BusyLine
	}
	if flags.Changed("timeout") {
		cfg.Serial.ReadTimeout = rc.ReadTimeout
	}
	if flags.Changed("log-level") {
		cfg.Logger.Level = rc.LogLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.Server.Enabled = rc.MetricsAddr != ""
		cfg.Server.Address = rc.MetricsAddr
	}
	switch rc.Mode {
	case modeLine, modeChar, modeInt:
	default:
		return cfg, errors.Errorf("unknown mode %q", rc.Mode)
	}
	return cfg, nil
}

func runRead(cfg appConfig, mode string, count int, out io.Writer) error {
	logger.SetOptions(cfg.Logger)

	serialCfg, err := cfg.Serial.toSerial()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	recorder := metrics.NewCollectors(reg).Recorder(serialCfg.Device)
	if srv := server.New(cfg.Server, reg); srv != nil {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Errorf("metrics server failed: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	port, err := serial.Open(serialCfg)
	if err != nil {
		return err
	}
	defer port.Close()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		if _, ok := <-sigs; ok {
			logger.Infof("terminating, closing %s", serialCfg.Device)
			port.Close()
		}
	}()

	logger.Infof("reading %s in %s mode (delimiter %q, buffer %d)",
		serialCfg.Device, mode, serialCfg.Delimiter, port.Config().BufferSize)
	reader := port.LineReader(serial.WithObserver(recorder))
	return consume(reader, mode, count, out)
}

// consume drives reader in the given mode and prints every result to out.
func consume(reader *serial.LineReader, mode string, count int, out io.Writer) error {
	if mode == modeLine {
		var loopErr error
		reader.ReadLinesLoop(
			func(line string) { fmt.Fprintln(out, line) },
			func(err error) {
				if errors.Is(err, serial.ErrBufferFull) || errors.Is(err, context.DeadlineExceeded) {
					logger.Warnf("line dropped: %v", err)
					return
				}
				loopErr = err
			},
		)
		return loopErr
	}

	for i := 0; count == 0 || i < count; i++ {
		var v string
		switch mode {
		case modeChar:
			if c := reader.ReadChar(); c != serial.Terminator {
				v = string(c)
			}
		case modeInt:
			v = strconv.Itoa(reader.ReadInt())
		}

		if err := reader.Err(); err != nil {
			if errors.Is(err, serial.ErrClosed) {
				return nil
			}
			return err
		}
		if reader.Bytes() == nil {
			logger.Warnf("line dropped: %v", serial.ErrBufferFull)
			continue
		}
		fmt.Fprintln(out, v)
	}
	return nil
}
