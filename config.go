package serial

import "time"

const (
	// DefaultBaudRate is the line rate the device firmware talks at.
	DefaultBaudRate = 115200
	// DefaultDelimiter ends one logical line.
	DefaultDelimiter byte = ' '
	// DefaultBufferSize is the line capacity, terminator included.
	DefaultBufferSize = 64

	// Terminator replaces the delimiter in a completed buffer.
	Terminator byte = 0x00
)

// Modem control lines usable as a busy indicator.
const (
	BusyLineNone = ""
	BusyLineDTR  = "dtr"
	BusyLineRTS  = "rts"
)

// Config holds configuration parameters for opening a serial port.
type Config struct {
	Device     string
	BaudRate   int
	Delimiter  byte
	BufferSize int

	// ReadTimeout bounds ReadLineContext calls made by ReadLinesLoop.
	// Zero waits forever.
	ReadTimeout time.Duration

	// BusyLine names the modem line raised while waiting for input.
	BusyLine string
}

// DefaultConfig returns a Config with every field but Device populated.
func DefaultConfig() Config {
	return Config{
		BaudRate:   DefaultBaudRate,
		Delimiter:  DefaultDelimiter,
		BufferSize: DefaultBufferSize,
		BusyLine:   BusyLineNone,
	}
}

func (c Config) withDefaults() Config {
	if c.BaudRate <= 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.Delimiter == 0 {
		c.Delimiter = DefaultDelimiter
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	return c
}
