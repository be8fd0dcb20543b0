//go:build baremetal

package serial

import (
	"context"
	"machine"

	"github.com/pkg/errors"
)

// UARTSource reads from a microcontroller UART, spinning on Buffered
// until a byte arrives.
type UARTSource struct {
	*machine.UART
}

// OpenUART configures UART "0" or "1" at baudRate.
func OpenUART(port string, baudRate int) (*UARTSource, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}

	var uart *machine.UART
	switch port {
	case "0":
		uart = machine.UART0
	case "1":
		uart = machine.UART1
	default:
		return nil, errors.Errorf("unknown UART %q", port)
	}

	if err := uart.Configure(machine.UARTConfig{BaudRate: uint32(baudRate)}); err != nil {
		return nil, errors.Wrapf(err, "configure UART %s", port)
	}
	return &UARTSource{UART: uart}, nil
}

// ReadByte blocks until the receive buffer holds a byte.
func (u *UARTSource) ReadByte() (byte, error) {
	for u.Buffered() == 0 {
	}
	return u.UART.ReadByte()
}

// ReadByteContext is like ReadByte but returns once ctx is done.
func (u *UARTSource) ReadByteContext(ctx context.Context) (byte, error) {
	for u.Buffered() == 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
	return u.UART.ReadByte()
}
