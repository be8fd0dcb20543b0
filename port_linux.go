//go:build linux

package serial

import (
	"context"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/luhtfiimanal/go-serial-linereader/internal/logger"
)

// pollInterval caps each poll(2) wait while a context deadline is pending.
const pollInterval = 50 * time.Millisecond

// Port is a raw, killable byte source on a Linux serial device.
// Close may be called from any goroutine; everything else belongs to the
// reading goroutine.
type Port struct {
	fd        int
	file      *os.File
	done      chan struct{}
	closeOnce sync.Once
	config    Config
	pipeR     int // self-pipe read fd
	pipeW     int // self-pipe write fd
}

// Open opens the device named in cfg in raw 8N1 mode with blocking reads.
func Open(cfg Config) (*Port, error) {
	cfg = cfg.withDefaults()

	fd, err := syscall.Open(cfg.Device, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0666)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", cfg.Device)
	}

	if err := configure(fd, cfg.BaudRate); err != nil {
		unix.Close(fd)
		return nil, err
	}

	if err := syscall.SetNonblock(fd, false); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "set blocking")
	}

	pipeFds := make([]int, 2)
	if err := unix.Pipe2(pipeFds, unix.O_CLOEXEC); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "pipe")
	}

	logger.Debugf("opened %s at %d baud", cfg.Device, cfg.BaudRate)
	return &Port{
		fd:     fd,
		file:   os.NewFile(uintptr(fd), cfg.Device),
		done:   make(chan struct{}),
		config: cfg,
		pipeR:  pipeFds[0],
		pipeW:  pipeFds[1],
	}, nil
}

func configure(fd int, baudRate int) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return errors.Wrap(err, "get termios")
	}

	// Raw mode
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL

	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= baudToUnix(baudRate)

	// One byte at a time, no inter-byte timer
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return errors.Wrap(err, "set termios")
	}
	return nil
}

// Config returns the effective configuration, defaults applied.
func (p *Port) Config() Config {
	return p.config
}

// ReadByte blocks until one byte is available or the port is closed.
func (p *Port) ReadByte() (byte, error) {
	return p.ReadByteContext(context.Background())
}

// ReadByteContext blocks until one byte is available, the port is closed
// or ctx is done.
func (p *Port) ReadByteContext(ctx context.Context) (byte, error) {
	timeout := -1
	if ctx.Done() != nil {
		timeout = int(pollInterval / time.Millisecond)
	}

	for {
		pfd := []unix.PollFd{
			{Fd: int32(p.fd), Events: unix.POLLIN},
			{Fd: int32(p.pipeR), Events: unix.POLLIN},
		}
		_, err := unix.Poll(pfd, timeout)
		if err != nil && err != unix.EINTR {
			return 0, errors.Wrap(err, "poll")
		}

		select {
		case <-p.done:
			return 0, ErrClosed
		default:
		}
		if pfd[1].Revents&unix.POLLIN != 0 {
			return 0, ErrClosed
		}
		if pfd[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			var b [1]byte
			n, err := p.file.Read(b[:])
			if err != nil {
				return 0, err
			}
			if n == 0 {
				return 0, io.EOF
			}
			return b[0], nil
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
}

// Available reports how many bytes are waiting in the input queue.
func (p *Port) Available() (int, error) {
	n, err := unix.IoctlGetInt(p.fd, unix.TIOCINQ)
	if err != nil {
		return 0, errors.Wrap(err, "query input queue")
	}
	return n, nil
}

// Write writes raw bytes to the port.
func (p *Port) Write(b []byte) (int, error) {
	return p.file.Write(b)
}

// WriteLine writes a line followed by newline to the port.
func (p *Port) WriteLine(line string, newline string) error {
	_, err := p.file.WriteString(line + newline)
	return err
}

// LineReader returns a LineReader over p using the port's delimiter,
// buffer size, busy line and read timeout. opts are applied last.
func (p *Port) LineReader(opts ...Option) *LineReader {
	base := []Option{
		WithBufferSize(p.config.BufferSize),
		WithDelimiter(p.config.Delimiter),
		WithIndicator(p.BusyIndicator()),
		WithReadTimeout(p.config.ReadTimeout),
	}
	return NewLineReader(p, append(base, opts...)...)
}

// BusyIndicator returns an Indicator driving the configured modem line.
func (p *Port) BusyIndicator() Indicator {
	switch p.config.BusyLine {
	case BusyLineDTR:
		return &modemLine{fd: p.fd, bits: unix.TIOCM_DTR}
	case BusyLineRTS:
		return &modemLine{fd: p.fd, bits: unix.TIOCM_RTS}
	default:
		return nopIndicator{}
	}
}

// Close closes the port and unblocks any pending read.
// Safe to call multiple times; subsequent calls are no-ops.
func (p *Port) Close() error {
	var errs error
	p.closeOnce.Do(func() {
		close(p.done)
		// Wake up poll using self-pipe
		if _, err := unix.Write(p.pipeW, []byte{1}); err != nil {
			errs = multierror.Append(errs, errors.Wrap(err, "wake reader"))
		}
		if err := p.file.Close(); err != nil {
			errs = multierror.Append(errs, errors.Wrap(err, "close device"))
		}
		if err := unix.Close(p.pipeR); err != nil {
			errs = multierror.Append(errs, errors.Wrap(err, "close pipe"))
		}
		if err := unix.Close(p.pipeW); err != nil {
			errs = multierror.Append(errs, errors.Wrap(err, "close pipe"))
		}
	})
	return errs
}

// modemLine raises and drops a modem control line. Failures are logged
// once; ptys and some USB adapters do not implement modem control.
type modemLine struct {
	fd     int
	bits   int
	warned bool
}

func (m *modemLine) High() { m.set(unix.TIOCMBIS) }
func (m *modemLine) Low()  { m.set(unix.TIOCMBIC) }

func (m *modemLine) set(req uint) {
	if err := unix.IoctlSetPointerInt(m.fd, req, m.bits); err != nil && !m.warned {
		m.warned = true
		logger.Warnf("modem line control unavailable: %v", err)
	}
}

func baudToUnix(baud int) uint32 {
	switch baud {
	case 1200:
		return unix.B1200
	case 2400:
		return unix.B2400
	case 4800:
		return unix.B4800
	case 9600:
		return unix.B9600
	case 19200:
		return unix.B19200
	case 38400:
		return unix.B38400
	case 57600:
		return unix.B57600
	case 115200:
		return unix.B115200
	case 230400:
		return unix.B230400
	case 460800:
		return unix.B460800
	case 921600:
		return unix.B921600
	default:
		logger.Warnf("unsupported baud rate %d, using %d", baud, DefaultBaudRate)
		return unix.B115200
	}
}
