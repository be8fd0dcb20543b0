package serial

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrBufferFull is reported when the buffer fills before a delimiter arrives.
	ErrBufferFull = errors.New("line buffer full before delimiter")
	// ErrClosed is returned by sources that were closed while a read was pending.
	ErrClosed = errors.New("serial port closed")
)

// Indicator is a digital output toggled around the wait for input.
// A TinyGo machine.Pin satisfies it.
type Indicator interface {
	High()
	Low()
}

type nopIndicator struct{}

func (nopIndicator) High() {}
func (nopIndicator) Low()  {}

// Observer is notified about the outcome of every read cycle.
type Observer interface {
	LineRead(n int)
	Overflow()
	SourceError(err error)
}

type nopObserver struct{}

func (nopObserver) LineRead(int)      {}
func (nopObserver) Overflow()         {}
func (nopObserver) SourceError(error) {}

// ContextByteReader is implemented by sources whose blocking read can be
// abandoned when a context is done.
type ContextByteReader interface {
	ReadByteContext(ctx context.Context) (byte, error)
}

// Option configures a LineReader.
type Option func(*LineReader)

// WithBufferSize sets the buffer capacity, terminator included.
func WithBufferSize(n int) Option {
	return func(r *LineReader) {
		if n > 0 {
			r.buf = make([]byte, n)
		}
	}
}

// WithDelimiter sets the byte that ends a line.
func WithDelimiter(b byte) Option {
	return func(r *LineReader) { r.delim = b }
}

// WithIndicator sets the busy indicator driven while waiting for a byte.
func WithIndicator(ind Indicator) Option {
	return func(r *LineReader) {
		if ind != nil {
			r.indicator = ind
		}
	}
}

// WithObserver registers an Observer for read cycle outcomes.
func WithObserver(o Observer) Option {
	return func(r *LineReader) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithReadTimeout bounds every line read by ReadLinesLoop.
func WithReadTimeout(d time.Duration) Option {
	return func(r *LineReader) { r.timeout = d }
}

// LineReader accumulates bytes from a source into a fixed buffer until the
// delimiter is seen. It is not safe for concurrent use; create one reader
// per goroutine.
type LineReader struct {
	src       io.ByteReader
	buf       []byte
	delim     byte
	indicator Indicator
	observer  Observer
	timeout   time.Duration

	n   int // bytes written by the last cycle
	ok  bool
	err error
}

// NewLineReader returns a LineReader pulling bytes from src.
func NewLineReader(src io.ByteReader, opts ...Option) *LineReader {
	r := &LineReader{
		src:       src,
		buf:       make([]byte, DefaultBufferSize),
		delim:     DefaultDelimiter,
		indicator: nopIndicator{},
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Size returns the buffer capacity.
func (r *LineReader) Size() int {
	return len(r.buf)
}

// ReadOneByte consumes one byte from the source into the buffer at *idx.
// It returns false without reading when the buffer is full or already
// holds a complete line. A delimiter is stored as Terminator and sets
// *complete. A source error also returns false; see Err.
func (r *LineReader) ReadOneByte(complete *bool, idx *int) bool {
	return r.readOneByte(context.Background(), complete, idx)
}

func (r *LineReader) readOneByte(ctx context.Context, complete *bool, idx *int) bool {
	if *idx >= len(r.buf) || *complete {
		return false
	}

	r.indicator.High()
	c, err := r.readByte(ctx)
	r.indicator.Low()
	if err != nil {
		r.err = err
		return false
	}

	if c == r.delim {
		c = Terminator
		*complete = true
	}
	r.buf[*idx] = c
	*idx++
	return true
}

func (r *LineReader) readByte(ctx context.Context) (byte, error) {
	if ctx.Done() == nil {
		return r.src.ReadByte()
	}
	if cr, ok := r.src.(ContextByteReader); ok {
		return cr.ReadByteContext(ctx)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return r.src.ReadByte()
}

// ReadLine blocks until a delimiter-terminated line is in the buffer. It
// returns false when the buffer fills first or the source fails.
func (r *LineReader) ReadLine() bool {
	return r.readLine(context.Background())
}

// ReadLineContext is like ReadLine but gives up once ctx is done. It returns
// ErrBufferFull on overflow.
func (r *LineReader) ReadLineContext(ctx context.Context) error {
	if r.readLine(ctx) {
		return nil
	}
	if r.err != nil {
		return r.err
	}
	return ErrBufferFull
}

func (r *LineReader) readLine(ctx context.Context) bool {
	complete, idx := false, 0
	r.n, r.ok, r.err = 0, false, nil
	for !complete {
		if !r.readOneByte(ctx, &complete, &idx) {
			break
		}
	}
	r.n, r.ok = idx, complete

	switch {
	case complete:
		r.observer.LineRead(idx - 1)
	case r.err != nil:
		r.observer.SourceError(r.err)
	default:
		r.observer.Overflow()
	}
	return complete
}

// ReadChar reads a line and returns its first byte, or 0 on failure.
func (r *LineReader) ReadChar() byte {
	if !r.ReadLine() {
		return 0
	}
	return r.buf[0]
}

// ReadInt reads a line and parses it as a decimal integer, or returns -1 on
// failure. Non-numeric content parses as 0.
func (r *LineReader) ReadInt() int {
	if !r.ReadLine() {
		return -1
	}
	return ParseInt(r.buf[:r.n])
}

// Bytes returns the payload of the last completed line, without the
// terminator. It is nil when the last cycle failed. The slice is reused
// by the next read.
func (r *LineReader) Bytes() []byte {
	if !r.ok {
		return nil
	}
	return r.buf[:r.n-1]
}

// Text returns Bytes as a string.
func (r *LineReader) Text() string {
	return string(r.Bytes())
}

// Err returns the source error that ended the last cycle, if any.
// Overflow is not a source error.
func (r *LineReader) Err() error {
	return r.err
}

// ReadLinesLoop reads lines until the source fails and invokes onLine for
// each one. Overflowed lines are reported to onError and the loop goes on.
// A closed source ends the loop silently.
func (r *LineReader) ReadLinesLoop(onLine func(string), onError func(error)) {
	for {
		err := r.readLineTimeout()
		switch {
		case err == nil:
			onLine(r.Text())
		case errors.Is(err, ErrBufferFull), errors.Is(err, context.DeadlineExceeded):
			onError(err)
		case errors.Is(err, ErrClosed):
			return
		default:
			onError(err)
			return
		}
	}
}

func (r *LineReader) readLineTimeout() error {
	if r.timeout <= 0 {
		return r.ReadLineContext(context.Background())
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.ReadLineContext(ctx)
}
