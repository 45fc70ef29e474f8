package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ggoodman/acp-go/transport"
)

// ErrFrameTooLarge is returned when an inbound line exceeds the configured
// maximum frame size.
var ErrFrameTooLarge = errors.New("stdio: frame exceeds maximum size")

// Stream is a newline-delimited JSON transport.Stream. By default it reads
// os.Stdin and writes os.Stdout.
type Stream struct {
	r        io.Reader
	w        io.Writer
	l        *slog.Logger
	maxFrame int

	br  *bufio.Reader
	mux *writeMux

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

var _ transport.Stream = (*Stream)(nil)

// NewStream constructs a Stream with defaults and applies options.
func NewStream(opts ...Option) *Stream {
	s := &Stream{
		r: os.Stdin,
		w: os.Stdout,
		l: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.br = bufio.NewReaderSize(s.r, 64*1024)
	s.mux = &writeMux{w: bufio.NewWriter(s.w)}
	return s
}

// writeMux serializes whole frames onto the underlying writer.
type writeMux struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func (m *writeMux) writeFrame(frame []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.w.Write(frame); err != nil {
		return err
	}
	if err := m.w.WriteByte('\n'); err != nil {
		return err
	}
	return m.w.Flush()
}

// ReadMessage returns the next non-empty line. The context is consulted
// before blocking; an in-progress read is interrupted by Close when the
// underlying reader is an io.Closer.
func (s *Stream) ReadMessage(ctx context.Context) ([]byte, error) {
	for {
		if s.closed.Load() {
			return nil, transport.ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, err := s.readLine()
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			// A final unterminated line is still a frame; EOF follows on
			// the next call.
			return line, nil
		}
		if err != nil {
			if s.closed.Load() {
				return nil, transport.ErrClosed
			}
			return nil, err
		}
	}
}

func (s *Stream) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := s.br.ReadSlice('\n')
		line = append(line, chunk...)
		if s.maxFrame > 0 && len(line) > s.maxFrame {
			return nil, fmt.Errorf("%w (%d bytes)", ErrFrameTooLarge, s.maxFrame)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, err
	}
}

// WriteMessage writes msg followed by a newline. Frames containing newlines
// are compacted first.
func (s *Stream) WriteMessage(ctx context.Context, msg []byte) error {
	if s.closed.Load() {
		return transport.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	frame := msg
	if bytes.IndexByte(msg, '\n') >= 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, msg); err != nil {
			return fmt.Errorf("stdio: compact frame: %w", err)
		}
		frame = buf.Bytes()
	}

	if err := s.mux.writeFrame(frame); err != nil {
		return fmt.Errorf("stdio: write frame: %w", err)
	}
	return nil
}

// Close closes the underlying reader and writer when they implement
// io.Closer.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		var errs []error
		if c, ok := s.r.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
		if c, ok := s.w.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
		s.closeErr = errors.Join(errs...)
		if s.closeErr != nil {
			s.l.Debug("stdio.close.fail", slog.String("err", s.closeErr.Error()))
		}
	})
	return s.closeErr
}
