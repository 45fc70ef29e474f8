// Package memory provides an in-process implementation of transport.Stream
// built on Go channels. Pipe returns two connected ends, which makes it the
// natural channel for tests and for embedding an agent and a client in one
// process.
package memory

import (
	"context"
	"io"
	"sync"

	"github.com/ggoodman/acp-go/transport"
)

const defaultBuffer = 16

// half is one direction of the pipe.
type half struct {
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

func newHalf(buf int) *half {
	return &half{ch: make(chan []byte, buf), done: make(chan struct{})}
}

func (h *half) close() { h.once.Do(func() { close(h.done) }) }

// Stream is one end of an in-memory pipe.
type Stream struct {
	in, out *half

	closed    chan struct{}
	closeOnce sync.Once
}

var _ transport.Stream = (*Stream)(nil)

// Option customizes Pipe.
type Option func(*pipeConfig)

type pipeConfig struct {
	buffer int
}

// WithBuffer sets how many frames each direction can hold before writers
// block. Zero makes the pipe fully synchronous.
func WithBuffer(n int) Option {
	return func(c *pipeConfig) {
		if n >= 0 {
			c.buffer = n
		}
	}
}

// Pipe creates two connected streams: frames written to one are read from
// the other.
func Pipe(opts ...Option) (*Stream, *Stream) {
	cfg := pipeConfig{buffer: defaultBuffer}
	for _, opt := range opts {
		opt(&cfg)
	}

	ab := newHalf(cfg.buffer)
	ba := newHalf(cfg.buffer)

	a := &Stream{in: ba, out: ab, closed: make(chan struct{})}
	b := &Stream{in: ab, out: ba, closed: make(chan struct{})}
	return a, b
}

// ReadMessage returns the next frame. Once the peer closes, remaining frames
// are drained before io.EOF is returned.
func (s *Stream) ReadMessage(ctx context.Context) ([]byte, error) {
	select {
	case <-s.closed:
		return nil, transport.ErrClosed
	default:
	}

	select {
	case msg := <-s.in.ch:
		return msg, nil
	case <-s.closed:
		return nil, transport.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.in.done:
		select {
		case msg := <-s.in.ch:
			return msg, nil
		default:
			return nil, io.EOF
		}
	}
}

// WriteMessage hands a copy of msg to the peer.
func (s *Stream) WriteMessage(ctx context.Context, msg []byte) error {
	select {
	case <-s.closed:
		return transport.ErrClosed
	case <-s.out.done:
		return io.ErrClosedPipe
	default:
	}

	frame := append([]byte(nil), msg...)
	select {
	case s.out.ch <- frame:
		return nil
	case <-s.closed:
		return transport.ErrClosed
	case <-s.out.done:
		return io.ErrClosedPipe
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts both directions. The peer observes io.EOF on read and
// io.ErrClosedPipe on write.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.out.close()
		s.in.close()
	})
	return nil
}
