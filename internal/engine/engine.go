package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ggoodman/acp-go/internal/logctx"
	"github.com/ggoodman/acp-go/internal/outbound"
	"github.com/ggoodman/acp-go/transport"
)

// CancelRequestMethod is the protocol-level notification a caller sends when
// it stops waiting for one of its outstanding requests.
const CancelRequestMethod = "$/cancel_request"

var (
	// ErrConnectionClosed is wrapped by every call resolved because the
	// connection went away.
	ErrConnectionClosed = outbound.ErrDispatcherClosed

	// errCancelRequested is the cancellation cause for handlers whose caller
	// sent $/cancel_request.
	errCancelRequested = errors.New("request cancelled by peer")
)

// Conn runs one side of a JSON-RPC connection over a transport.Stream. It
// reads frames sequentially, hands inbound requests to the Handler on their
// own goroutine, and correlates responses with outbound calls.
type Conn struct {
	stream transport.Stream
	h      Handler
	log    *slog.Logger
	side   string

	orderedNotifications bool
	onProtocolError      func(*ProtocolError)

	disp *outbound.Dispatcher

	// ctx scopes inbound request handlers; it is cancelled at teardown.
	ctx    context.Context
	cancel context.CancelCauseFunc
	// notifyCtx scopes notification handlers. It outlives ctx so queued
	// notifications still drain after the peer hangs up.
	notifyCtx    context.Context
	notifyCancel context.CancelFunc

	writeMu sync.Mutex

	inflightMu sync.Mutex
	inflight   map[string]context.CancelCauseFunc // reqID -> cancel func

	queue *orderedQueue

	started  atomic.Bool
	closing  atomic.Bool
	readDone chan struct{}
	doneOnce sync.Once
	done     chan struct{}
	errMu    sync.Mutex
	err      error
}

// Option configures a Conn.
type Option func(*Conn)

// WithLogger sets a custom logger for the Conn.
func WithLogger(l *slog.Logger) Option {
	return func(c *Conn) {
		if l != nil {
			c.log = l
		}
	}
}

// WithSide labels log records with the role this process plays.
func WithSide(side string) Option {
	return func(c *Conn) { c.side = side }
}

// WithProtocolErrorHandler receives protocol violations that do not close the
// connection, such as responses for unknown ids.
func WithProtocolErrorHandler(fn func(*ProtocolError)) Option {
	return func(c *Conn) { c.onProtocolError = fn }
}

// WithOrderedNotifications controls whether inbound notifications are handled
// one at a time in arrival order (the default) or each on its own goroutine.
func WithOrderedNotifications(ordered bool) Option {
	return func(c *Conn) { c.orderedNotifications = ordered }
}

// New constructs a Conn. Serve must be called to start reading.
func New(stream transport.Stream, h Handler, opts ...Option) *Conn {
	c := &Conn{
		stream:               stream,
		h:                    h,
		log:                  slog.Default(),
		orderedNotifications: true,
		inflight:             make(map[string]context.CancelCauseFunc),
		queue:                newOrderedQueue(),
		readDone:             make(chan struct{}),
		done:                 make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.log = logctx.Wrap(c.log)

	base := context.Background()
	if c.side != "" {
		base = logctx.WithConnData(base, &logctx.ConnData{Side: c.side})
	}
	c.ctx, c.cancel = context.WithCancelCause(base)
	c.notifyCtx, c.notifyCancel = context.WithCancel(base)
	c.disp = outbound.New(dispatcherTransport{c})
	return c
}

// Serve reads and dispatches frames until the stream ends, a fatal error
// occurs, ctx is cancelled, or Close is called. It returns the same value as
// Err.
func (c *Conn) Serve(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		<-c.done
		return c.Err()
	}

	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		c.queue.run()
	}()

	cause := c.readLoop()
	close(c.readDone)

	c.finish(cause, workerDone)
	return c.Err()
}

func (c *Conn) readLoop() error {
	for {
		frame, err := c.stream.ReadMessage(c.ctx)
		if err != nil {
			if c.closing.Load() {
				return nil
			}
			if errors.Is(err, io.EOF) {
				c.log.DebugContext(c.ctx, "engine.read.eof")
				return io.EOF
			}
			c.log.ErrorContext(c.ctx, "engine.read.fail", slog.String("err", err.Error()))
			return err
		}

		if err := c.handleFrame(frame); err != nil {
			c.log.ErrorContext(c.ctx, "engine.read.fatal", slog.String("err", err.Error()))
			return err
		}
	}
}

// finish tears the connection down exactly once.
func (c *Conn) finish(cause error, workerDone <-chan struct{}) {
	c.doneOnce.Do(func() {
		c.errMu.Lock()
		if cause != nil && !errors.Is(cause, io.EOF) {
			c.err = cause
		}
		c.errMu.Unlock()

		dispCause := cause
		if dispCause == nil {
			dispCause = errors.New("closed locally")
		}
		c.disp.Close(dispCause)
		c.cancel(ErrConnectionClosed)

		c.queue.close()
		if workerDone != nil {
			<-workerDone
		}
		c.notifyCancel()

		_ = c.stream.Close()
		close(c.done)

		c.log.DebugContext(c.ctx, "engine.closed", slog.Int("pending", c.disp.Pending()))
	})
}

// Done is closed once the connection has shut down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the connection. A clean end of stream or
// a local Close yields nil.
func (c *Conn) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Close stops the connection, resolving outstanding calls with
// ErrConnectionClosed and cancelling in-flight handlers. It returns once the
// read loop has stopped; Done reports when queued notifications have drained.
func (c *Conn) Close() error {
	if !c.closing.CompareAndSwap(false, true) {
		return nil
	}
	c.notifyCancel()
	err := c.stream.Close()
	if errors.Is(err, transport.ErrClosed) {
		err = nil
	}
	if c.started.CompareAndSwap(false, true) {
		close(c.readDone)
		c.finish(nil, nil)
		return err
	}
	<-c.readDone
	return err
}

// Pending reports the number of outbound calls awaiting a response.
func (c *Conn) Pending() int {
	return c.disp.Pending()
}

// Logger returns the connection's logger.
func (c *Conn) Logger() *slog.Logger {
	return c.log
}
