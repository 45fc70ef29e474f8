// Package acpconn binds an Agent or Client implementation to a transport and
// exposes the opposite role's methods as typed calls.
//
// An AgentSideConnection is what an agent process holds: it dispatches
// inbound client requests to an acp.Agent and implements acp.Client so the
// agent can call back into the editor. ClientSideConnection is the mirror
// image. Because each connection type only has the methods its peer
// receives, sending a method in the wrong direction does not compile.
package acpconn

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ggoodman/acp-go/acp"
	"github.com/ggoodman/acp-go/internal/engine"
	"github.com/ggoodman/acp-go/internal/turns"
	"github.com/ggoodman/acp-go/transport"
)

// conn holds what both roles share: the engine and the session tracker.
type conn struct {
	eng   *engine.Conn
	turns *turns.Tracker
	log   *slog.Logger
}

func newConn(side acp.Side, stream transport.Stream, d *dispatcher, cfg *config) conn {
	eng := engine.New(stream, d,
		engine.WithLogger(cfg.log),
		engine.WithSide(string(side)),
		engine.WithProtocolErrorHandler(cfg.onProtocolError),
		engine.WithOrderedNotifications(cfg.ordered),
	)
	return conn{eng: eng, turns: d.turns, log: eng.Logger()}
}

// Serve reads and dispatches inbound messages until the peer hangs up, the
// transport fails, ctx is cancelled, or Close is called. It returns nil
// after a clean shutdown.
func (c *conn) Serve(ctx context.Context) error { return c.eng.Serve(ctx) }

// Start runs Serve on a new goroutine. Use Done and Err to observe the end.
func (c *conn) Start(ctx context.Context) { go func() { _ = c.eng.Serve(ctx) }() }

// Done is closed once the connection has shut down and every outstanding
// call has been resolved.
func (c *conn) Done() <-chan struct{} { return c.eng.Done() }

// Err reports why the connection ended. It is nil while running and after a
// clean end of stream or a local Close.
func (c *conn) Err() error { return c.eng.Err() }

// Close stops the connection. Outstanding calls fail with
// acp.ErrConnectionClosed.
func (c *conn) Close() error { return c.eng.Close() }

// call sends a typed request and validates the typed result.
func call[Resp any](ctx context.Context, c *conn, method string, params any) (*Resp, error) {
	resp := new(Resp)
	if err := c.eng.Call(ctx, method, params, resp); err != nil {
		return nil, err
	}
	if v, ok := any(resp).(acp.Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s result: %w", method, err)
		}
	}
	return resp, nil
}

func (c *conn) notify(ctx context.Context, method string, params any) error {
	return c.eng.Notify(ctx, method, params)
}

func (c *conn) extMethod(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	return c.eng.CallRaw(ctx, method, params)
}

func (c *conn) extNotification(ctx context.Context, method string, params json.RawMessage) error {
	return c.eng.NotifyRaw(ctx, method, params)
}
