package acpconn

import (
	"log/slog"

	"github.com/ggoodman/acp-go/internal/engine"
)

// ProtocolError describes a peer misbehaviour the connection survived, such
// as a response for an id nobody is waiting on.
type ProtocolError = engine.ProtocolError

// Option configures a connection.
type Option func(*config)

type config struct {
	log             *slog.Logger
	onProtocolError func(*ProtocolError)
	ordered         bool
}

func newConfig(opts []Option) *config {
	cfg := &config{log: slog.Default(), ordered: true}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithLogger sets a custom logger for the connection.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithProtocolErrorHandler receives protocol violations that do not close
// the connection. It runs on the read loop and must not block.
func WithProtocolErrorHandler(fn func(*ProtocolError)) Option {
	return func(c *config) { c.onProtocolError = fn }
}

// WithConcurrentNotifications hands each inbound notification to its own
// goroutine instead of delivering them one at a time in arrival order.
// session/update handlers then observe updates out of order.
func WithConcurrentNotifications() Option {
	return func(c *config) { c.ordered = false }
}
