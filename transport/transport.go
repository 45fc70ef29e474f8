// Package transport defines the duplex channel the connection engine runs
// over. A Stream moves discrete JSON-RPC frames in both directions; framing
// (newlines, stream entries, in-memory handoff) is the implementation's
// concern.
//
// Implementations in this module:
//
//	stdio                 newline-delimited JSON over an io.Reader / io.Writer pair
//	transport/memory      in-process pipe pair, mostly for tests and embedding
//	transport/redisstream two Redis Streams, one per direction
package transport

import (
	"context"
	"errors"
)

// ErrClosed is returned by streams after Close.
var ErrClosed = errors.New("transport closed")

// Stream is a bidirectional channel of discrete JSON messages.
//
// ReadMessage is only ever called from a single goroutine. WriteMessage may be
// called concurrently; the engine serializes writes, but implementations
// must not assume so for Close.
type Stream interface {
	// ReadMessage blocks until the next frame arrives. It returns io.EOF when
	// the peer has finished sending.
	ReadMessage(ctx context.Context) ([]byte, error)
	// WriteMessage emits one frame.
	WriteMessage(ctx context.Context, msg []byte) error
	// Close releases the stream. Blocked reads return promptly.
	Close() error
}
