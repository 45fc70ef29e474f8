package engine

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler receives inbound traffic. Implementations decode params for the
// methods they know and return jsonrpc errors for the ones they don't.
//
// HandleRequest returns the result to send back. A json.RawMessage result is
// written verbatim; anything else is marshalled. Returning an error that wraps
// a *jsonrpc.Error sends that error; other errors become InternalError.
type Handler interface {
	HandleRequest(ctx context.Context, method string, params json.RawMessage) (any, error)
	HandleNotification(ctx context.Context, method string, params json.RawMessage) error
}

// ProtocolError describes a peer misbehaviour that was survived: the frame
// is dropped and the connection keeps running.
type ProtocolError struct {
	// Kind is a short machine-readable label such as "unmatched_response".
	Kind string
	// ID is the request id carried by the offending frame, if any.
	ID string
	// Method is the method named by the offending frame, if any.
	Method string
	// Err is the underlying decode failure, if any.
	Err error
}

const (
	ProtocolErrorUnmatchedResponse = "unmatched_response"
	ProtocolErrorInvalidEnvelope   = "invalid_envelope"
	ProtocolErrorDuplicateID       = "duplicate_request_id"
)

func (e *ProtocolError) Error() string {
	msg := "protocol error: " + e.Kind
	if e.ID != "" {
		msg += fmt.Sprintf(" (id %s)", e.ID)
	}
	if e.Method != "" {
		msg += fmt.Sprintf(" (method %s)", e.Method)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }
