package acp

import (
	"github.com/ggoodman/acp-go/internal/engine"
	"github.com/ggoodman/acp-go/internal/jsonrpc"
)

// Error is the structured error carried in a response. Handlers may return
// one (possibly wrapped) to have it reach the peer unchanged.
type Error = jsonrpc.Error

// ErrorCode is an open error code space: codes outside the constants below
// survive a round trip unchanged.
type ErrorCode = jsonrpc.ErrorCode

const (
	ErrorCodeParseError       = jsonrpc.ErrorCodeParseError
	ErrorCodeInvalidRequest   = jsonrpc.ErrorCodeInvalidRequest
	ErrorCodeMethodNotFound   = jsonrpc.ErrorCodeMethodNotFound
	ErrorCodeInvalidParams    = jsonrpc.ErrorCodeInvalidParams
	ErrorCodeInternalError    = jsonrpc.ErrorCodeInternalError
	ErrorCodeRequestCancelled = jsonrpc.ErrorCodeRequestCancelled
	ErrorCodeAuthRequired     = jsonrpc.ErrorCodeAuthRequired
	ErrorCodeResourceNotFound = jsonrpc.ErrorCodeResourceNotFound
)

// ErrConnectionClosed is wrapped by every outbound call that was resolved
// because the connection ended before a response arrived.
var ErrConnectionClosed = engine.ErrConnectionClosed

// NewError returns an error with the code's canonical message.
func NewError(code ErrorCode) *Error { return jsonrpc.NewError(code) }

// MethodNotFound reports a method the receiver does not implement.
func MethodNotFound(method string) *Error {
	return jsonrpc.NewError(ErrorCodeMethodNotFound).WithData(map[string]string{"method": method})
}

// InvalidParams wraps a decode or validation failure.
func InvalidParams(err error) *Error { return jsonrpc.InvalidParamsFrom(err) }

// InternalError wraps an arbitrary local failure.
func InternalError(err error) *Error { return jsonrpc.InternalErrorFrom(err) }

// AuthRequired reports that the caller must authenticate first.
func AuthRequired() *Error { return jsonrpc.NewError(ErrorCodeAuthRequired) }

// ResourceNotFound reports a missing resource such as a file.
func ResourceNotFound(uri string) *Error { return jsonrpc.ResourceNotFound(uri) }

// AsError extracts the structured error from err's chain, converting anything
// else into an InternalError.
func AsError(err error) *Error { return jsonrpc.AsError(err) }
