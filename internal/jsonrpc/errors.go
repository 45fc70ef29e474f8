package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrorCode is a JSON-RPC 2.0 error code. The code space is open: values that
// are not one of the constants below are carried through unchanged.
type ErrorCode int32

const (
	// ErrorCodeParseError indicates invalid JSON was received.
	ErrorCodeParseError ErrorCode = -32700
	// ErrorCodeInvalidRequest indicates the JSON sent is not a valid Request object.
	ErrorCodeInvalidRequest ErrorCode = -32600
	// ErrorCodeMethodNotFound indicates the method does not exist / is not available.
	ErrorCodeMethodNotFound ErrorCode = -32601
	// ErrorCodeInvalidParams indicates invalid method parameters.
	ErrorCodeInvalidParams ErrorCode = -32602
	// ErrorCodeInternalError indicates an internal JSON-RPC error.
	ErrorCodeInternalError ErrorCode = -32603
	// ErrorCodeRequestCancelled indicates the request was cancelled by the caller.
	ErrorCodeRequestCancelled ErrorCode = -32800
	// ErrorCodeAuthRequired indicates authentication is required first.
	ErrorCodeAuthRequired ErrorCode = -32000
	// ErrorCodeResourceNotFound indicates a referenced resource (e.g. a file) does not exist.
	ErrorCodeResourceNotFound ErrorCode = -32002
)

// Known reports whether c is one of the protocol-defined codes.
func (c ErrorCode) Known() bool {
	switch c {
	case ErrorCodeParseError,
		ErrorCodeInvalidRequest,
		ErrorCodeMethodNotFound,
		ErrorCodeInvalidParams,
		ErrorCodeInternalError,
		ErrorCodeRequestCancelled,
		ErrorCodeAuthRequired,
		ErrorCodeResourceNotFound:
		return true
	default:
		return false
	}
}

// String returns the canonical message for known codes and "Unknown error"
// for anything else.
func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeParseError:
		return "Parse error"
	case ErrorCodeInvalidRequest:
		return "Invalid request"
	case ErrorCodeMethodNotFound:
		return "Method not found"
	case ErrorCodeInvalidParams:
		return "Invalid params"
	case ErrorCodeInternalError:
		return "Internal error"
	case ErrorCodeRequestCancelled:
		return "Request cancelled"
	case ErrorCodeAuthRequired:
		return "Authentication required"
	case ErrorCodeResourceNotFound:
		return "Resource not found"
	default:
		return "Unknown error"
	}
}

// UnmarshalJSON accepts any JSON integer that fits in 32 bits.
func (c *ErrorCode) UnmarshalJSON(data []byte) error {
	n, err := strconv.ParseInt(string(data), 10, 32)
	if err != nil {
		return fmt.Errorf("error code must be a 32-bit integer, got: %s", string(data))
	}
	*c = ErrorCode(n)
	return nil
}

// Error is a JSON-RPC error object. It doubles as a Go error so handlers can
// return it directly and have it reach the peer verbatim.
type Error struct {
	Code    ErrorCode       `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewError builds an error with the code's canonical message.
func NewError(code ErrorCode) *Error {
	return &Error{Code: code, Message: code.String()}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strconv.FormatInt(int64(e.Code), 10)
	}
	if len(e.Data) > 0 {
		return msg + ": " + string(e.Data)
	}
	return msg
}

// WithData returns a copy of e with data attached. Values that fail to
// marshal are replaced by their fmt representation.
func (e *Error) WithData(data any) *Error {
	cp := *e
	switch v := data.(type) {
	case nil:
		cp.Data = nil
	case json.RawMessage:
		cp.Data = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			b, _ = json.Marshal(fmt.Sprint(v))
		}
		cp.Data = b
	}
	return &cp
}

// Is matches errors with the same code so callers can write
// errors.Is(err, jsonrpc.NewError(jsonrpc.ErrorCodeAuthRequired)).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// InternalErrorFrom converts an arbitrary failure into an InternalError
// carrying the failure's description as data.
func InternalErrorFrom(err error) *Error {
	return NewError(ErrorCodeInternalError).WithData(err.Error())
}

// InvalidParamsFrom converts a decode failure into an InvalidParams error
// carrying the decoder's message as data.
func InvalidParamsFrom(err error) *Error {
	return NewError(ErrorCodeInvalidParams).WithData(err.Error())
}

// AsError extracts a structured error from err's chain, falling back to
// InternalErrorFrom when none is present.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return InternalErrorFrom(err)
}

// ResourceNotFound reports a missing resource, carrying its uri as data.
func ResourceNotFound(uri string) *Error {
	return NewError(ErrorCodeResourceNotFound).WithData(map[string]string{"uri": uri})
}
