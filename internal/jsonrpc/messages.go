package jsonrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ProtocolVersion is the supported JSON-RPC protocol version.
const ProtocolVersion = "2.0"

// Message is the raw JSON representation of a single JSON-RPC message.
type Message []byte

// Message type labels returned by AnyMessage.Type.
const (
	TypeRequest      = "request"
	TypeResponse     = "response"
	TypeNotification = "notification"
)

// ErrInvalidEnvelope marks a frame that is valid JSON but not a valid
// JSON-RPC 2.0 message.
var ErrInvalidEnvelope = errors.New("invalid JSON-RPC envelope")

// AnyMessage is a generic JSON-RPC message (request, notification, or response).
type AnyMessage struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Method         string          `json:"method,omitempty"`
	Params         json.RawMessage `json:"params,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          *Error          `json:"error,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// Request represents a JSON-RPC request (with an ID) or notification (without ID).
type Request struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Method         string          `json:"method"`
	Params         json.RawMessage `json:"params,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// IsNotification reports whether the request carries no id.
func (r *Request) IsNotification() bool {
	return r.ID.IsNil()
}

// Response represents a JSON-RPC response.
type Response struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          *Error          `json:"error,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// NewRequest builds a request; a nil id produces a notification.
func NewRequest(id *RequestID, method string, params json.RawMessage) *Request {
	return &Request{
		JSONRPCVersion: ProtocolVersion,
		Method:         method,
		Params:         params,
		ID:             id,
	}
}

// NewResultResponse builds a successful JSON-RPC response object.
func NewResultResponse(id *RequestID, result any) (*Response, error) {
	resultBytes, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return NewRawResultResponse(id, resultBytes), nil
}

// NewRawResultResponse builds a successful response whose result bytes are
// used as-is.
func NewRawResultResponse(id *RequestID, result json.RawMessage) *Response {
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	return &Response{
		JSONRPCVersion: ProtocolVersion,
		Result:         result,
		ID:             id,
	}
}

// NewErrorResponse builds an error JSON-RPC response with the given code.
func NewErrorResponse(id *RequestID, code ErrorCode, message string, data any) *Response {
	e := &Error{Code: code, Message: message}
	if data != nil {
		e = e.WithData(data)
	}
	return NewErrorResponseFrom(id, e)
}

// NewErrorResponseFrom wraps an existing error object in a response.
func NewErrorResponseFrom(id *RequestID, e *Error) *Response {
	return &Response{
		JSONRPCVersion: ProtocolVersion,
		Error:          e,
		ID:             id,
	}
}

// UnmarshalJSON implements custom JSON unmarshaling for AnyMessage
// It enforces JSON-RPC 2.0 semantics and validates message structure.
// Structural violations wrap ErrInvalidEnvelope; the partially decoded id and
// method are still populated so the caller can answer with InvalidRequest.
func (m *AnyMessage) UnmarshalJSON(data []byte) error {
	// Define a temporary struct to capture raw JSON
	type rawMessage struct {
		JSONRPCVersion string          `json:"jsonrpc"`
		Method         string          `json:"method,omitempty"`
		Params         json.RawMessage `json:"params,omitempty"`
		Result         json.RawMessage `json:"result,omitempty"`
		Error          *Error          `json:"error,omitempty"`
		ID             *RequestID      `json:"id,omitempty"`
	}

	var raw rawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		return fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	m.Method = raw.Method
	m.ID = raw.ID

	// Validate JSON-RPC version
	if raw.JSONRPCVersion != ProtocolVersion {
		return fmt.Errorf("%w: expected jsonrpc %q, got %q", ErrInvalidEnvelope, ProtocolVersion, raw.JSONRPCVersion)
	}

	// Determine message type and validate structure
	hasMethod := raw.Method != ""
	hasResult := len(raw.Result) > 0
	hasError := raw.Error != nil

	if hasMethod {
		if hasResult || hasError {
			return fmt.Errorf("%w: request message cannot have result or error fields", ErrInvalidEnvelope)
		}
	} else {
		if hasResult && hasError {
			return fmt.Errorf("%w: response message cannot have both result and error fields", ErrInvalidEnvelope)
		}
		if !hasResult && !hasError {
			return fmt.Errorf("%w: response message must have either result or error field", ErrInvalidEnvelope)
		}
		if hasResult && raw.ID.IsNil() {
			return fmt.Errorf("%w: successful response requires an id", ErrInvalidEnvelope)
		}
	}

	m.JSONRPCVersion = raw.JSONRPCVersion
	m.Params = raw.Params
	m.Result = raw.Result
	m.Error = raw.Error

	return nil
}

// Type returns "request" if the message is a request, "response" if it's a response, or "notification" if it's a notification
func (m *AnyMessage) Type() string {
	if m.Method != "" {
		if m.ID.IsNil() {
			return TypeNotification
		}
		return TypeRequest
	}
	return TypeResponse
}

// AsRequest returns the message as a Request if it is a request message, otherwise nil
func (m *AnyMessage) AsRequest() *Request {
	if m.Method == "" {
		return nil
	}

	return &Request{
		JSONRPCVersion: m.JSONRPCVersion,
		Method:         m.Method,
		Params:         m.Params,
		ID:             m.ID,
	}
}

// AsResponse returns the message as a Response if it is a response message, otherwise nil
func (m *AnyMessage) AsResponse() *Response {
	if m.Method != "" {
		return nil
	}

	return &Response{
		JSONRPCVersion: m.JSONRPCVersion,
		Result:         m.Result,
		Error:          m.Error,
		ID:             m.ID,
	}
}

// Decode parses a single frame into an AnyMessage.
func Decode(frame Message) (*AnyMessage, error) {
	var m AnyMessage
	if err := json.Unmarshal(frame, &m); err != nil {
		return &m, err
	}
	return &m, nil
}

// EncodeRequest serializes a request or notification. Params bytes are
// spliced in verbatim so extension payloads are never re-encoded.
func EncodeRequest(req *Request) (Message, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"jsonrpc":"2.0"`)
	if !req.ID.IsNil() {
		buf.WriteString(`,"id":`)
		b, err := req.ID.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteString(`,"method":`)
	if err := writeString(&buf, req.Method); err != nil {
		return nil, err
	}
	if len(req.Params) > 0 {
		if !json.Valid(req.Params) {
			return nil, fmt.Errorf("params for %q are not valid JSON", req.Method)
		}
		buf.WriteString(`,"params":`)
		buf.Write(req.Params)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// EncodeResponse serializes a response, splicing result and error data bytes
// in verbatim.
func EncodeResponse(resp *Response) (Message, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"jsonrpc":"2.0","id":`)
	idBytes, err := resp.ID.MarshalJSON()
	if err != nil {
		return nil, err
	}
	buf.Write(idBytes)

	if resp.Error != nil {
		buf.WriteString(`,"error":{"code":`)
		fmt.Fprintf(&buf, "%d", int32(resp.Error.Code))
		buf.WriteString(`,"message":`)
		if err := writeString(&buf, resp.Error.Message); err != nil {
			return nil, err
		}
		if len(resp.Error.Data) > 0 {
			if !json.Valid(resp.Error.Data) {
				return nil, fmt.Errorf("error data is not valid JSON")
			}
			buf.WriteString(`,"data":`)
			buf.Write(resp.Error.Data)
		}
		buf.WriteString(`}}`)
		return buf.Bytes(), nil
	}

	result := resp.Result
	if len(result) == 0 {
		result = json.RawMessage("null")
	} else if !json.Valid(result) {
		return nil, fmt.Errorf("result is not valid JSON")
	}
	buf.WriteString(`,"result":`)
	buf.Write(result)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encoder appends a newline; drop it to keep the frame on one line.
	buf.Truncate(buf.Len() - 1)
	return nil
}
