package jsonrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestDecode_Classifies(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		`{"jsonrpc":"2.0","id":1,"method":"session/new","params":{}}`:        TypeRequest,
		`{"jsonrpc":"2.0","method":"session/cancel","params":{"sessionId":"s"}}`: TypeNotification,
		`{"jsonrpc":"2.0","id":"abc","result":{"ok":true}}`:                    TypeResponse,
		`{"jsonrpc":"2.0","id":2,"error":{"code":-32601,"message":"nope"}}`:    TypeResponse,
	}
	for frame, want := range cases {
		m, err := Decode(Message(frame))
		if err != nil {
			t.Fatalf("decode %s: %v", frame, err)
		}
		if got := m.Type(); got != want {
			t.Fatalf("type of %s = %s, want %s", frame, got, want)
		}
	}
}

func TestDecode_RejectsInvalidEnvelopes(t *testing.T) {
	t.Parallel()

	frames := []string{
		`{"jsonrpc":"1.0","id":1,"method":"x"}`,
		`{"jsonrpc":"2.0","id":1,"result":1,"error":{"code":1,"message":"m"}}`,
		`{"jsonrpc":"2.0","id":1}`,
		`{"jsonrpc":"2.0","id":1,"method":"x","result":1}`,
		`[1,2,3]`,
	}
	for _, frame := range frames {
		_, err := Decode(Message(frame))
		if !errors.Is(err, ErrInvalidEnvelope) {
			t.Fatalf("decode %s: expected ErrInvalidEnvelope, got %v", frame, err)
		}
	}

	if _, err := Decode(Message(`{not json`)); err == nil || errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("expected syntax error, got %v", err)
	}
}

func TestDecode_InvalidEnvelopeKeepsID(t *testing.T) {
	t.Parallel()

	m, err := Decode(Message(`{"jsonrpc":"1.0","id":7,"method":"x"}`))
	if !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}
	if m.ID.String() != "7" {
		t.Fatalf("expected id 7 to survive, got %q", m.ID.String())
	}
}

func TestRequestID_LargeIntegerSurvives(t *testing.T) {
	t.Parallel()

	var id RequestID
	if err := json.Unmarshal([]byte(`9007199254740993`), &id); err != nil {
		t.Fatal(err)
	}
	if id.String() != "9007199254740993" {
		t.Fatalf("lost precision: %s", id.String())
	}
	b, err := id.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "9007199254740993" {
		t.Fatalf("unexpected encoding: %s", b)
	}
}

func TestRequestID_RejectsNonScalar(t *testing.T) {
	t.Parallel()

	var id RequestID
	if err := json.Unmarshal([]byte(`{"a":1}`), &id); err == nil {
		t.Fatalf("expected error for object id")
	}
	if err := json.Unmarshal([]byte(`1.5`), &id); err == nil {
		t.Fatalf("expected error for fractional id")
	}
	if err := json.Unmarshal([]byte(`-1`), &id); err == nil {
		t.Fatalf("expected error for negative id")
	}
}

func TestDecode_NegativeIDIsInvalidEnvelope(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{"jsonrpc":"2.0","id":-4,"method":"session/new"}`))
	if !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}

	m, err := Decode([]byte(`{"jsonrpc":"2.0","id":0,"method":"session/new"}`))
	if err != nil {
		t.Fatalf("id 0 should decode: %v", err)
	}
	if m.ID.String() != "0" {
		t.Fatalf("id = %q", m.ID.String())
	}
}

func TestEncodeRequest_ParamsVerbatim(t *testing.T) {
	t.Parallel()

	params := json.RawMessage(`{"z":1,"a":12345678901234567890123,"html":"<b>&</b>"}`)
	frame, err := EncodeRequest(NewRequest(NewRequestID(3), "_vendor/thing", params))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(frame, params) {
		t.Fatalf("params not preserved verbatim: %s", frame)
	}

	m, err := Decode(frame)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(m.Params, params) {
		t.Fatalf("round-trip params mismatch: %s", m.Params)
	}
	if m.Type() != TypeRequest || m.Method != "_vendor/thing" {
		t.Fatalf("unexpected message: %+v", m)
	}
}

func TestEncodeRequest_NotificationOmitsID(t *testing.T) {
	t.Parallel()

	frame, err := EncodeRequest(NewRequest(nil, "session/cancel", json.RawMessage(`{"sessionId":"s"}`)))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(frame, []byte(`"id"`)) {
		t.Fatalf("notification must not carry id: %s", frame)
	}
}

func TestEncodeRequest_RejectsInvalidParams(t *testing.T) {
	t.Parallel()

	if _, err := EncodeRequest(NewRequest(NewRequestID(1), "x", json.RawMessage(`{`))); err == nil {
		t.Fatalf("expected error for invalid params")
	}
}

func TestEncodeResponse_ErrorRoundTrip(t *testing.T) {
	t.Parallel()

	for _, code := range []ErrorCode{ErrorCodeParseError, ErrorCodeAuthRequired, ErrorCodeRequestCancelled, -32123, 1} {
		resp := NewErrorResponseFrom(NewRequestID("r"), NewError(code).WithData(map[string]any{"k": "v"}))
		frame, err := EncodeResponse(resp)
		if err != nil {
			t.Fatal(err)
		}
		m, err := Decode(frame)
		if err != nil {
			t.Fatalf("decode %s: %v", frame, err)
		}
		got := m.AsResponse()
		if got.Error == nil || got.Error.Code != code {
			t.Fatalf("code %d did not round-trip: %s", code, frame)
		}
		if got.Error.Code.Known() != code.Known() {
			t.Fatalf("known mismatch for %d", code)
		}
		if string(got.Error.Data) != `{"k":"v"}` {
			t.Fatalf("data mismatch: %s", got.Error.Data)
		}
	}
}

func TestEncodeResponse_NullIDForParseErrors(t *testing.T) {
	t.Parallel()

	frame, err := EncodeResponse(NewErrorResponse(nil, ErrorCodeParseError, "Parse error", nil))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(frame, []byte(`"id":null`)) {
		t.Fatalf("expected null id: %s", frame)
	}
}

func TestEncodeResponse_ResultVerbatim(t *testing.T) {
	t.Parallel()

	result := json.RawMessage(`{"b":[1,2,3],"a":1.000000000000000000001}`)
	frame, err := EncodeResponse(NewRawResultResponse(NewRequestID(9), result))
	if err != nil {
		t.Fatal(err)
	}
	m, err := Decode(frame)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(m.Result, result) {
		t.Fatalf("result changed: %s", m.Result)
	}
}
