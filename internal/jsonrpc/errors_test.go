package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestErrorCode_OpenSpaceRoundTrip(t *testing.T) {
	t.Parallel()

	in := &Error{Code: -32123, Message: "vendor specific"}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out Error
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out.Code != -32123 {
		t.Fatalf("expected -32123, got %d", out.Code)
	}
	if out.Code.Known() {
		t.Fatalf("-32123 must not be a known code")
	}
	if out.Code.String() != "Unknown error" {
		t.Fatalf("unexpected label %q", out.Code.String())
	}
}

func TestErrorCode_RejectsNonInteger(t *testing.T) {
	t.Parallel()

	var c ErrorCode
	if err := json.Unmarshal([]byte(`"x"`), &c); err == nil {
		t.Fatalf("expected error")
	}
	if err := json.Unmarshal([]byte(`4294967296`), &c); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestInternalErrorFrom_CarriesDescription(t *testing.T) {
	t.Parallel()

	e := InternalErrorFrom(fmt.Errorf("disk on fire"))
	if e.Code != ErrorCodeInternalError {
		t.Fatalf("unexpected code %d", e.Code)
	}
	if string(e.Data) != `"disk on fire"` {
		t.Fatalf("unexpected data %s", e.Data)
	}
}

func TestInvalidParamsFrom_CarriesDecoderMessage(t *testing.T) {
	t.Parallel()

	var v struct{ N int }
	decodeErr := json.Unmarshal([]byte(`{"N":"x"}`), &v)
	e := InvalidParamsFrom(decodeErr)
	if e.Code != ErrorCodeInvalidParams {
		t.Fatalf("unexpected code %d", e.Code)
	}
	var msg string
	if err := json.Unmarshal(e.Data, &msg); err != nil || msg != decodeErr.Error() {
		t.Fatalf("unexpected data %s", e.Data)
	}
}

func TestAsError_UnwrapsStructuredErrors(t *testing.T) {
	t.Parallel()

	auth := NewError(ErrorCodeAuthRequired)
	wrapped := fmt.Errorf("calling agent: %w", auth)
	if got := AsError(wrapped); got != auth {
		t.Fatalf("expected the wrapped error back, got %+v", got)
	}
	if !errors.Is(wrapped, NewError(ErrorCodeAuthRequired)) {
		t.Fatalf("errors.Is should match by code")
	}
	if got := AsError(errors.New("boom")); got.Code != ErrorCodeInternalError {
		t.Fatalf("plain errors should become internal errors, got %d", got.Code)
	}
	if AsError(nil) != nil {
		t.Fatalf("nil error should stay nil")
	}
}

func TestError_Message(t *testing.T) {
	t.Parallel()

	e := &Error{Code: 5}
	if e.Error() != "5" {
		t.Fatalf("unexpected %q", e.Error())
	}
	e = NewError(ErrorCodeResourceNotFound).WithData(map[string]string{"uri": "file:///a"})
	if e.Error() != `Resource not found: {"uri":"file:///a"}` {
		t.Fatalf("unexpected %q", e.Error())
	}
}
