package acp

import (
	"encoding/json"
	"testing"
)

func TestProtocolVersion_DecodesIntegers(t *testing.T) {
	var v ProtocolVersion
	if err := json.Unmarshal([]byte("1"), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v != ProtocolVersion1 {
		t.Fatalf("got %d, want 1", v)
	}
	if err := json.Unmarshal([]byte("0"), &v); err != nil || v != ProtocolVersion0 {
		t.Fatalf("got %d, %v; want 0", v, err)
	}
}

func TestProtocolVersion_LegacyStringIsV0(t *testing.T) {
	v := ProtocolVersion(7)
	if err := json.Unmarshal([]byte(`"1.0.0"`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v != ProtocolVersion0 {
		t.Fatalf("got %d, want 0", v)
	}
}

func TestProtocolVersion_RejectsOutOfRange(t *testing.T) {
	for _, in := range []string{"100000", "-1", "1.5", "true"} {
		var v ProtocolVersion
		if err := json.Unmarshal([]byte(in), &v); err == nil {
			t.Errorf("%s: expected error, got %d", in, v)
		}
	}
	var v ProtocolVersion
	if err := json.Unmarshal([]byte("65535"), &v); err != nil || v != 65535 {
		t.Fatalf("65535: got %d, %v", v, err)
	}
}

func TestProtocolVersion_EncodesAsNumber(t *testing.T) {
	b, err := json.Marshal(InitializeRequest{ProtocolVersion: LatestProtocolVersion})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["protocolVersion"] != float64(1) {
		t.Fatalf("protocolVersion = %#v", m["protocolVersion"])
	}
}

func TestNegotiateVersion(t *testing.T) {
	if got := NegotiateVersion(ProtocolVersion0); got != ProtocolVersion0 {
		t.Fatalf("v0: got %d", got)
	}
	if got := NegotiateVersion(LatestProtocolVersion); got != LatestProtocolVersion {
		t.Fatalf("latest: got %d", got)
	}
	if got := NegotiateVersion(42); got != LatestProtocolVersion {
		t.Fatalf("future: got %d", got)
	}
}
