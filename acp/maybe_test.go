package acp

import (
	"encoding/json"
	"testing"
)

func TestMaybeUndefined_ThreeStatesOnTheWire(t *testing.T) {
	cases := []struct {
		name string
		in   SessionInfoUpdate
		want string
	}{
		{"absent", SessionInfoUpdate{}, `{}`},
		{"null", SessionInfoUpdate{Title: Null[string]()}, `{"title":null}`},
		{"value", SessionInfoUpdate{Title: Value("Refactor"), UpdatedAt: Value("2025-01-01T00:00:00Z")}, `{"title":"Refactor","updatedAt":"2025-01-01T00:00:00Z"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := json.Marshal(tc.in)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(b) != tc.want {
				t.Fatalf("got %s, want %s", b, tc.want)
			}
		})
	}
}

func TestMaybeUndefined_DecodeDistinguishesAbsentFromNull(t *testing.T) {
	var u SessionInfoUpdate
	if err := json.Unmarshal([]byte(`{"title":null}`), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !u.Title.IsNull() {
		t.Fatalf("title should be null")
	}
	if !u.UpdatedAt.IsUndefined() {
		t.Fatalf("updatedAt should be undefined")
	}

	u = SessionInfoUpdate{}
	if err := json.Unmarshal([]byte(`{"updatedAt":"yesterday"}`), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := u.UpdatedAt.Get(); !ok || v != "yesterday" {
		t.Fatalf("updatedAt = %q, %v", v, ok)
	}
}

func TestToolCallUpdate_ApplyTo(t *testing.T) {
	call := ToolCall{
		ToolCallID: "call_1",
		Title:      "Reading file",
		Kind:       ToolKindRead,
		Status:     ToolCallStatusPending,
		RawInput:   json.RawMessage(`{"path":"a.go"}`),
	}
	ToolCallUpdate{
		ToolCallID: "call_1",
		Status:     Value(ToolCallStatusCompleted),
		RawInput:   Null[json.RawMessage](),
	}.ApplyTo(&call)

	if call.Title != "Reading file" || call.Kind != ToolKindRead {
		t.Fatalf("absent fields changed: %+v", call)
	}
	if call.Status != ToolCallStatusCompleted {
		t.Fatalf("status = %q", call.Status)
	}
	if call.RawInput != nil {
		t.Fatalf("rawInput should be cleared, got %s", call.RawInput)
	}
}
