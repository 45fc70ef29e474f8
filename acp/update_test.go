package acp

import (
	"encoding/json"
	"testing"
)

func TestSessionUpdate_TaggedBySessionUpdate(t *testing.T) {
	n := SessionNotification{SessionID: "sess_1", Update: AgentMessageText("hello")}
	b, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"sessionId":"sess_1","update":{"sessionUpdate":"agent_message_chunk","content":{"type":"text","text":"hello"}}}`
	if string(b) != want {
		t.Fatalf("got %s\nwant %s", b, want)
	}
}

func TestSessionUpdate_DecodesEveryKind(t *testing.T) {
	frames := map[string]string{
		UpdateUserMessageChunk:        `{"sessionUpdate":"user_message_chunk","content":{"type":"text","text":"q"}}`,
		UpdateAgentMessageChunk:       `{"sessionUpdate":"agent_message_chunk","content":{"type":"text","text":"a"}}`,
		UpdateAgentThoughtChunk:       `{"sessionUpdate":"agent_thought_chunk","content":{"type":"text","text":"t"}}`,
		UpdateToolCall:                `{"sessionUpdate":"tool_call","toolCallId":"c1","title":"Read","kind":"read","status":"pending"}`,
		UpdateToolCallUpdate:          `{"sessionUpdate":"tool_call_update","toolCallId":"c1","status":"completed"}`,
		UpdatePlan:                    `{"sessionUpdate":"plan","entries":[{"content":"step","priority":"high","status":"pending"}]}`,
		UpdateAvailableCommandsUpdate: `{"sessionUpdate":"available_commands_update","availableCommands":[{"name":"web","description":"Search","input":{"hint":"query"}}]}`,
		UpdateCurrentModeUpdate:       `{"sessionUpdate":"current_mode_update","currentModeId":"code"}`,
		UpdateConfigOptionUpdate:      `{"sessionUpdate":"config_option_update","configOptions":[]}`,
		UpdateSessionInfoUpdate:       `{"sessionUpdate":"session_info_update","title":null}`,
	}
	for kind, frame := range frames {
		t.Run(kind, func(t *testing.T) {
			var u SessionUpdate
			if err := json.Unmarshal([]byte(frame), &u); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if u.Kind() != kind {
				t.Fatalf("kind = %q", u.Kind())
			}
			b, err := json.Marshal(u)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(b) != frame {
				t.Fatalf("re-encode mismatch:\n got %s\nwant %s", b, frame)
			}
		})
	}
}

func TestSessionUpdate_UnknownKindFails(t *testing.T) {
	var u SessionUpdate
	if err := json.Unmarshal([]byte(`{"sessionUpdate":"telepathy"}`), &u); err == nil {
		t.Fatal("expected error")
	}
}

func TestSessionNotification_Validate(t *testing.T) {
	var n SessionNotification
	if err := json.Unmarshal([]byte(`{"sessionId":"s"}`), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := n.Validate(); err == nil {
		t.Fatal("expected missing update to fail validation")
	}
}
