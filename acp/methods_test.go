package acp

import (
	"errors"
	"testing"
)

func TestRegistry_Lookup(t *testing.T) {
	info, ok := AgentMethods.Lookup(MethodSessionPrompt)
	if !ok {
		t.Fatal("session/prompt not registered")
	}
	if info.Kind != KindRequest || info.Side != SideAgent {
		t.Fatalf("unexpected info: %+v", info)
	}

	info, ok = AgentMethods.Lookup(MethodSessionCancel)
	if !ok || info.Kind != KindNotification {
		t.Fatalf("session/cancel should be a notification: %+v", info)
	}

	info, ok = ClientMethods.Lookup(MethodSessionUpdate)
	if !ok || info.Kind != KindNotification || info.Side != SideClient {
		t.Fatalf("session/update: %+v", info)
	}

	if _, ok := AgentMethods.Lookup("_zed/index"); ok {
		t.Fatal("extension method must not resolve")
	}
}

func TestRegistry_RolesAreDisjoint(t *testing.T) {
	for _, m := range AgentMethods.Methods() {
		if _, ok := ClientMethods.Lookup(m.Name); ok {
			t.Errorf("%s registered for both roles", m.Name)
		}
	}
	if n := len(AgentMethods.Methods()); n != 12 {
		t.Errorf("agent methods = %d, want 12", n)
	}
	if n := len(ClientMethods.Methods()); n != 9 {
		t.Errorf("client methods = %d, want 9", n)
	}
}

func TestRegistry_RequestsHaveResults(t *testing.T) {
	for _, reg := range []*Registry{AgentMethods, ClientMethods} {
		for _, m := range reg.Methods() {
			if m.Params == nil {
				t.Errorf("%s: missing params type", m.Name)
			}
			if (m.Kind == KindRequest) != (m.Result != nil) {
				t.Errorf("%s: kind %s with result %T", m.Name, m.Kind, m.Result)
			}
		}
	}
}

func TestValidate_MissingFields(t *testing.T) {
	cases := []Validator{
		&PromptRequest{},
		&PromptRequest{SessionID: "s", Prompt: []ContentBlock{{}}},
		&NewSessionRequest{},
		&NewSessionRequest{Cwd: "/w", McpServers: []McpServer{{}}},
		&RequestPermissionRequest{SessionID: "s"},
		&ReadTextFileRequest{SessionID: "s"},
		&WaitForTerminalExitRequest{SessionID: "s"},
		&CancelNotification{},
	}
	for _, v := range cases {
		err := v.Validate()
		if !errors.Is(err, ErrMissingField) {
			t.Errorf("%T: expected ErrMissingField, got %v", v, err)
		}
	}

	ok := &PromptRequest{SessionID: "s", Prompt: []ContentBlock{TextBlock("hi")}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid prompt rejected: %v", err)
	}
}
