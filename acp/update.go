package acp

import (
	"encoding/json"
	"fmt"
)

// SessionNotification streams progress for a session to the client.
type SessionNotification struct {
	SessionID SessionID     `json:"sessionId"`
	Update    SessionUpdate `json:"update"`
	Meta      Meta          `json:"_meta,omitempty"`
}

type AvailableCommandsUpdate struct {
	AvailableCommands []AvailableCommand `json:"availableCommands"`
	Meta              Meta               `json:"_meta,omitempty"`
}

// AvailableCommand is a slash command the user may invoke.
type AvailableCommand struct {
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Input       *UnstructuredCommandInput `json:"input"`
	Meta        Meta                      `json:"_meta,omitempty"`
}

// UnstructuredCommandInput accepts free text after the command name.
type UnstructuredCommandInput struct {
	Hint string `json:"hint"`
	Meta Meta   `json:"_meta,omitempty"`
}

type CurrentModeUpdate struct {
	CurrentModeID SessionModeID `json:"currentModeId"`
	Meta          Meta          `json:"_meta,omitempty"`
}

type ConfigOptionUpdate struct {
	ConfigOptions []SessionConfigOption `json:"configOptions"`
	Meta          Meta                  `json:"_meta,omitempty"`
}

// SessionInfoUpdate changes session metadata. Absent fields are unchanged;
// null clears them.
type SessionInfoUpdate struct {
	Title     MaybeUndefined[string] `json:"title,omitzero"`
	UpdatedAt MaybeUndefined[string] `json:"updatedAt,omitzero"`
	Meta      Meta                   `json:"_meta,omitempty"`
}

// Session update discriminators.
const (
	UpdateUserMessageChunk        = "user_message_chunk"
	UpdateAgentMessageChunk       = "agent_message_chunk"
	UpdateAgentThoughtChunk       = "agent_thought_chunk"
	UpdateToolCall                = "tool_call"
	UpdateToolCallUpdate          = "tool_call_update"
	UpdatePlan                    = "plan"
	UpdateAvailableCommandsUpdate = "available_commands_update"
	UpdateCurrentModeUpdate       = "current_mode_update"
	UpdateConfigOptionUpdate      = "config_option_update"
	UpdateSessionInfoUpdate       = "session_info_update"
)

// SessionUpdate is one streamed event. Exactly one field is set; the wire
// form is tagged by "sessionUpdate".
type SessionUpdate struct {
	UserMessageChunk        *ContentChunk
	AgentMessageChunk       *ContentChunk
	AgentThoughtChunk       *ContentChunk
	ToolCall                *ToolCall
	ToolCallUpdate          *ToolCallUpdate
	Plan                    *Plan
	AvailableCommandsUpdate *AvailableCommandsUpdate
	CurrentModeUpdate       *CurrentModeUpdate
	ConfigOptionUpdate      *ConfigOptionUpdate
	SessionInfoUpdate       *SessionInfoUpdate
}

// AgentMessageText is shorthand for an agent message chunk of plain text.
func AgentMessageText(text string) SessionUpdate {
	return SessionUpdate{AgentMessageChunk: &ContentChunk{Content: TextBlock(text)}}
}

// AgentThoughtText is shorthand for an agent thought chunk of plain text.
func AgentThoughtText(text string) SessionUpdate {
	return SessionUpdate{AgentThoughtChunk: &ContentChunk{Content: TextBlock(text)}}
}

// UserMessageText is shorthand for a user message chunk of plain text.
func UserMessageText(text string) SessionUpdate {
	return SessionUpdate{UserMessageChunk: &ContentChunk{Content: TextBlock(text)}}
}

// variant returns the discriminator and payload of the set field.
func (u SessionUpdate) variant() (string, any) {
	switch {
	case u.UserMessageChunk != nil:
		return UpdateUserMessageChunk, u.UserMessageChunk
	case u.AgentMessageChunk != nil:
		return UpdateAgentMessageChunk, u.AgentMessageChunk
	case u.AgentThoughtChunk != nil:
		return UpdateAgentThoughtChunk, u.AgentThoughtChunk
	case u.ToolCall != nil:
		return UpdateToolCall, u.ToolCall
	case u.ToolCallUpdate != nil:
		return UpdateToolCallUpdate, u.ToolCallUpdate
	case u.Plan != nil:
		return UpdatePlan, u.Plan
	case u.AvailableCommandsUpdate != nil:
		return UpdateAvailableCommandsUpdate, u.AvailableCommandsUpdate
	case u.CurrentModeUpdate != nil:
		return UpdateCurrentModeUpdate, u.CurrentModeUpdate
	case u.ConfigOptionUpdate != nil:
		return UpdateConfigOptionUpdate, u.ConfigOptionUpdate
	case u.SessionInfoUpdate != nil:
		return UpdateSessionInfoUpdate, u.SessionInfoUpdate
	}
	return "", nil
}

// Kind returns the "sessionUpdate" discriminator, or "" if nothing is set.
func (u SessionUpdate) Kind() string {
	kind, _ := u.variant()
	return kind
}

func (u SessionUpdate) MarshalJSON() ([]byte, error) {
	kind, v := u.variant()
	if v == nil {
		return nil, fmt.Errorf("session update: %w", errNoVariant)
	}
	return marshalTagged("sessionUpdate", kind, v)
}

func (u *SessionUpdate) UnmarshalJSON(data []byte) error {
	tag, err := peekTag(data, "sessionUpdate")
	if err != nil {
		return fmt.Errorf("session update: %w", err)
	}
	*u = SessionUpdate{}
	var dst any
	switch tag {
	case UpdateUserMessageChunk:
		u.UserMessageChunk = new(ContentChunk)
		dst = u.UserMessageChunk
	case UpdateAgentMessageChunk:
		u.AgentMessageChunk = new(ContentChunk)
		dst = u.AgentMessageChunk
	case UpdateAgentThoughtChunk:
		u.AgentThoughtChunk = new(ContentChunk)
		dst = u.AgentThoughtChunk
	case UpdateToolCall:
		u.ToolCall = new(ToolCall)
		dst = u.ToolCall
	case UpdateToolCallUpdate:
		u.ToolCallUpdate = new(ToolCallUpdate)
		dst = u.ToolCallUpdate
	case UpdatePlan:
		u.Plan = new(Plan)
		dst = u.Plan
	case UpdateAvailableCommandsUpdate:
		u.AvailableCommandsUpdate = new(AvailableCommandsUpdate)
		dst = u.AvailableCommandsUpdate
	case UpdateCurrentModeUpdate:
		u.CurrentModeUpdate = new(CurrentModeUpdate)
		dst = u.CurrentModeUpdate
	case UpdateConfigOptionUpdate:
		u.ConfigOptionUpdate = new(ConfigOptionUpdate)
		dst = u.ConfigOptionUpdate
	case UpdateSessionInfoUpdate:
		u.SessionInfoUpdate = new(SessionInfoUpdate)
		dst = u.SessionInfoUpdate
	default:
		return fmt.Errorf("session update: unknown kind %q", tag)
	}
	return json.Unmarshal(data, dst)
}
