package acp

import (
	"encoding/json"
	"fmt"
)

// ToolCallID identifies a tool call within a session.
type ToolCallID string

// ToolKind lets clients pick icons and presentation for a tool call.
type ToolKind string

const (
	ToolKindRead       ToolKind = "read"
	ToolKindEdit       ToolKind = "edit"
	ToolKindDelete     ToolKind = "delete"
	ToolKindMove       ToolKind = "move"
	ToolKindSearch     ToolKind = "search"
	ToolKindExecute    ToolKind = "execute"
	ToolKindThink      ToolKind = "think"
	ToolKindFetch      ToolKind = "fetch"
	ToolKindSwitchMode ToolKind = "switch_mode"
	ToolKindOther      ToolKind = "other"
)

type ToolCallStatus string

const (
	ToolCallStatusPending    ToolCallStatus = "pending"
	ToolCallStatusInProgress ToolCallStatus = "in_progress"
	ToolCallStatusCompleted  ToolCallStatus = "completed"
	ToolCallStatusFailed     ToolCallStatus = "failed"
)

// ToolCall announces a tool invocation the agent is making.
type ToolCall struct {
	ToolCallID ToolCallID         `json:"toolCallId"`
	Title      string             `json:"title"`
	Kind       ToolKind           `json:"kind,omitempty"`
	Status     ToolCallStatus     `json:"status,omitempty"`
	Content    []ToolCallContent  `json:"content,omitempty"`
	Locations  []ToolCallLocation `json:"locations,omitempty"`
	RawInput   json.RawMessage    `json:"rawInput,omitempty"`
	RawOutput  json.RawMessage    `json:"rawOutput,omitempty"`
	Meta       Meta               `json:"_meta,omitempty"`
}

// ToolCallUpdate changes some fields of an earlier ToolCall. Absent fields
// are left as they were.
type ToolCallUpdate struct {
	ToolCallID ToolCallID                         `json:"toolCallId"`
	Title      MaybeUndefined[string]             `json:"title,omitzero"`
	Kind       MaybeUndefined[ToolKind]           `json:"kind,omitzero"`
	Status     MaybeUndefined[ToolCallStatus]     `json:"status,omitzero"`
	Content    MaybeUndefined[[]ToolCallContent]  `json:"content,omitzero"`
	Locations  MaybeUndefined[[]ToolCallLocation] `json:"locations,omitzero"`
	RawInput   MaybeUndefined[json.RawMessage]    `json:"rawInput,omitzero"`
	RawOutput  MaybeUndefined[json.RawMessage]    `json:"rawOutput,omitzero"`
	Meta       Meta                               `json:"_meta,omitempty"`
}

// ApplyTo folds the update into call.
func (u ToolCallUpdate) ApplyTo(call *ToolCall) {
	u.Title.Apply(&call.Title)
	u.Kind.Apply(&call.Kind)
	u.Status.Apply(&call.Status)
	u.Content.Apply(&call.Content)
	u.Locations.Apply(&call.Locations)
	u.RawInput.Apply(&call.RawInput)
	u.RawOutput.Apply(&call.RawOutput)
}

// ToolCallLocation is a file the tool call is touching, for follow-along UIs.
type ToolCallLocation struct {
	Path string  `json:"path"`
	Line *uint32 `json:"line,omitempty"`
	Meta Meta    `json:"_meta,omitempty"`
}

// Diff shows a file modification made by a tool call.
type Diff struct {
	Path    string  `json:"path"`
	OldText *string `json:"oldText"`
	NewText string  `json:"newText"`
	Meta    Meta    `json:"_meta,omitempty"`
}

// TerminalRef embeds a live terminal's output in a tool call.
type TerminalRef struct {
	TerminalID string `json:"terminalId"`
	Meta       Meta   `json:"_meta,omitempty"`
}

// ToolCallContent is produced by a tool call. Exactly one field is set; the
// wire form is tagged by "type".
type ToolCallContent struct {
	Content  *ContentChunk
	Diff     *Diff
	Terminal *TerminalRef
}

func (c ToolCallContent) MarshalJSON() ([]byte, error) {
	switch {
	case c.Content != nil:
		return marshalTagged("type", "content", c.Content)
	case c.Diff != nil:
		return marshalTagged("type", "diff", c.Diff)
	case c.Terminal != nil:
		return marshalTagged("type", "terminal", c.Terminal)
	}
	return nil, fmt.Errorf("tool call content: %w", errNoVariant)
}

func (c *ToolCallContent) UnmarshalJSON(data []byte) error {
	tag, err := peekTag(data, "type")
	if err != nil {
		return fmt.Errorf("tool call content: %w", err)
	}
	*c = ToolCallContent{}
	switch tag {
	case "content":
		c.Content = new(ContentChunk)
		return json.Unmarshal(data, c.Content)
	case "diff":
		c.Diff = new(Diff)
		return json.Unmarshal(data, c.Diff)
	case "terminal":
		c.Terminal = new(TerminalRef)
		return json.Unmarshal(data, c.Terminal)
	}
	return fmt.Errorf("tool call content: unknown type %q", tag)
}
