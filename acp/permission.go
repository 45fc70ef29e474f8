package acp

import (
	"encoding/json"
	"fmt"
)

type PermissionOptionID string

// PermissionOptionKind hints how the client should present an option.
type PermissionOptionKind string

const (
	PermissionOptionKindAllowOnce    PermissionOptionKind = "allow_once"
	PermissionOptionKindAllowAlways  PermissionOptionKind = "allow_always"
	PermissionOptionKindRejectOnce   PermissionOptionKind = "reject_once"
	PermissionOptionKindRejectAlways PermissionOptionKind = "reject_always"
)

type PermissionOption struct {
	OptionID PermissionOptionID   `json:"optionId"`
	Name     string               `json:"name"`
	Kind     PermissionOptionKind `json:"kind"`
	Meta     Meta                 `json:"_meta,omitempty"`
}

// RequestPermissionRequest asks the user to authorize a tool call.
type RequestPermissionRequest struct {
	SessionID SessionID          `json:"sessionId"`
	ToolCall  ToolCallUpdate     `json:"toolCall"`
	Options   []PermissionOption `json:"options"`
	Meta      Meta               `json:"_meta,omitempty"`
}

type RequestPermissionResponse struct {
	Outcome RequestPermissionOutcome `json:"outcome"`
	Meta    Meta                     `json:"_meta,omitempty"`
}

// SelectedPermissionOutcome records the option the user picked.
type SelectedPermissionOutcome struct {
	OptionID PermissionOptionID `json:"optionId"`
	Meta     Meta               `json:"_meta,omitempty"`
}

// RequestPermissionOutcome is either Cancelled or a selected option. The
// wire form is tagged by "outcome".
type RequestPermissionOutcome struct {
	Cancelled bool
	Selected  *SelectedPermissionOutcome
}

// CancelledPermission is the response every permission request of a
// cancelled prompt turn resolves to.
func CancelledPermission() *RequestPermissionResponse {
	return &RequestPermissionResponse{Outcome: RequestPermissionOutcome{Cancelled: true}}
}

// SelectedPermission answers with optionID.
func SelectedPermission(optionID PermissionOptionID) *RequestPermissionResponse {
	return &RequestPermissionResponse{Outcome: RequestPermissionOutcome{
		Selected: &SelectedPermissionOutcome{OptionID: optionID},
	}}
}

func (o RequestPermissionOutcome) MarshalJSON() ([]byte, error) {
	switch {
	case o.Selected != nil:
		return marshalTagged("outcome", "selected", o.Selected)
	case o.Cancelled:
		return []byte(`{"outcome":"cancelled"}`), nil
	}
	return nil, fmt.Errorf("permission outcome: %w", errNoVariant)
}

func (o *RequestPermissionOutcome) UnmarshalJSON(data []byte) error {
	tag, err := peekTag(data, "outcome")
	if err != nil {
		return fmt.Errorf("permission outcome: %w", err)
	}
	*o = RequestPermissionOutcome{}
	switch tag {
	case "cancelled":
		o.Cancelled = true
		return nil
	case "selected":
		o.Selected = new(SelectedPermissionOutcome)
		return json.Unmarshal(data, o.Selected)
	}
	return fmt.Errorf("permission outcome: unknown outcome %q", tag)
}
