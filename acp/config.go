package acp

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type SessionConfigID string
type SessionConfigValueID string
type SessionConfigGroupID string

// SessionConfigOptionCategory is a UI hint. Unknown categories decode as
// "other".
type SessionConfigOptionCategory string

const (
	SessionConfigCategoryMode         SessionConfigOptionCategory = "mode"
	SessionConfigCategoryModel        SessionConfigOptionCategory = "model"
	SessionConfigCategoryThoughtLevel SessionConfigOptionCategory = "thought_level"
	SessionConfigCategoryOther        SessionConfigOptionCategory = "other"
)

func (c *SessionConfigOptionCategory) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch cat := SessionConfigOptionCategory(s); cat {
	case SessionConfigCategoryMode, SessionConfigCategoryModel, SessionConfigCategoryThoughtLevel:
		*c = cat
	default:
		*c = SessionConfigCategoryOther
	}
	return nil
}

type SessionConfigSelectOption struct {
	Value       SessionConfigValueID `json:"value"`
	Name        string               `json:"name"`
	Description *string              `json:"description,omitempty"`
	Meta        Meta                 `json:"_meta,omitempty"`
}

type SessionConfigSelectGroup struct {
	Group   SessionConfigGroupID        `json:"group"`
	Name    string                      `json:"name"`
	Options []SessionConfigSelectOption `json:"options"`
	Meta    Meta                        `json:"_meta,omitempty"`
}

// SessionConfigSelectOptions is either a flat list or a list of groups. Set
// at most one field; the wire form is an untagged array.
type SessionConfigSelectOptions struct {
	Ungrouped []SessionConfigSelectOption
	Grouped   []SessionConfigSelectGroup
}

func (o SessionConfigSelectOptions) MarshalJSON() ([]byte, error) {
	if o.Grouped != nil {
		return marshalJSON(o.Grouped)
	}
	return marshalJSON(nonNil(o.Ungrouped))
}

func (o *SessionConfigSelectOptions) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*o = SessionConfigSelectOptions{}
	if len(items) > 0 {
		grouped, err := hasKey(items[0], "group")
		if err != nil {
			return err
		}
		if grouped {
			return json.Unmarshal(data, &o.Grouped)
		}
	}
	return json.Unmarshal(data, &o.Ungrouped)
}

// SessionConfigSelect is a single-choice selector.
type SessionConfigSelect struct {
	CurrentValue SessionConfigValueID       `json:"currentValue"`
	Options      SessionConfigSelectOptions `json:"options"`
}

// SessionConfigOption is one configurable setting of a session. The selector
// kind is flattened into the option object and tagged by "type"; select is
// the only kind.
type SessionConfigOption struct {
	ID          SessionConfigID             `json:"id"`
	Name        string                      `json:"name"`
	Description *string                     `json:"description,omitempty"`
	Category    SessionConfigOptionCategory `json:"category,omitempty"`
	Select      *SessionConfigSelect        `json:"-"`
	Meta        Meta                        `json:"_meta,omitempty"`
}

func (o SessionConfigOption) MarshalJSON() ([]byte, error) {
	if o.Select == nil {
		return nil, fmt.Errorf("session config option %q: %w", o.ID, errNoVariant)
	}
	type base SessionConfigOption
	head, err := marshalJSON(base(o))
	if err != nil {
		return nil, err
	}
	kind, err := marshalTagged("type", "select", o.Select)
	if err != nil {
		return nil, err
	}
	return mergeObjects(head, kind), nil
}

func (o *SessionConfigOption) UnmarshalJSON(data []byte) error {
	type base SessionConfigOption
	var b base
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	tag, err := peekTag(data, "type")
	if err != nil {
		return fmt.Errorf("session config option: %w", err)
	}
	if tag != "select" {
		return fmt.Errorf("session config option: unknown type %q", tag)
	}
	b.Select = new(SessionConfigSelect)
	if err := json.Unmarshal(data, b.Select); err != nil {
		return err
	}
	*o = SessionConfigOption(b)
	return nil
}

// mergeObjects joins the members of two encoded objects.
func mergeObjects(a, b []byte) []byte {
	a = bytes.TrimSpace(a)
	b = bytes.TrimSpace(b)
	if len(a) <= 2 {
		return b
	}
	if len(b) <= 2 {
		return a
	}
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a[:len(a)-1]...)
	out = append(out, ',')
	return append(out, b[1:]...)
}

type SetSessionConfigOptionRequest struct {
	SessionID SessionID            `json:"sessionId"`
	ConfigID  SessionConfigID      `json:"configId"`
	Value     SessionConfigValueID `json:"value"`
	Meta      Meta                 `json:"_meta,omitempty"`
}

// SetSessionConfigOptionResponse returns every option, since changing one
// may change others.
type SetSessionConfigOptionResponse struct {
	ConfigOptions []SessionConfigOption `json:"configOptions"`
	Meta          Meta                  `json:"_meta,omitempty"`
}
