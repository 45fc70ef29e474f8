package acp

import (
	"bytes"
	"encoding/json"
)

type maybeState uint8

const (
	maybeUndefined maybeState = iota
	maybeNull
	maybeValue
)

// MaybeUndefined distinguishes a field that is absent from one that is
// explicitly null. Partial updates use it: absent leaves the receiver's copy
// alone, null clears it.
//
// Declare fields with `json:",omitzero"` so the absent state is not written.
type MaybeUndefined[T any] struct {
	state maybeState
	value T
}

// Undefined returns the absent state. It equals the zero value.
func Undefined[T any]() MaybeUndefined[T] { return MaybeUndefined[T]{} }

// Null returns the explicit-null state.
func Null[T any]() MaybeUndefined[T] { return MaybeUndefined[T]{state: maybeNull} }

// Value wraps v.
func Value[T any](v T) MaybeUndefined[T] { return MaybeUndefined[T]{state: maybeValue, value: v} }

func (m MaybeUndefined[T]) IsUndefined() bool { return m.state == maybeUndefined }
func (m MaybeUndefined[T]) IsNull() bool      { return m.state == maybeNull }
func (m MaybeUndefined[T]) IsValue() bool     { return m.state == maybeValue }

// IsZero reports the absent state; encoding/json consults it for omitzero.
func (m MaybeUndefined[T]) IsZero() bool { return m.state == maybeUndefined }

// Get returns the value and whether one is present.
func (m MaybeUndefined[T]) Get() (T, bool) { return m.value, m.state == maybeValue }

// Apply writes the update into dst: a value replaces it, null resets it to
// T's zero value, and absent leaves it unchanged.
func (m MaybeUndefined[T]) Apply(dst *T) {
	switch m.state {
	case maybeValue:
		*dst = m.value
	case maybeNull:
		var zero T
		*dst = zero
	}
}

func (m MaybeUndefined[T]) MarshalJSON() ([]byte, error) {
	if m.state != maybeValue {
		return []byte("null"), nil
	}
	return marshalJSON(m.value)
}

func (m *MaybeUndefined[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = Null[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Value(v)
	return nil
}
