package acp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Meta is the free-form "_meta" bag every payload may carry.
type Meta map[string]any

var errNoVariant = errors.New("no variant set")

// marshalJSON encodes v without HTML escaping so text content is written as
// the sender produced it.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// marshalTagged encodes v, which must encode as an object, with key:tag
// prepended as its first member.
func marshalTagged(key, tag string, v any) ([]byte, error) {
	body, err := marshalJSON(v)
	if err != nil {
		return nil, err
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("%s variant %q must encode as an object", key, tag)
	}
	var buf bytes.Buffer
	buf.Grow(len(body) + len(key) + len(tag) + 8)
	buf.WriteByte('{')
	k, _ := json.Marshal(key)
	t, _ := json.Marshal(tag)
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(t)
	if rest := bytes.TrimSpace(body[1:]); len(rest) > 0 && rest[0] != '}' {
		buf.WriteByte(',')
	}
	buf.Write(body[1:])
	return buf.Bytes(), nil
}

// peekTag reads the string discriminator key from an encoded object.
func peekTag(data []byte, key string) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", err
	}
	raw, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("missing %q discriminator", key)
	}
	var tag string
	if err := json.Unmarshal(raw, &tag); err != nil {
		return "", fmt.Errorf("%q discriminator must be a string: %w", key, err)
	}
	return tag, nil
}

// hasKey reports whether the encoded object has a member named key.
func hasKey(data []byte, key string) (bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false, err
	}
	_, ok := fields[key]
	return ok, nil
}
