package acp

import (
	"bytes"
	"fmt"
	"strconv"
)

// ProtocolVersion is the major protocol version negotiated during
// initialize. Only breaking changes bump it.
type ProtocolVersion uint16

const (
	// ProtocolVersion0 is what every legacy string-typed version decodes to.
	ProtocolVersion0 ProtocolVersion = 0
	ProtocolVersion1 ProtocolVersion = 1

	// LatestProtocolVersion is the newest version this package speaks.
	LatestProtocolVersion = ProtocolVersion1
)

// NegotiateVersion picks the version to answer an initialize request with:
// the requested one if supported, otherwise the latest this side knows.
func NegotiateVersion(requested ProtocolVersion) ProtocolVersion {
	return min(requested, LatestProtocolVersion)
}

func (v ProtocolVersion) String() string { return strconv.FormatUint(uint64(v), 10) }

// UnmarshalJSON accepts an unsigned integer up to 65535. Early drafts used
// semver strings; any string decodes as version 0.
func (v *ProtocolVersion) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		*v = ProtocolVersion0
		return nil
	}
	n, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("protocol version must be a number or string, got: %s", string(data))
	}
	if n > 0xFFFF {
		return fmt.Errorf("protocol version %d is too large", n)
	}
	*v = ProtocolVersion(n)
	return nil
}
