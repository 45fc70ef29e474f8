package acp

import (
	"encoding/json"
	"fmt"
)

type EnvVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Meta  Meta   `json:"_meta,omitempty"`
}

type HTTPHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Meta  Meta   `json:"_meta,omitempty"`
}

// McpServerStdio launches an MCP server as a subprocess.
type McpServerStdio struct {
	Name    string        `json:"name"`
	Command string        `json:"command"`
	Args    []string      `json:"args"`
	Env     []EnvVariable `json:"env"`
	Meta    Meta          `json:"_meta,omitempty"`
}

// McpServerHTTP connects to an MCP server over streamable HTTP.
type McpServerHTTP struct {
	Name    string       `json:"name"`
	URL     string       `json:"url"`
	Headers []HTTPHeader `json:"headers"`
	Meta    Meta         `json:"_meta,omitempty"`
}

// McpServerSSE connects to an MCP server over server-sent events.
type McpServerSSE struct {
	Name    string       `json:"name"`
	URL     string       `json:"url"`
	Headers []HTTPHeader `json:"headers"`
	Meta    Meta         `json:"_meta,omitempty"`
}

// McpServer describes an MCP server the agent should connect to. Exactly one
// field is set. HTTP and SSE are tagged by "type"; stdio has no tag.
type McpServer struct {
	Stdio *McpServerStdio
	HTTP  *McpServerHTTP
	SSE   *McpServerSSE
}

func (s McpServer) MarshalJSON() ([]byte, error) {
	switch {
	case s.HTTP != nil:
		return marshalTagged("type", "http", s.HTTP)
	case s.SSE != nil:
		return marshalTagged("type", "sse", s.SSE)
	case s.Stdio != nil:
		return marshalJSON(s.Stdio)
	}
	return nil, fmt.Errorf("mcp server: %w", errNoVariant)
}

func (s *McpServer) UnmarshalJSON(data []byte) error {
	*s = McpServer{}
	tagged, err := hasKey(data, "type")
	if err != nil {
		return err
	}
	if !tagged {
		s.Stdio = new(McpServerStdio)
		return json.Unmarshal(data, s.Stdio)
	}
	tag, err := peekTag(data, "type")
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	switch tag {
	case "http":
		s.HTTP = new(McpServerHTTP)
		return json.Unmarshal(data, s.HTTP)
	case "sse":
		s.SSE = new(McpServerSSE)
		return json.Unmarshal(data, s.SSE)
	}
	return fmt.Errorf("mcp server: unknown type %q", tag)
}

// Name returns the configured server name regardless of variant.
func (s McpServer) Name() string {
	switch {
	case s.Stdio != nil:
		return s.Stdio.Name
	case s.HTTP != nil:
		return s.HTTP.Name
	case s.SSE != nil:
		return s.SSE.Name
	}
	return ""
}
