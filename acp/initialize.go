package acp

// Implementation names and versions one side of the connection.
type Implementation struct {
	Name    string  `json:"name"`
	Title   *string `json:"title,omitempty"`
	Version string  `json:"version"`
	Meta    Meta    `json:"_meta,omitempty"`
}

// InitializeRequest opens a connection. The client states the newest
// protocol version it supports and what it can do.
type InitializeRequest struct {
	ProtocolVersion    ProtocolVersion    `json:"protocolVersion"`
	ClientCapabilities ClientCapabilities `json:"clientCapabilities"`
	ClientInfo         *Implementation    `json:"clientInfo,omitempty"`
	Meta               Meta               `json:"_meta,omitempty"`
}

// InitializeResponse carries the negotiated version. A zero ProtocolVersion
// returned by an Agent is replaced with the negotiated one before sending.
type InitializeResponse struct {
	ProtocolVersion   ProtocolVersion   `json:"protocolVersion"`
	AgentCapabilities AgentCapabilities `json:"agentCapabilities"`
	AuthMethods       []AuthMethod      `json:"authMethods"`
	AgentInfo         *Implementation   `json:"agentInfo,omitempty"`
	Meta              Meta              `json:"_meta,omitempty"`
}

// ClientCapabilities advertise which client methods the agent may call.
type ClientCapabilities struct {
	FS       FileSystemCapability `json:"fs"`
	Terminal bool                 `json:"terminal"`
	Meta     Meta                 `json:"_meta,omitempty"`
}

type FileSystemCapability struct {
	ReadTextFile  bool `json:"readTextFile"`
	WriteTextFile bool `json:"writeTextFile"`
	Meta          Meta `json:"_meta,omitempty"`
}

// AgentCapabilities advertise optional agent methods and prompt content.
type AgentCapabilities struct {
	LoadSession         bool                `json:"loadSession"`
	PromptCapabilities  PromptCapabilities  `json:"promptCapabilities"`
	McpCapabilities     McpCapabilities     `json:"mcpCapabilities"`
	SessionCapabilities SessionCapabilities `json:"sessionCapabilities"`
	Meta                Meta                `json:"_meta,omitempty"`
}

// PromptCapabilities list content types beyond text and resource links that
// the agent accepts in prompts.
type PromptCapabilities struct {
	Image           bool `json:"image"`
	Audio           bool `json:"audio"`
	EmbeddedContext bool `json:"embeddedContext"`
	Meta            Meta `json:"_meta,omitempty"`
}

type McpCapabilities struct {
	HTTP bool `json:"http"`
	SSE  bool `json:"sse"`
	Meta Meta `json:"_meta,omitempty"`
}

// SessionCapabilities mark optional session methods. A nil field means the
// method is unsupported.
type SessionCapabilities struct {
	List   *SessionListCapabilities   `json:"list,omitempty"`
	Fork   *SessionForkCapabilities   `json:"fork,omitempty"`
	Resume *SessionResumeCapabilities `json:"resume,omitempty"`
	Meta   Meta                       `json:"_meta,omitempty"`
}

type SessionListCapabilities struct {
	Meta Meta `json:"_meta,omitempty"`
}

type SessionForkCapabilities struct {
	Meta Meta `json:"_meta,omitempty"`
}

type SessionResumeCapabilities struct {
	Meta Meta `json:"_meta,omitempty"`
}

// AuthMethodID names an authentication method offered by the agent.
type AuthMethodID string

type AuthMethod struct {
	ID          AuthMethodID `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	Meta        Meta         `json:"_meta,omitempty"`
}

type AuthenticateRequest struct {
	MethodID AuthMethodID `json:"methodId"`
	Meta     Meta         `json:"_meta,omitempty"`
}

type AuthenticateResponse struct {
	Meta Meta `json:"_meta,omitempty"`
}
