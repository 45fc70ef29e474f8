package acp

// SessionID identifies a conversation between client and agent.
type SessionID string

type NewSessionRequest struct {
	Cwd        string      `json:"cwd"`
	McpServers []McpServer `json:"mcpServers"`
	Meta       Meta        `json:"_meta,omitempty"`
}

type NewSessionResponse struct {
	SessionID     SessionID             `json:"sessionId"`
	Modes         *SessionModeState     `json:"modes,omitempty"`
	Models        *SessionModelState    `json:"models,omitempty"`
	ConfigOptions []SessionConfigOption `json:"configOptions,omitempty"`
	Meta          Meta                  `json:"_meta,omitempty"`
}

// LoadSessionRequest resumes a previous session, replaying its history to the
// client as session/update notifications. Requires the loadSession capability.
type LoadSessionRequest struct {
	McpServers []McpServer `json:"mcpServers"`
	Cwd        string      `json:"cwd"`
	SessionID  SessionID   `json:"sessionId"`
	Meta       Meta        `json:"_meta,omitempty"`
}

type LoadSessionResponse struct {
	Modes         *SessionModeState     `json:"modes,omitempty"`
	Models        *SessionModelState    `json:"models,omitempty"`
	ConfigOptions []SessionConfigOption `json:"configOptions,omitempty"`
	Meta          Meta                  `json:"_meta,omitempty"`
}

type ListSessionsRequest struct {
	Cwd    *string `json:"cwd,omitempty"`
	Cursor *string `json:"cursor,omitempty"`
	Meta   Meta    `json:"_meta,omitempty"`
}

type ListSessionsResponse struct {
	Sessions   []SessionInfo `json:"sessions"`
	NextCursor *string       `json:"nextCursor,omitempty"`
	Meta       Meta          `json:"_meta,omitempty"`
}

type SessionInfo struct {
	SessionID SessionID `json:"sessionId"`
	Cwd       string    `json:"cwd"`
	Title     *string   `json:"title,omitempty"`
	UpdatedAt *string   `json:"updatedAt,omitempty"`
	Meta      Meta      `json:"_meta,omitempty"`
}

// ForkSessionRequest branches an existing session into a new one.
type ForkSessionRequest struct {
	SessionID  SessionID   `json:"sessionId"`
	Cwd        string      `json:"cwd"`
	McpServers []McpServer `json:"mcpServers,omitempty"`
	Meta       Meta        `json:"_meta,omitempty"`
}

type ForkSessionResponse struct {
	SessionID     SessionID             `json:"sessionId"`
	Modes         *SessionModeState     `json:"modes,omitempty"`
	Models        *SessionModelState    `json:"models,omitempty"`
	ConfigOptions []SessionConfigOption `json:"configOptions,omitempty"`
	Meta          Meta                  `json:"_meta,omitempty"`
}

// ResumeSessionRequest reattaches to a session without replaying history.
type ResumeSessionRequest struct {
	SessionID  SessionID   `json:"sessionId"`
	Cwd        string      `json:"cwd"`
	McpServers []McpServer `json:"mcpServers,omitempty"`
	Meta       Meta        `json:"_meta,omitempty"`
}

type ResumeSessionResponse struct {
	Modes         *SessionModeState     `json:"modes,omitempty"`
	Models        *SessionModelState    `json:"models,omitempty"`
	ConfigOptions []SessionConfigOption `json:"configOptions,omitempty"`
	Meta          Meta                  `json:"_meta,omitempty"`
}

// SessionModeID names a mode such as "ask" or "code".
type SessionModeID string

type SessionModeState struct {
	CurrentModeID  SessionModeID `json:"currentModeId"`
	AvailableModes []SessionMode `json:"availableModes"`
	Meta           Meta          `json:"_meta,omitempty"`
}

type SessionMode struct {
	ID          SessionModeID `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description,omitempty"`
	Meta        Meta          `json:"_meta,omitempty"`
}

type SetSessionModeRequest struct {
	SessionID SessionID     `json:"sessionId"`
	ModeID    SessionModeID `json:"modeId"`
	Meta      Meta          `json:"_meta,omitempty"`
}

type SetSessionModeResponse struct {
	Meta Meta `json:"_meta,omitempty"`
}

type ModelID string

type SessionModelState struct {
	CurrentModelID  ModelID     `json:"currentModelId"`
	AvailableModels []ModelInfo `json:"availableModels"`
	Meta            Meta        `json:"_meta,omitempty"`
}

type ModelInfo struct {
	ModelID     ModelID `json:"modelId"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Meta        Meta    `json:"_meta,omitempty"`
}

type SetSessionModelRequest struct {
	SessionID SessionID `json:"sessionId"`
	ModelID   ModelID   `json:"modelId"`
	Meta      Meta      `json:"_meta,omitempty"`
}

type SetSessionModelResponse struct {
	Meta Meta `json:"_meta,omitempty"`
}

// PromptRequest sends a user message. The agent streams progress as
// session/update notifications and answers once the turn ends.
type PromptRequest struct {
	SessionID SessionID      `json:"sessionId"`
	Prompt    []ContentBlock `json:"prompt"`
	Meta      Meta           `json:"_meta,omitempty"`
}

// StopReason says why a prompt turn ended.
type StopReason string

const (
	StopReasonEndTurn         StopReason = "end_turn"
	StopReasonMaxTokens       StopReason = "max_tokens"
	StopReasonMaxTurnRequests StopReason = "max_turn_requests"
	StopReasonRefusal         StopReason = "refusal"
	StopReasonCancelled       StopReason = "cancelled"
)

type PromptResponse struct {
	StopReason StopReason `json:"stopReason"`
	Meta       Meta       `json:"_meta,omitempty"`
}

// CancelNotification asks the agent to stop work on a session's current
// prompt turn.
type CancelNotification struct {
	SessionID SessionID `json:"sessionId"`
	Meta      Meta      `json:"_meta,omitempty"`
}
