package acp

import (
	"context"
	"encoding/json"
)

// Agent is implemented by the AI side and called by acpconn for every method
// the client sends. ClientSideConnection also implements it, turning each
// call into a request to the remote agent.
//
// Return a *Error (possibly wrapped) to send a specific error code; any other
// error reaches the peer as InternalError.
type Agent interface {
	Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResponse, error)
	Authenticate(ctx context.Context, req *AuthenticateRequest) (*AuthenticateResponse, error)
	NewSession(ctx context.Context, req *NewSessionRequest) (*NewSessionResponse, error)
	LoadSession(ctx context.Context, req *LoadSessionRequest) (*LoadSessionResponse, error)
	ListSessions(ctx context.Context, req *ListSessionsRequest) (*ListSessionsResponse, error)
	ForkSession(ctx context.Context, req *ForkSessionRequest) (*ForkSessionResponse, error)
	ResumeSession(ctx context.Context, req *ResumeSessionRequest) (*ResumeSessionResponse, error)
	SetSessionMode(ctx context.Context, req *SetSessionModeRequest) (*SetSessionModeResponse, error)
	SetSessionModel(ctx context.Context, req *SetSessionModelRequest) (*SetSessionModelResponse, error)
	SetSessionConfigOption(ctx context.Context, req *SetSessionConfigOptionRequest) (*SetSessionConfigOptionResponse, error)
	Prompt(ctx context.Context, req *PromptRequest) (*PromptResponse, error)
	Cancel(ctx context.Context, n *CancelNotification) error

	ExtMethod(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error)
	ExtNotification(ctx context.Context, method string, params json.RawMessage) error
}

// UnimplementedAgent answers every method with MethodNotFound. Embed it to
// implement only the methods an agent supports.
type UnimplementedAgent struct{}

func (UnimplementedAgent) Initialize(context.Context, *InitializeRequest) (*InitializeResponse, error) {
	return nil, MethodNotFound(MethodInitialize)
}

func (UnimplementedAgent) Authenticate(context.Context, *AuthenticateRequest) (*AuthenticateResponse, error) {
	return nil, MethodNotFound(MethodAuthenticate)
}

func (UnimplementedAgent) NewSession(context.Context, *NewSessionRequest) (*NewSessionResponse, error) {
	return nil, MethodNotFound(MethodSessionNew)
}

func (UnimplementedAgent) LoadSession(context.Context, *LoadSessionRequest) (*LoadSessionResponse, error) {
	return nil, MethodNotFound(MethodSessionLoad)
}

func (UnimplementedAgent) ListSessions(context.Context, *ListSessionsRequest) (*ListSessionsResponse, error) {
	return nil, MethodNotFound(MethodSessionList)
}

func (UnimplementedAgent) ForkSession(context.Context, *ForkSessionRequest) (*ForkSessionResponse, error) {
	return nil, MethodNotFound(MethodSessionFork)
}

func (UnimplementedAgent) ResumeSession(context.Context, *ResumeSessionRequest) (*ResumeSessionResponse, error) {
	return nil, MethodNotFound(MethodSessionResume)
}

func (UnimplementedAgent) SetSessionMode(context.Context, *SetSessionModeRequest) (*SetSessionModeResponse, error) {
	return nil, MethodNotFound(MethodSessionSetMode)
}

func (UnimplementedAgent) SetSessionModel(context.Context, *SetSessionModelRequest) (*SetSessionModelResponse, error) {
	return nil, MethodNotFound(MethodSessionSetModel)
}

func (UnimplementedAgent) SetSessionConfigOption(context.Context, *SetSessionConfigOptionRequest) (*SetSessionConfigOptionResponse, error) {
	return nil, MethodNotFound(MethodSessionSetConfigOption)
}

func (UnimplementedAgent) Prompt(context.Context, *PromptRequest) (*PromptResponse, error) {
	return nil, MethodNotFound(MethodSessionPrompt)
}

func (UnimplementedAgent) Cancel(context.Context, *CancelNotification) error { return nil }

func (UnimplementedAgent) ExtMethod(_ context.Context, method string, _ json.RawMessage) (json.RawMessage, error) {
	return nil, MethodNotFound(method)
}

func (UnimplementedAgent) ExtNotification(context.Context, string, json.RawMessage) error {
	return nil
}
