package acp

import (
	"context"
	"encoding/json"
)

// Client is implemented by the editor side and called by acpconn for every
// method the agent sends. AgentSideConnection also implements it, turning
// each call into a request to the remote client.
type Client interface {
	RequestPermission(ctx context.Context, req *RequestPermissionRequest) (*RequestPermissionResponse, error)
	ReadTextFile(ctx context.Context, req *ReadTextFileRequest) (*ReadTextFileResponse, error)
	WriteTextFile(ctx context.Context, req *WriteTextFileRequest) (*WriteTextFileResponse, error)
	CreateTerminal(ctx context.Context, req *CreateTerminalRequest) (*CreateTerminalResponse, error)
	TerminalOutput(ctx context.Context, req *TerminalOutputRequest) (*TerminalOutputResponse, error)
	ReleaseTerminal(ctx context.Context, req *ReleaseTerminalRequest) (*ReleaseTerminalResponse, error)
	WaitForTerminalExit(ctx context.Context, req *WaitForTerminalExitRequest) (*WaitForTerminalExitResponse, error)
	KillTerminal(ctx context.Context, req *KillTerminalCommandRequest) (*KillTerminalCommandResponse, error)
	SessionUpdate(ctx context.Context, n *SessionNotification) error

	ExtMethod(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error)
	ExtNotification(ctx context.Context, method string, params json.RawMessage) error
}

// UnimplementedClient answers every request with MethodNotFound and drops
// notifications.
type UnimplementedClient struct{}

func (UnimplementedClient) RequestPermission(context.Context, *RequestPermissionRequest) (*RequestPermissionResponse, error) {
	return nil, MethodNotFound(MethodSessionRequestPermission)
}

func (UnimplementedClient) ReadTextFile(context.Context, *ReadTextFileRequest) (*ReadTextFileResponse, error) {
	return nil, MethodNotFound(MethodFSReadTextFile)
}

func (UnimplementedClient) WriteTextFile(context.Context, *WriteTextFileRequest) (*WriteTextFileResponse, error) {
	return nil, MethodNotFound(MethodFSWriteTextFile)
}

func (UnimplementedClient) CreateTerminal(context.Context, *CreateTerminalRequest) (*CreateTerminalResponse, error) {
	return nil, MethodNotFound(MethodTerminalCreate)
}

func (UnimplementedClient) TerminalOutput(context.Context, *TerminalOutputRequest) (*TerminalOutputResponse, error) {
	return nil, MethodNotFound(MethodTerminalOutput)
}

func (UnimplementedClient) ReleaseTerminal(context.Context, *ReleaseTerminalRequest) (*ReleaseTerminalResponse, error) {
	return nil, MethodNotFound(MethodTerminalRelease)
}

func (UnimplementedClient) WaitForTerminalExit(context.Context, *WaitForTerminalExitRequest) (*WaitForTerminalExitResponse, error) {
	return nil, MethodNotFound(MethodTerminalWaitForExit)
}

func (UnimplementedClient) KillTerminal(context.Context, *KillTerminalCommandRequest) (*KillTerminalCommandResponse, error) {
	return nil, MethodNotFound(MethodTerminalKill)
}

func (UnimplementedClient) SessionUpdate(context.Context, *SessionNotification) error { return nil }

func (UnimplementedClient) ExtMethod(_ context.Context, method string, _ json.RawMessage) (json.RawMessage, error) {
	return nil, MethodNotFound(method)
}

func (UnimplementedClient) ExtNotification(context.Context, string, json.RawMessage) error {
	return nil
}
