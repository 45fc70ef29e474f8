package acpconn

import (
	"context"
	"encoding/json"

	"github.com/ggoodman/acp-go/acp"
	"github.com/ggoodman/acp-go/internal/turns"
	"github.com/ggoodman/acp-go/transport"
)

// AgentSideConnection is held by an agent. Inbound client requests are
// dispatched to the acp.Agent it was built with; its own methods call the
// remote client.
type AgentSideConnection struct {
	conn
	agent acp.Agent
}

var _ acp.Client = (*AgentSideConnection)(nil)

// NewAgentSideConnection binds agent to stream. Call Serve or Start to begin
// reading.
func NewAgentSideConnection(agent acp.Agent, stream transport.Stream, opts ...Option) *AgentSideConnection {
	cfg := newConfig(opts)
	d := newDispatcher(acp.AgentMethods, agent, cfg)
	c := &AgentSideConnection{agent: agent}
	c.register(d)
	c.conn = newConn(acp.SideAgent, stream, d, cfg)
	return c
}

func (c *AgentSideConnection) register(d *dispatcher) {
	a := c.agent
	handle(d, acp.MethodInitialize, func(ctx context.Context, req *acp.InitializeRequest) (*acp.InitializeResponse, error) {
		resp, err := a.Initialize(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp == nil {
			resp = &acp.InitializeResponse{}
		}
		if resp.ProtocolVersion == 0 {
			resp.ProtocolVersion = acp.NegotiateVersion(req.ProtocolVersion)
		}
		return resp, nil
	})
	handle(d, acp.MethodAuthenticate, a.Authenticate)
	handle(d, acp.MethodSessionNew, a.NewSession)
	handle(d, acp.MethodSessionLoad, a.LoadSession)
	handle(d, acp.MethodSessionList, a.ListSessions)
	handle(d, acp.MethodSessionFork, a.ForkSession)
	handle(d, acp.MethodSessionResume, a.ResumeSession)
	handle(d, acp.MethodSessionSetMode, a.SetSessionMode)
	handle(d, acp.MethodSessionSetModel, a.SetSessionModel)
	handle(d, acp.MethodSessionSetConfigOption, a.SetSessionConfigOption)
	handle(d, acp.MethodSessionPrompt, func(ctx context.Context, req *acp.PromptRequest) (*acp.PromptResponse, error) {
		ctx = withSession(ctx, req.SessionID)
		tctx, end := d.turns.BeginTurn(ctx, string(req.SessionID))
		defer end()

		resp, err := a.Prompt(tctx, req)
		if err != nil && turns.Cancelled(tctx) && isContextErr(err) {
			return &acp.PromptResponse{StopReason: acp.StopReasonCancelled}, nil
		}
		return resp, err
	})
	handleNotification(d, acp.MethodSessionCancel, func(ctx context.Context, n *acp.CancelNotification) error {
		ctx = withSession(ctx, n.SessionID)
		d.turns.Cancel(ctx, string(n.SessionID))
		return a.Cancel(ctx, n)
	})
}

// RequestPermission asks the client to authorize a tool call. Once the
// session is cancelled, pending and new requests resolve with the cancelled
// outcome without waiting for the client.
func (c *AgentSideConnection) RequestPermission(ctx context.Context, req *acp.RequestPermissionRequest) (*acp.RequestPermissionResponse, error) {
	ctx = withSession(ctx, req.SessionID)
	pctx, done, ok := c.turns.Track(ctx, string(req.SessionID))
	if !ok {
		c.log.DebugContext(ctx, "acpconn.request_permission.cancelled")
		return acp.CancelledPermission(), nil
	}
	defer done()

	resp, err := call[acp.RequestPermissionResponse](pctx, &c.conn, acp.MethodSessionRequestPermission, req)
	if turns.Cancelled(pctx) {
		c.log.DebugContext(ctx, "acpconn.request_permission.cancelled")
		return acp.CancelledPermission(), nil
	}
	return resp, err
}

func (c *AgentSideConnection) ReadTextFile(ctx context.Context, req *acp.ReadTextFileRequest) (*acp.ReadTextFileResponse, error) {
	return call[acp.ReadTextFileResponse](ctx, &c.conn, acp.MethodFSReadTextFile, req)
}

func (c *AgentSideConnection) WriteTextFile(ctx context.Context, req *acp.WriteTextFileRequest) (*acp.WriteTextFileResponse, error) {
	return call[acp.WriteTextFileResponse](ctx, &c.conn, acp.MethodFSWriteTextFile, req)
}

func (c *AgentSideConnection) CreateTerminal(ctx context.Context, req *acp.CreateTerminalRequest) (*acp.CreateTerminalResponse, error) {
	return call[acp.CreateTerminalResponse](ctx, &c.conn, acp.MethodTerminalCreate, req)
}

func (c *AgentSideConnection) TerminalOutput(ctx context.Context, req *acp.TerminalOutputRequest) (*acp.TerminalOutputResponse, error) {
	return call[acp.TerminalOutputResponse](ctx, &c.conn, acp.MethodTerminalOutput, req)
}

func (c *AgentSideConnection) ReleaseTerminal(ctx context.Context, req *acp.ReleaseTerminalRequest) (*acp.ReleaseTerminalResponse, error) {
	return call[acp.ReleaseTerminalResponse](ctx, &c.conn, acp.MethodTerminalRelease, req)
}

func (c *AgentSideConnection) WaitForTerminalExit(ctx context.Context, req *acp.WaitForTerminalExitRequest) (*acp.WaitForTerminalExitResponse, error) {
	return call[acp.WaitForTerminalExitResponse](ctx, &c.conn, acp.MethodTerminalWaitForExit, req)
}

func (c *AgentSideConnection) KillTerminal(ctx context.Context, req *acp.KillTerminalCommandRequest) (*acp.KillTerminalCommandResponse, error) {
	return call[acp.KillTerminalCommandResponse](ctx, &c.conn, acp.MethodTerminalKill, req)
}

// SessionUpdate streams a progress notification to the client.
func (c *AgentSideConnection) SessionUpdate(ctx context.Context, n *acp.SessionNotification) error {
	return c.notify(ctx, acp.MethodSessionUpdate, n)
}

// ExtMethod calls a method outside the registry. params and the result are
// passed through byte for byte.
func (c *AgentSideConnection) ExtMethod(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	return c.extMethod(ctx, method, params)
}

func (c *AgentSideConnection) ExtNotification(ctx context.Context, method string, params json.RawMessage) error {
	return c.extNotification(ctx, method, params)
}

// SessionCancelled reports whether the client has cancelled sessionID's
// current turn. Agents can poll it between steps.
func (c *AgentSideConnection) SessionCancelled(sessionID acp.SessionID) bool {
	return c.turns.IsCancelled(string(sessionID))
}
