package acpconn

import (
	"context"
	"encoding/json"

	"github.com/ggoodman/acp-go/acp"
	"github.com/ggoodman/acp-go/internal/turns"
	"github.com/ggoodman/acp-go/transport"
)

// ClientSideConnection is held by an editor. Inbound agent requests are
// dispatched to the acp.Client it was built with; its own methods call the
// remote agent.
type ClientSideConnection struct {
	conn
	client acp.Client
}

var _ acp.Agent = (*ClientSideConnection)(nil)

// NewClientSideConnection binds client to stream. Call Serve or Start to
// begin reading.
func NewClientSideConnection(client acp.Client, stream transport.Stream, opts ...Option) *ClientSideConnection {
	cfg := newConfig(opts)
	d := newDispatcher(acp.ClientMethods, client, cfg)
	c := &ClientSideConnection{client: client}
	c.register(d)
	c.conn = newConn(acp.SideClient, stream, d, cfg)
	return c
}

func (c *ClientSideConnection) register(d *dispatcher) {
	cl := c.client
	handle(d, acp.MethodSessionRequestPermission, func(ctx context.Context, req *acp.RequestPermissionRequest) (*acp.RequestPermissionResponse, error) {
		ctx = withSession(ctx, req.SessionID)
		pctx, done, ok := d.turns.Track(ctx, string(req.SessionID))
		if !ok {
			return acp.CancelledPermission(), nil
		}
		defer done()

		resp, err := cl.RequestPermission(pctx, req)
		if err != nil && turns.Cancelled(pctx) {
			return acp.CancelledPermission(), nil
		}
		return resp, err
	})
	handle(d, acp.MethodFSReadTextFile, cl.ReadTextFile)
	handle(d, acp.MethodFSWriteTextFile, cl.WriteTextFile)
	handle(d, acp.MethodTerminalCreate, cl.CreateTerminal)
	handle(d, acp.MethodTerminalOutput, cl.TerminalOutput)
	handle(d, acp.MethodTerminalRelease, cl.ReleaseTerminal)
	handle(d, acp.MethodTerminalWaitForExit, cl.WaitForTerminalExit)
	handle(d, acp.MethodTerminalKill, cl.KillTerminal)
	handleNotification(d, acp.MethodSessionUpdate, func(ctx context.Context, n *acp.SessionNotification) error {
		return cl.SessionUpdate(withSession(ctx, n.SessionID), n)
	})
}

// Initialize negotiates the protocol version and exchanges capabilities.
func (c *ClientSideConnection) Initialize(ctx context.Context, req *acp.InitializeRequest) (*acp.InitializeResponse, error) {
	return call[acp.InitializeResponse](ctx, &c.conn, acp.MethodInitialize, req)
}

func (c *ClientSideConnection) Authenticate(ctx context.Context, req *acp.AuthenticateRequest) (*acp.AuthenticateResponse, error) {
	return call[acp.AuthenticateResponse](ctx, &c.conn, acp.MethodAuthenticate, req)
}

func (c *ClientSideConnection) NewSession(ctx context.Context, req *acp.NewSessionRequest) (*acp.NewSessionResponse, error) {
	return call[acp.NewSessionResponse](ctx, &c.conn, acp.MethodSessionNew, req)
}

func (c *ClientSideConnection) LoadSession(ctx context.Context, req *acp.LoadSessionRequest) (*acp.LoadSessionResponse, error) {
	return call[acp.LoadSessionResponse](ctx, &c.conn, acp.MethodSessionLoad, req)
}

func (c *ClientSideConnection) ListSessions(ctx context.Context, req *acp.ListSessionsRequest) (*acp.ListSessionsResponse, error) {
	return call[acp.ListSessionsResponse](ctx, &c.conn, acp.MethodSessionList, req)
}

func (c *ClientSideConnection) ForkSession(ctx context.Context, req *acp.ForkSessionRequest) (*acp.ForkSessionResponse, error) {
	return call[acp.ForkSessionResponse](ctx, &c.conn, acp.MethodSessionFork, req)
}

func (c *ClientSideConnection) ResumeSession(ctx context.Context, req *acp.ResumeSessionRequest) (*acp.ResumeSessionResponse, error) {
	return call[acp.ResumeSessionResponse](ctx, &c.conn, acp.MethodSessionResume, req)
}

func (c *ClientSideConnection) SetSessionMode(ctx context.Context, req *acp.SetSessionModeRequest) (*acp.SetSessionModeResponse, error) {
	return call[acp.SetSessionModeResponse](ctx, &c.conn, acp.MethodSessionSetMode, req)
}

func (c *ClientSideConnection) SetSessionModel(ctx context.Context, req *acp.SetSessionModelRequest) (*acp.SetSessionModelResponse, error) {
	return call[acp.SetSessionModelResponse](ctx, &c.conn, acp.MethodSessionSetModel, req)
}

func (c *ClientSideConnection) SetSessionConfigOption(ctx context.Context, req *acp.SetSessionConfigOptionRequest) (*acp.SetSessionConfigOptionResponse, error) {
	return call[acp.SetSessionConfigOptionResponse](ctx, &c.conn, acp.MethodSessionSetConfigOption, req)
}

// Prompt starts a turn. It re-arms the session if an earlier turn was
// cancelled.
func (c *ClientSideConnection) Prompt(ctx context.Context, req *acp.PromptRequest) (*acp.PromptResponse, error) {
	c.turns.Rearm(string(req.SessionID))
	return call[acp.PromptResponse](withSession(ctx, req.SessionID), &c.conn, acp.MethodSessionPrompt, req)
}

// Cancel asks the agent to stop the session's current turn. Permission
// requests the agent has outstanding for the session have their handler
// context cancelled, and any that then fail are answered as cancelled.
func (c *ClientSideConnection) Cancel(ctx context.Context, n *acp.CancelNotification) error {
	ctx = withSession(ctx, n.SessionID)
	c.turns.Cancel(ctx, string(n.SessionID))
	return c.notify(ctx, acp.MethodSessionCancel, n)
}

// ExtMethod calls a method outside the registry. params and the result are
// passed through byte for byte.
func (c *ClientSideConnection) ExtMethod(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	return c.extMethod(ctx, method, params)
}

func (c *ClientSideConnection) ExtNotification(ctx context.Context, method string, params json.RawMessage) error {
	return c.extNotification(ctx, method, params)
}
