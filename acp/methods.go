package acp

import "slices"

// Methods the Agent receives.
const (
	MethodInitialize             = "initialize"
	MethodAuthenticate           = "authenticate"
	MethodSessionNew             = "session/new"
	MethodSessionLoad            = "session/load"
	MethodSessionList            = "session/list"
	MethodSessionFork            = "session/fork"
	MethodSessionResume          = "session/resume"
	MethodSessionSetMode         = "session/set_mode"
	MethodSessionSetModel        = "session/set_model"
	MethodSessionSetConfigOption = "session/set_config_option"
	MethodSessionPrompt          = "session/prompt"
	MethodSessionCancel          = "session/cancel"
)

// Methods the Client receives.
const (
	MethodSessionRequestPermission = "session/request_permission"
	MethodFSReadTextFile           = "fs/read_text_file"
	MethodFSWriteTextFile          = "fs/write_text_file"
	MethodTerminalCreate           = "terminal/create"
	MethodTerminalOutput           = "terminal/output"
	MethodTerminalRelease          = "terminal/release"
	MethodTerminalWaitForExit      = "terminal/wait_for_exit"
	MethodTerminalKill             = "terminal/kill"
	MethodSessionUpdate            = "session/update"
)

// MethodCancelRequest may be sent by either side to abandon one of its own
// outstanding requests.
const MethodCancelRequest = "$/cancel_request"

// MethodKind says whether a method expects a response.
type MethodKind uint8

const (
	KindRequest MethodKind = iota
	KindNotification
)

func (k MethodKind) String() string {
	if k == KindNotification {
		return "notification"
	}
	return "request"
}

// Side names the role that receives a method.
type Side string

const (
	SideAgent    Side = "agent"
	SideClient   Side = "client"
	SideProtocol Side = "protocol"
)

// MethodInfo describes one registered method. Params and Result hold zero
// values of the payload types, for tooling that reflects over the catalog.
type MethodInfo struct {
	Name   string
	Kind   MethodKind
	Side   Side
	Params any
	Result any
}

// Registry is the static method table of one receiving side.
type Registry struct {
	side    Side
	methods []MethodInfo
	byName  map[string]int
}

func newRegistry(side Side, methods ...MethodInfo) *Registry {
	r := &Registry{side: side, methods: methods, byName: make(map[string]int, len(methods))}
	for i := range r.methods {
		r.methods[i].Side = side
		r.byName[r.methods[i].Name] = i
	}
	return r
}

func request(name string, params, result any) MethodInfo {
	return MethodInfo{Name: name, Kind: KindRequest, Params: params, Result: result}
}

func notification(name string, params any) MethodInfo {
	return MethodInfo{Name: name, Kind: KindNotification, Params: params}
}

// AgentMethods lists the methods an Agent receives.
var AgentMethods = newRegistry(SideAgent,
	request(MethodInitialize, &InitializeRequest{}, &InitializeResponse{}),
	request(MethodAuthenticate, &AuthenticateRequest{}, &AuthenticateResponse{}),
	request(MethodSessionNew, &NewSessionRequest{}, &NewSessionResponse{}),
	request(MethodSessionLoad, &LoadSessionRequest{}, &LoadSessionResponse{}),
	request(MethodSessionList, &ListSessionsRequest{}, &ListSessionsResponse{}),
	request(MethodSessionFork, &ForkSessionRequest{}, &ForkSessionResponse{}),
	request(MethodSessionResume, &ResumeSessionRequest{}, &ResumeSessionResponse{}),
	request(MethodSessionSetMode, &SetSessionModeRequest{}, &SetSessionModeResponse{}),
	request(MethodSessionSetModel, &SetSessionModelRequest{}, &SetSessionModelResponse{}),
	request(MethodSessionSetConfigOption, &SetSessionConfigOptionRequest{}, &SetSessionConfigOptionResponse{}),
	request(MethodSessionPrompt, &PromptRequest{}, &PromptResponse{}),
	notification(MethodSessionCancel, &CancelNotification{}),
)

// ClientMethods lists the methods a Client receives.
var ClientMethods = newRegistry(SideClient,
	request(MethodSessionRequestPermission, &RequestPermissionRequest{}, &RequestPermissionResponse{}),
	request(MethodFSReadTextFile, &ReadTextFileRequest{}, &ReadTextFileResponse{}),
	request(MethodFSWriteTextFile, &WriteTextFileRequest{}, &WriteTextFileResponse{}),
	request(MethodTerminalCreate, &CreateTerminalRequest{}, &CreateTerminalResponse{}),
	request(MethodTerminalOutput, &TerminalOutputRequest{}, &TerminalOutputResponse{}),
	request(MethodTerminalRelease, &ReleaseTerminalRequest{}, &ReleaseTerminalResponse{}),
	request(MethodTerminalWaitForExit, &WaitForTerminalExitRequest{}, &WaitForTerminalExitResponse{}),
	request(MethodTerminalKill, &KillTerminalCommandRequest{}, &KillTerminalCommandResponse{}),
	notification(MethodSessionUpdate, &SessionNotification{}),
)

// ProtocolMethods lists methods either side may receive.
var ProtocolMethods = newRegistry(SideProtocol,
	notification(MethodCancelRequest, &CancelRequestNotification{}),
)

// CancelRequestNotification abandons an outstanding request by id.
type CancelRequestNotification struct {
	RequestID any  `json:"requestId"`
	Meta      Meta `json:"_meta,omitempty"`
}

// Side returns the role that receives the registry's methods.
func (r *Registry) Side() Side { return r.side }

// Lookup returns the entry for method. Methods not found are extensions.
func (r *Registry) Lookup(method string) (MethodInfo, bool) {
	i, ok := r.byName[method]
	if !ok {
		return MethodInfo{}, false
	}
	return r.methods[i], true
}

// Methods returns the entries in declaration order.
func (r *Registry) Methods() []MethodInfo { return slices.Clone(r.methods) }
