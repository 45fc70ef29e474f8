package acp

// nonNil lets required array members encode as [] when the Go slice is nil.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (v InitializeResponse) MarshalJSON() ([]byte, error) {
	type wire InitializeResponse
	w := wire(v)
	w.AuthMethods = nonNil(w.AuthMethods)
	return marshalJSON(w)
}

func (v McpServerStdio) MarshalJSON() ([]byte, error) {
	type wire McpServerStdio
	w := wire(v)
	w.Args = nonNil(w.Args)
	w.Env = nonNil(w.Env)
	return marshalJSON(w)
}

func (v McpServerHTTP) MarshalJSON() ([]byte, error) {
	type wire McpServerHTTP
	w := wire(v)
	w.Headers = nonNil(w.Headers)
	return marshalJSON(w)
}

func (v McpServerSSE) MarshalJSON() ([]byte, error) {
	type wire McpServerSSE
	w := wire(v)
	w.Headers = nonNil(w.Headers)
	return marshalJSON(w)
}

func (v NewSessionRequest) MarshalJSON() ([]byte, error) {
	type wire NewSessionRequest
	w := wire(v)
	w.McpServers = nonNil(w.McpServers)
	return marshalJSON(w)
}

func (v LoadSessionRequest) MarshalJSON() ([]byte, error) {
	type wire LoadSessionRequest
	w := wire(v)
	w.McpServers = nonNil(w.McpServers)
	return marshalJSON(w)
}

func (v ListSessionsResponse) MarshalJSON() ([]byte, error) {
	type wire ListSessionsResponse
	w := wire(v)
	w.Sessions = nonNil(w.Sessions)
	return marshalJSON(w)
}

func (v SessionModeState) MarshalJSON() ([]byte, error) {
	type wire SessionModeState
	w := wire(v)
	w.AvailableModes = nonNil(w.AvailableModes)
	return marshalJSON(w)
}

func (v SessionModelState) MarshalJSON() ([]byte, error) {
	type wire SessionModelState
	w := wire(v)
	w.AvailableModels = nonNil(w.AvailableModels)
	return marshalJSON(w)
}

func (v SetSessionConfigOptionResponse) MarshalJSON() ([]byte, error) {
	type wire SetSessionConfigOptionResponse
	w := wire(v)
	w.ConfigOptions = nonNil(w.ConfigOptions)
	return marshalJSON(w)
}

func (v SessionConfigSelectGroup) MarshalJSON() ([]byte, error) {
	type wire SessionConfigSelectGroup
	w := wire(v)
	w.Options = nonNil(w.Options)
	return marshalJSON(w)
}

func (v PromptRequest) MarshalJSON() ([]byte, error) {
	type wire PromptRequest
	w := wire(v)
	w.Prompt = nonNil(w.Prompt)
	return marshalJSON(w)
}

func (v Plan) MarshalJSON() ([]byte, error) {
	type wire Plan
	w := wire(v)
	w.Entries = nonNil(w.Entries)
	return marshalJSON(w)
}

func (v RequestPermissionRequest) MarshalJSON() ([]byte, error) {
	type wire RequestPermissionRequest
	w := wire(v)
	w.Options = nonNil(w.Options)
	return marshalJSON(w)
}

func (v AvailableCommandsUpdate) MarshalJSON() ([]byte, error) {
	type wire AvailableCommandsUpdate
	w := wire(v)
	w.AvailableCommands = nonNil(w.AvailableCommands)
	return marshalJSON(w)
}

func (v ConfigOptionUpdate) MarshalJSON() ([]byte, error) {
	type wire ConfigOptionUpdate
	w := wire(v)
	w.ConfigOptions = nonNil(w.ConfigOptions)
	return marshalJSON(w)
}
