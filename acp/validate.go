package acp

import (
	"errors"
	"fmt"
)

// Validator is implemented by payloads with required fields. acpconn calls
// Validate after decoding and answers failures with InvalidParams.
type Validator interface {
	Validate() error
}

// ErrMissingField is wrapped by every required-field failure.
var ErrMissingField = errors.New("missing required field")

func required(ok bool, field string) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%w %q", ErrMissingField, field)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func validateServers(servers []McpServer) error {
	for i, s := range servers {
		if s.Stdio == nil && s.HTTP == nil && s.SSE == nil {
			return required(false, fmt.Sprintf("mcpServers[%d]", i))
		}
		if s.Name() == "" {
			return required(false, fmt.Sprintf("mcpServers[%d].name", i))
		}
	}
	return nil
}

func validateBlocks(field string, blocks []ContentBlock) error {
	for i, b := range blocks {
		if b.Type() == "" {
			return required(false, fmt.Sprintf("%s[%d]", field, i))
		}
	}
	return nil
}

func (r *AuthenticateRequest) Validate() error {
	return required(r.MethodID != "", "methodId")
}

func (r *NewSessionRequest) Validate() error {
	return firstErr(required(r.Cwd != "", "cwd"), validateServers(r.McpServers))
}

func (r *LoadSessionRequest) Validate() error {
	return firstErr(
		required(r.SessionID != "", "sessionId"),
		required(r.Cwd != "", "cwd"),
		validateServers(r.McpServers),
	)
}

func (r *ForkSessionRequest) Validate() error {
	return firstErr(
		required(r.SessionID != "", "sessionId"),
		required(r.Cwd != "", "cwd"),
		validateServers(r.McpServers),
	)
}

func (r *ResumeSessionRequest) Validate() error {
	return firstErr(
		required(r.SessionID != "", "sessionId"),
		required(r.Cwd != "", "cwd"),
		validateServers(r.McpServers),
	)
}

func (r *SetSessionModeRequest) Validate() error {
	return firstErr(required(r.SessionID != "", "sessionId"), required(r.ModeID != "", "modeId"))
}

func (r *SetSessionModelRequest) Validate() error {
	return firstErr(required(r.SessionID != "", "sessionId"), required(r.ModelID != "", "modelId"))
}

func (r *SetSessionConfigOptionRequest) Validate() error {
	return firstErr(
		required(r.SessionID != "", "sessionId"),
		required(r.ConfigID != "", "configId"),
		required(r.Value != "", "value"),
	)
}

func (r *PromptRequest) Validate() error {
	return firstErr(required(r.SessionID != "", "sessionId"), validateBlocks("prompt", r.Prompt))
}

func (n *CancelNotification) Validate() error {
	return required(n.SessionID != "", "sessionId")
}

func (r *RequestPermissionRequest) Validate() error {
	if err := firstErr(
		required(r.SessionID != "", "sessionId"),
		required(r.ToolCall.ToolCallID != "", "toolCall.toolCallId"),
	); err != nil {
		return err
	}
	for i, o := range r.Options {
		if o.OptionID == "" {
			return required(false, fmt.Sprintf("options[%d].optionId", i))
		}
	}
	return nil
}

func (r *RequestPermissionResponse) Validate() error {
	return required(r.Outcome.Cancelled || r.Outcome.Selected != nil, "outcome")
}

func (r *ReadTextFileRequest) Validate() error {
	return firstErr(required(r.SessionID != "", "sessionId"), required(r.Path != "", "path"))
}

func (r *WriteTextFileRequest) Validate() error {
	return firstErr(required(r.SessionID != "", "sessionId"), required(r.Path != "", "path"))
}

func (r *CreateTerminalRequest) Validate() error {
	return firstErr(required(r.SessionID != "", "sessionId"), required(r.Command != "", "command"))
}

func (r *TerminalOutputRequest) Validate() error {
	return validateTerminalRef(r.SessionID, r.TerminalID)
}

func (r *ReleaseTerminalRequest) Validate() error {
	return validateTerminalRef(r.SessionID, r.TerminalID)
}

func (r *WaitForTerminalExitRequest) Validate() error {
	return validateTerminalRef(r.SessionID, r.TerminalID)
}

func (r *KillTerminalCommandRequest) Validate() error {
	return validateTerminalRef(r.SessionID, r.TerminalID)
}

func validateTerminalRef(sid SessionID, tid TerminalID) error {
	return firstErr(required(sid != "", "sessionId"), required(tid != "", "terminalId"))
}

func (n *SessionNotification) Validate() error {
	return firstErr(required(n.SessionID != "", "sessionId"), required(n.Update.Kind() != "", "update"))
}
