package acp

type ReadTextFileRequest struct {
	SessionID SessionID `json:"sessionId"`
	Path      string    `json:"path"`
	Line      *uint32   `json:"line,omitempty"`
	Limit     *uint32   `json:"limit,omitempty"`
	Meta      Meta      `json:"_meta,omitempty"`
}

type ReadTextFileResponse struct {
	Content string `json:"content"`
	Meta    Meta   `json:"_meta,omitempty"`
}

type WriteTextFileRequest struct {
	SessionID SessionID `json:"sessionId"`
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	Meta      Meta      `json:"_meta,omitempty"`
}

type WriteTextFileResponse struct {
	Meta Meta `json:"_meta,omitempty"`
}
