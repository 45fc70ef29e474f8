package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/ggoodman/acp-go/acp"
)

var (
	// ErrNotFound is returned for a session the store does not hold.
	ErrNotFound = errors.New("session not found")
	// ErrExists is returned by Create when the id is already taken.
	ErrExists = errors.New("session already exists")
)

// Record is the metadata kept for one session.
type Record struct {
	ID        acp.SessionID     `json:"id"`
	Cwd       string            `json:"cwd"`
	Title     string            `json:"title,omitempty"`
	Mode      acp.SessionModeID `json:"mode,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Info converts the record to its session/list form.
func (r Record) Info() acp.SessionInfo {
	info := acp.SessionInfo{SessionID: r.ID, Cwd: r.Cwd}
	if r.Title != "" {
		title := r.Title
		info.Title = &title
	}
	if !r.UpdatedAt.IsZero() {
		updated := r.UpdatedAt.UTC().Format(time.RFC3339)
		info.UpdatedAt = &updated
	}
	return info
}

// Store persists session records and their update history. Implementations
// must be safe for concurrent use.
type Store interface {
	// Create stores a new record. It returns ErrExists if the id is taken.
	Create(ctx context.Context, rec Record) error
	// Update replaces an existing record. It returns ErrNotFound if absent.
	Update(ctx context.Context, rec Record) error
	// Get returns the record for id or ErrNotFound.
	Get(ctx context.Context, id acp.SessionID) (Record, error)
	// List returns records most recently updated first. An empty cwd
	// matches every session.
	List(ctx context.Context, cwd string) ([]Record, error)
	// Append adds updates to the end of a session's history.
	Append(ctx context.Context, id acp.SessionID, updates ...acp.SessionUpdate) error
	// History returns every update appended to id, oldest first.
	History(ctx context.Context, id acp.SessionID) ([]acp.SessionUpdate, error)
	// Delete removes a session and its history. Deleting an unknown session
	// is not an error.
	Delete(ctx context.Context, id acp.SessionID) error
	// Close releases resources held by the store.
	Close() error
}

// Fork copies src's history into a new session described by rec.
func Fork(ctx context.Context, s Store, src acp.SessionID, rec Record) error {
	history, err := s.History(ctx, src)
	if err != nil {
		return err
	}
	if err := s.Create(ctx, rec); err != nil {
		return err
	}
	if len(history) == 0 {
		return nil
	}
	return s.Append(ctx, rec.ID, history...)
}
