// Package turns correlates in-flight work with the session it belongs to so
// that a session/cancel notification can reach all of it at once.
//
// A session has at most a handful of live entries: the prompt turn itself
// and the permission requests issued on its behalf. Cancelling the session
// cancels every entry's context with ErrCancelled as the cause and marks the
// session so that new dependent work is refused until the next turn begins.
package turns

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ggoodman/acp-go/internal/logctx"
)

// ErrCancelled is the context cause for work stopped by a session cancel.
var ErrCancelled = errors.New("session cancelled")

// Tracker is safe for concurrent use.
type Tracker struct {
	log *slog.Logger

	mu       sync.Mutex
	nextID   uint64
	sessions map[string]*session
}

type session struct {
	cancelled bool
	turns     map[uint64]context.CancelCauseFunc
	deps      map[uint64]context.CancelCauseFunc
}

func (s *session) idle() bool {
	return !s.cancelled && len(s.turns) == 0 && len(s.deps) == 0
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets a custom logger for the Tracker.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

// New returns an empty Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		log:      slog.Default(),
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) sessionLocked(sessionID string) *session {
	s, ok := t.sessions[sessionID]
	if !ok {
		s = &session{
			turns: make(map[uint64]context.CancelCauseFunc),
			deps:  make(map[uint64]context.CancelCauseFunc),
		}
		t.sessions[sessionID] = s
	}
	return s
}

func (t *Tracker) releaseLocked(sessionID string, s *session) {
	if s.idle() {
		delete(t.sessions, sessionID)
	}
}

// BeginTurn re-arms sessionID and returns a context for the turn that is
// cancelled when the session is. The returned func must be called when the
// turn ends.
func (t *Tracker) BeginTurn(ctx context.Context, sessionID string) (context.Context, func()) {
	tctx, cancel := context.WithCancelCause(ctx)

	t.mu.Lock()
	id := t.nextID
	t.nextID++
	s := t.sessionLocked(sessionID)
	s.cancelled = false
	s.turns[id] = cancel
	t.mu.Unlock()

	return tctx, func() {
		t.mu.Lock()
		delete(s.turns, id)
		t.releaseLocked(sessionID, s)
		t.mu.Unlock()
		cancel(nil)
	}
}

// Rearm clears the cancelled mark of sessionID without starting a turn.
func (t *Tracker) Rearm(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[sessionID]; ok {
		s.cancelled = false
		t.releaseLocked(sessionID, s)
	}
}

// Track registers work done on behalf of sessionID's current turn. It
// reports false, and registers nothing, if the session is already
// cancelled. Otherwise the returned context is cancelled along with the
// session and the returned func must be called when the work finishes.
func (t *Tracker) Track(ctx context.Context, sessionID string) (context.Context, func(), bool) {
	t.mu.Lock()
	if s, ok := t.sessions[sessionID]; ok && s.cancelled {
		t.mu.Unlock()
		return ctx, func() {}, false
	}
	dctx, cancel := context.WithCancelCause(ctx)
	id := t.nextID
	t.nextID++
	s := t.sessionLocked(sessionID)
	s.deps[id] = cancel
	t.mu.Unlock()

	return dctx, func() {
		t.mu.Lock()
		delete(s.deps, id)
		t.releaseLocked(sessionID, s)
		t.mu.Unlock()
		cancel(nil)
	}, true
}

// Cancel marks sessionID cancelled and cancels every turn and tracked
// operation registered for it. Other sessions are unaffected.
func (t *Tracker) Cancel(ctx context.Context, sessionID string) {
	t.mu.Lock()
	s := t.sessionLocked(sessionID)
	s.cancelled = true
	cancels := make([]context.CancelCauseFunc, 0, len(s.turns)+len(s.deps))
	for _, c := range s.deps {
		cancels = append(cancels, c)
	}
	for _, c := range s.turns {
		cancels = append(cancels, c)
	}
	turns, deps := len(s.turns), len(s.deps)
	t.mu.Unlock()

	// Dependent work is cancelled before the turns that issued it.
	for _, c := range cancels {
		c(ErrCancelled)
	}

	ctx = logctx.WithSessionData(ctx, &logctx.SessionData{SessionID: sessionID})
	t.log.InfoContext(ctx, "turns.cancel", slog.Int("turns", turns), slog.Int("pending", deps))
}

// IsCancelled reports whether sessionID is marked cancelled.
func (t *Tracker) IsCancelled(sessionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[sessionID]
	return ok && s.cancelled
}

// Cancelled reports whether ctx was cancelled by a session cancel.
func Cancelled(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrCancelled)
}
