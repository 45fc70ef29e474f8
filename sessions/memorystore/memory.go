// Package memorystore is an in-process sessions.Store.
package memorystore

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/ggoodman/acp-go/acp"
	"github.com/ggoodman/acp-go/sessions"
)

type entry struct {
	rec     sessions.Record
	history []acp.SessionUpdate
}

// Store keeps sessions in a map. The zero value is not usable; call New.
type Store struct {
	mu       sync.RWMutex
	sessions map[acp.SessionID]*entry
}

var _ sessions.Store = (*Store)(nil)

func New() *Store {
	return &Store{sessions: map[acp.SessionID]*entry{}}
}

func (s *Store) Create(_ context.Context, rec sessions.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[rec.ID]; ok {
		return sessions.ErrExists
	}
	s.sessions[rec.ID] = &entry{rec: rec}
	return nil
}

func (s *Store) Update(_ context.Context, rec sessions.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[rec.ID]
	if !ok {
		return sessions.ErrNotFound
	}
	e.rec = rec
	return nil
}

func (s *Store) Get(_ context.Context, id acp.SessionID) (sessions.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return sessions.Record{}, sessions.ErrNotFound
	}
	return e.rec, nil
}

func (s *Store) List(_ context.Context, cwd string) ([]sessions.Record, error) {
	s.mu.RLock()
	out := make([]sessions.Record, 0, len(s.sessions))
	for _, e := range s.sessions {
		if cwd == "" || e.rec.Cwd == cwd {
			out = append(out, e.rec)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b sessions.Record) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) Append(_ context.Context, id acp.SessionID, updates ...acp.SessionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return sessions.ErrNotFound
	}
	e.history = append(e.history, updates...)
	return nil
}

func (s *Store) History(_ context.Context, id acp.SessionID) ([]acp.SessionUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, sessions.ErrNotFound
	}
	return slices.Clone(e.history), nil
}

func (s *Store) Delete(_ context.Context, id acp.SessionID) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func (s *Store) Close() error { return nil }
