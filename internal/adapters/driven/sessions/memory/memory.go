// Package memory provides an in-memory session store for tests and
// runs where history should not outlive the process.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SessionStore = (*Store)(nil)

// Store holds sessions in process memory.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewStore creates an empty in-memory session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*domain.Session),
	}
}

// Load returns the session with the given ID, creating an empty one if
// none exists.
func (s *Store) Load(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return &domain.Session{ID: id}, nil
	}
	return cloneSession(session), nil
}

// Append adds one completed turn, creating the session if needed.
func (s *Store) Append(_ context.Context, id string, turn domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = now
	}

	session, ok := s.sessions[id]
	if !ok {
		session = &domain.Session{ID: id, CreatedAt: now}
		s.sessions[id] = session
	}
	session.Turns = append(session.Turns, turn)
	session.UpdatedAt = now
	return nil
}

// List returns summaries of all sessions, most recently updated first.
func (s *Store) List(_ context.Context) ([]domain.SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]domain.SessionInfo, 0, len(s.sessions))
	for _, session := range s.sessions {
		infos = append(infos, domain.SessionInfo{
			ID:        session.ID,
			TurnCount: len(session.Turns),
			UpdatedAt: session.UpdatedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

// Get returns the full session with the given ID, or domain.ErrNotFound.
func (s *Store) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneSession(session), nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// cloneSession copies a session so callers cannot mutate stored state.
func cloneSession(s *domain.Session) *domain.Session {
	clone := *s
	clone.Turns = make([]domain.Turn, len(s.Turns))
	copy(clone.Turns, s.Turns)
	return &clone
}
