package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driving"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService exposes stored conversations for inspection.
type SessionService struct {
	store driven.SessionStore
}

// NewSessionService creates a new session service.
func NewSessionService(store driven.SessionStore) *SessionService {
	return &SessionService{store: store}
}

// List returns summaries of all sessions, most recently updated first.
func (s *SessionService) List(ctx context.Context) ([]domain.SessionInfo, error) {
	if s.store == nil {
		return nil, errors.New("session store not configured")
	}
	return s.store.List(ctx)
}

// Get returns the full session with the given ID, or domain.ErrNotFound.
func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	if s.store == nil {
		return nil, errors.New("session store not configured")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: session id is empty", domain.ErrInvalidInput)
	}
	return s.store.Get(ctx, id)
}
