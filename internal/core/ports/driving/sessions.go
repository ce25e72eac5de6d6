package driving

import (
	"context"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
)

// SessionService exposes stored conversations for inspection.
type SessionService interface {
	// List returns summaries of all sessions, most recently updated first.
	List(ctx context.Context) ([]domain.SessionInfo, error)

	// Get returns the full session with the given ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Session, error)
}
