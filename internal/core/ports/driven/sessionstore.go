package driven

import (
	"context"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
)

// SessionStore persists conversation history across CLI invocations.
type SessionStore interface {
	// Load returns the session with the given ID, creating an empty one
	// if none exists. Load never returns domain.ErrNotFound: a fresh
	// session ID is how a new conversation starts. A record that exists
	// but cannot be decoded returns an empty session wrapped with
	// domain.ErrSessionCorrupt so the caller can warn and continue.
	Load(ctx context.Context, id string) (*domain.Session, error)

	// Append adds one completed turn to the session, creating the
	// session if needed.
	Append(ctx context.Context, id string, turn domain.Turn) error

	// List returns summaries of all stored sessions, most recently
	// updated first.
	List(ctx context.Context) ([]domain.SessionInfo, error)

	// Get returns the full session with the given ID, or
	// domain.ErrNotFound. Unlike Load it never creates.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Close releases resources.
	Close() error
}
