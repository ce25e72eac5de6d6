package driving

import (
	"context"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
)

// QueryService answers questions over the indexed corpus.
type QueryService interface {
	// Ask retrieves relevant chunks, assembles context with any prior
	// conversation, and generates a grounded answer. With a session ID
	// the completed turn is recorded; without one the query is
	// stateless and nothing is persisted.
	Ask(ctx context.Context, req AskRequest) (*domain.Answer, error)
}

// AskRequest carries one question and its conversation options.
type AskRequest struct {
	// Question is the user's query text.
	Question string

	// SessionID selects the conversation to continue. Empty means a
	// one-off query with no memory.
	SessionID string

	// Summarise requests a digest of the retrieved context alongside
	// the answer.
	Summarise bool

	// TopK overrides the number of chunks retrieved. Zero means the
	// configured default.
	TopK int
}
