package driving

import (
	"context"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
)

// IngestService indexes documents into the vector store.
type IngestService interface {
	// Index parses, normalises, embeds, and stores one document.
	// Re-indexing an unchanged document produces the same chunk IDs and
	// leaves the collection unchanged apart from overwritten points.
	Index(ctx context.Context, req IndexRequest) (*domain.IndexReport, error)
}

// IndexRequest identifies a document to index.
type IndexRequest struct {
	// Path is the location of the document on disk.
	Path string

	// Progress, when non-nil, receives pipeline stage updates for
	// display. It is called from the indexing goroutine.
	Progress func(stage string, done, total int)
}
