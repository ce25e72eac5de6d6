package driven

import (
	"context"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
)

// VectorIndex provides keyed vector storage and similarity search.
// Backed by Qdrant; an in-memory implementation exists for tests.
type VectorIndex interface {
	// EnsureCollection creates the collection if it does not exist.
	// If the collection exists with a different vector size, it returns
	// domain.ErrDimensionMismatch: re-indexing into a collection built
	// for another embedding model would corrupt search results.
	EnsureCollection(ctx context.Context, dimensions int) error

	// Upsert writes vectors keyed by chunk ID. Writing an existing key
	// overwrites the stored vector and payload, which makes re-indexing
	// an unchanged document a no-op in effect.
	Upsert(ctx context.Context, vectors []IndexedVector) error

	// Search finds the chunks most similar to the query vector,
	// ordered by descending score. Ties preserve the store's ordering
	// so repeated queries return stable results.
	Search(ctx context.Context, query []float32, limit int) ([]VectorHit, error)

	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)

	// Ping validates the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// IndexedVector is one chunk ready for storage: its embedding plus the
// chunk itself, carried as payload so search results need no second
// lookup.
type IndexedVector struct {
	// Chunk is the source chunk. Chunk.ID keys the stored point.
	Chunk domain.Chunk

	// Embedding is the chunk's embedding vector.
	Embedding []float32
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Chunk is the matched chunk, rebuilt from the stored payload.
	Chunk domain.Chunk

	// Score is the similarity score. Higher is more similar.
	Score float32
}
