// Package memory provides an in-memory vector index using brute-force
// cosine similarity. It backs tests and the "memory" vector provider,
// where nothing should survive the process.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// Store holds vectors keyed by chunk ID.
type Store struct {
	mu         sync.RWMutex
	dimensions int
	// order preserves first-insertion order so equal scores rank
	// deterministically.
	order  []string
	points map[string]entry
}

type entry struct {
	chunk  domain.Chunk
	vector []float32
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		points: make(map[string]entry),
	}
}

// EnsureCollection fixes the vector size on first call. A later call
// with a different size returns domain.ErrDimensionMismatch, matching
// the behaviour of a persistent store.
func (s *Store) EnsureCollection(_ context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dimensions == 0 {
		s.dimensions = dimensions
		return nil
	}
	if s.dimensions != dimensions {
		return fmt.Errorf("%w: store holds %d-dimensional vectors, embedding model produces %d",
			domain.ErrDimensionMismatch, s.dimensions, dimensions)
	}
	return nil
}

// Upsert writes vectors keyed by chunk ID, overwriting existing entries.
func (s *Store) Upsert(_ context.Context, vectors []driven.IndexedVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range vectors {
		if s.dimensions > 0 && len(v.Embedding) != s.dimensions {
			return fmt.Errorf("%w: vector for chunk %s has %d dimensions, store expects %d",
				domain.ErrDimensionMismatch, v.Chunk.ID, len(v.Embedding), s.dimensions)
		}
		if _, exists := s.points[v.Chunk.ID]; !exists {
			s.order = append(s.order, v.Chunk.ID)
		}
		s.points[v.Chunk.ID] = entry{chunk: v.Chunk, vector: v.Embedding}
	}
	return nil
}

// Search returns the most similar chunks by cosine similarity, ordered
// by descending score. Equal scores keep insertion order.
func (s *Store) Search(_ context.Context, query []float32, limit int) ([]driven.VectorHit, error) {
	if limit <= 0 {
		limit = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(s.order))
	for _, id := range s.order {
		e := s.points[id]
		hits = append(hits, driven.VectorHit{
			Chunk: e.chunk,
			Score: cosine(query, e.vector),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if limit < len(hits) {
		hits = hits[:limit]
	}
	return hits, nil
}

// Count returns the number of stored vectors.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points), nil
}

// Ping always succeeds; the store lives in process memory.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// cosine computes cosine similarity between two vectors.
func cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
