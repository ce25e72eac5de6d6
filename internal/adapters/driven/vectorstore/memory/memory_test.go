package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driven"
)

func vec(chunkID, text string, embedding ...float32) driven.IndexedVector {
	return driven.IndexedVector{
		Chunk:     domain.Chunk{ID: chunkID, DocumentID: "/d.pdf", Text: text, Modality: domain.ModalityText, Page: 1},
		Embedding: embedding,
	}
}

func TestEnsureCollection(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.EnsureCollection(ctx, 3))
	require.NoError(t, store.EnsureCollection(ctx, 3), "same dimension is idempotent")

	err := store.EnsureCollection(ctx, 4)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	err = store.EnsureCollection(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpsert_OverwritesByKey(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.EnsureCollection(ctx, 2))

	require.NoError(t, store.Upsert(ctx, []driven.IndexedVector{vec("c1", "old", 1, 0)}))
	require.NoError(t, store.Upsert(ctx, []driven.IndexedVector{vec("c1", "new", 0, 1)}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "same key must overwrite, not append")

	hits, err := store.Search(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "new", hits[0].Chunk.Text)
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.EnsureCollection(ctx, 3))

	err := store.Upsert(ctx, []driven.IndexedVector{vec("c1", "x", 1, 0)})

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestSearch_OrdersByScore(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.EnsureCollection(ctx, 2))

	require.NoError(t, store.Upsert(ctx, []driven.IndexedVector{
		vec("far", "far", 0, 1),
		vec("near", "near", 1, 0),
		vec("mid", "mid", 1, 1),
	}))

	hits, err := store.Search(ctx, []float32{1, 0}, 3)

	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "near", hits[0].Chunk.ID)
	assert.Equal(t, "mid", hits[1].Chunk.ID)
	assert.Equal(t, "far", hits[2].Chunk.ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestSearch_StableTies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.EnsureCollection(ctx, 2))

	// Identical vectors score identically; insertion order must hold.
	require.NoError(t, store.Upsert(ctx, []driven.IndexedVector{
		vec("first", "a", 1, 0),
		vec("second", "b", 1, 0),
		vec("third", "c", 1, 0),
	}))

	for i := 0; i < 5; i++ {
		hits, err := store.Search(ctx, []float32{1, 0}, 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, "first", hits[0].Chunk.ID)
		assert.Equal(t, "second", hits[1].Chunk.ID)
		assert.Equal(t, "third", hits[2].Chunk.ID)
	}
}

func TestSearch_LimitCapsResults(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.EnsureCollection(ctx, 1))

	require.NoError(t, store.Upsert(ctx, []driven.IndexedVector{
		vec("a", "a", 1),
		vec("b", "b", 2),
		vec("c", "c", 3),
	}))

	hits, err := store.Search(ctx, []float32{1}, 2)

	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestSearch_EmptyStore(t *testing.T) {
	store := NewStore()

	hits, err := store.Search(context.Background(), []float32{1}, 5)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 0}, []float32{2, 0}), 0.0001, "parallel vectors")
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 0.0001, "orthogonal vectors")
	assert.InDelta(t, 0.0, cosine([]float32{0, 0}, []float32{1, 1}), 0.0001, "zero vector")
}
