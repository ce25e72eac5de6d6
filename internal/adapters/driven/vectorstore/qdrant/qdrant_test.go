package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driven"
)

func TestNewStore_Defaults(t *testing.T) {
	store := NewStore(Config{})

	assert.Equal(t, DefaultCollection, store.Collection())
}

func TestPointID_Deterministic(t *testing.T) {
	a := pointID("chunk-1")
	b := pointID("chunk-1")
	c := pointID("chunk-2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 36, "point IDs must be UUIDs")
}

func TestEnsureCollection_CreatesWhenMissing(t *testing.T) {
	var created createCollectionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			http.Error(w, `{"status":{"error":"not found"}}`, http.StatusNotFound)
		case http.MethodPut:
			assert.Equal(t, "/collections/document_rag", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.Write([]byte(`{"result":true,"status":"ok"}`))
		}
	}))
	defer server.Close()

	store := NewStore(Config{URL: server.URL})

	err := store.EnsureCollection(context.Background(), 768)

	require.NoError(t, err)
	assert.Equal(t, 768, created.Vectors.Size)
	assert.Equal(t, "Cosine", created.Vectors.Distance)
}

func TestEnsureCollection_AcceptsMatchingDimension(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"result":{"config":{"params":{"vectors":{"size":768,"distance":"Cosine"}}}},"status":"ok"}`))
	}))
	defer server.Close()

	store := NewStore(Config{URL: server.URL})

	assert.NoError(t, store.EnsureCollection(context.Background(), 768))
}

func TestEnsureCollection_RejectsDimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"config":{"params":{"vectors":{"size":384,"distance":"Cosine"}}}},"status":"ok"}`))
	}))
	defer server.Close()

	store := NewStore(Config{URL: server.URL})

	err := store.EnsureCollection(context.Background(), 768)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "384")
	assert.Contains(t, err.Error(), "768")
}

func TestEnsureCollection_InvalidDimensions(t *testing.T) {
	store := NewStore(Config{URL: "http://unused"})

	err := store.EnsureCollection(context.Background(), 0)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEnsureCollection_Unreachable(t *testing.T) {
	store := NewStore(Config{URL: "http://127.0.0.1:1"})

	err := store.EnsureCollection(context.Background(), 768)

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestUpsert(t *testing.T) {
	var captured upsertRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/collections/document_rag/points", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"result":{"status":"completed"},"status":"ok"}`))
	}))
	defer server.Close()

	store := NewStore(Config{URL: server.URL})

	chunk := domain.NewChunk("/docs/a.pdf", 0, domain.ModalityText, 3, "hello")
	err := store.Upsert(context.Background(), []driven.IndexedVector{
		{Chunk: chunk, Embedding: []float32{0.1, 0.2}},
	})

	require.NoError(t, err)
	require.Len(t, captured.Points, 1)
	p := captured.Points[0]
	assert.Equal(t, pointID(chunk.ID), p.ID)
	assert.Equal(t, chunk.ID, p.Payload.ChunkID)
	assert.Equal(t, "/docs/a.pdf", p.Payload.DocID)
	assert.Equal(t, "hello", p.Payload.Text)
	assert.Equal(t, "text", p.Payload.Modality)
	assert.Equal(t, 3, p.Payload.Page)
}

func TestUpsert_Batches(t *testing.T) {
	var requests int
	var totalPoints int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req upsertRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests++
		totalPoints += len(req.Points)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	store := NewStore(Config{URL: server.URL})

	vectors := make([]driven.IndexedVector, upsertBatchSize+10)
	for i := range vectors {
		vectors[i] = driven.IndexedVector{
			Chunk:     domain.NewChunk("/d.pdf", i, domain.ModalityText, 1, "x"),
			Embedding: []float32{1},
		}
	}

	require.NoError(t, store.Upsert(context.Background(), vectors))
	assert.Equal(t, 2, requests)
	assert.Equal(t, upsertBatchSize+10, totalPoints)
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/document_rag/points/search", r.URL.Path)

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 5, req.Limit)
		assert.True(t, req.WithPayload)

		w.Write([]byte(`{"result":[
			{"score":0.92,"payload":{"chunk_id":"c1","doc_id":"/d.pdf","text":"first","modality":"text","page":2}},
			{"score":0.81,"payload":{"chunk_id":"c2","doc_id":"/d.pdf","text":"second","modality":"table","page":7}}
		],"status":"ok"}`))
	}))
	defer server.Close()

	store := NewStore(Config{URL: server.URL})

	hits, err := store.Search(context.Background(), []float32{0.1}, 5)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c1", hits[0].Chunk.ID)
	assert.Equal(t, domain.ModalityText, hits[0].Chunk.Modality)
	assert.InDelta(t, 0.92, hits[0].Score, 0.0001)
	assert.Equal(t, domain.ModalityTable, hits[1].Chunk.Modality)
	assert.Equal(t, 7, hits[1].Chunk.Page)
}

func TestSearch_DefaultLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 5, req.Limit)
		w.Write([]byte(`{"result":[],"status":"ok"}`))
	}))
	defer server.Close()

	store := NewStore(Config{URL: server.URL})

	_, err := store.Search(context.Background(), []float32{0.1}, 0)

	require.NoError(t, err)
}

func TestCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/document_rag/points/count", r.URL.Path)
		w.Write([]byte(`{"result":{"count":42},"status":"ok"}`))
	}))
	defer server.Close()

	store := NewStore(Config{URL: server.URL})

	count, err := store.Count(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestSearch_SendsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		w.Write([]byte(`{"result":[],"status":"ok"}`))
	}))
	defer server.Close()

	store := NewStore(Config{URL: server.URL, APIKey: "secret"})

	_, err := store.Search(context.Background(), []float32{0.1}, 5)

	require.NoError(t, err)
}

func TestQdrantPing(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/collections", r.URL.Path)
			w.Write([]byte(`{"result":{"collections":[]},"status":"ok"}`))
		}))
		defer server.Close()

		store := NewStore(Config{URL: server.URL})
		assert.NoError(t, store.Ping(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		store := NewStore(Config{URL: "http://127.0.0.1:1"})
		assert.Error(t, store.Ping(context.Background()))
	})
}
