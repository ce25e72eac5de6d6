// Package qdrant provides a vector index adapter backed by Qdrant's
// REST API.
//
// Points are keyed by a UUID derived from the chunk ID, so writing the
// same chunk twice overwrites one point instead of growing the
// collection. The chunk itself travels in the point payload; search
// results are rebuilt from payloads without a second lookup.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// Default configuration values.
const (
	DefaultURL        = "http://localhost:6333"
	DefaultCollection = "document_rag"
	DefaultTimeout    = 15 * time.Second
)

// upsertBatchSize bounds the points sent per request. A full textbook
// produces thousands of chunks; one giant JSON body risks Qdrant's
// request size limit.
const upsertBatchSize = 128

// Config holds configuration for the Qdrant store.
type Config struct {
	// URL is the Qdrant base URL (default: http://localhost:6333).
	URL string

	// APIKey authenticates against secured deployments. Empty for local.
	APIKey string

	// Collection is the collection name (default: document_rag).
	Collection string

	// Timeout is the request timeout (default: 15s).
	Timeout time.Duration
}

// Store is a REST client to Qdrant. It assumes cosine distance.
type Store struct {
	client     *http.Client
	url        string
	apiKey     string
	collection string
}

// vectorParams mirrors Qdrant's vector configuration.
type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

// createCollectionRequest is the PUT /collections/{name} body.
type createCollectionRequest struct {
	Vectors vectorParams `json:"vectors"`
}

// collectionInfoResponse is the GET /collections/{name} envelope,
// reduced to the fields Tome reads.
type collectionInfoResponse struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors vectorParams `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// pointPayload is the chunk as stored alongside its vector.
type pointPayload struct {
	ChunkID  string `json:"chunk_id"`
	DocID    string `json:"doc_id"`
	Text     string `json:"text"`
	Modality string `json:"modality"`
	Page     int    `json:"page"`
}

// point is one entry in an upsert request.
type point struct {
	ID      string       `json:"id"`
	Vector  []float32    `json:"vector"`
	Payload pointPayload `json:"payload"`
}

// upsertRequest is the PUT /collections/{name}/points body.
type upsertRequest struct {
	Points []point `json:"points"`
}

// searchRequest is the POST /collections/{name}/points/search body.
type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

// searchResponse is the search result envelope.
type searchResponse struct {
	Result []struct {
		Score   float32      `json:"score"`
		Payload pointPayload `json:"payload"`
	} `json:"result"`
}

// countResponse is the POST /collections/{name}/points/count envelope.
type countResponse struct {
	Result struct {
		Count int `json:"count"`
	} `json:"result"`
}

// NewStore creates a new Qdrant store.
func NewStore(cfg Config) *Store {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Store{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
	}
}

// Collection returns the collection name this store writes to.
func (s *Store) Collection() string {
	return s.collection
}

// pointID derives the deterministic point UUID for a chunk. Qdrant
// requires UUID point IDs; hashing the chunk ID keeps re-indexing
// idempotent.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

// newRequest builds a JSON request with auth headers applied.
func (s *Store) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	return req, nil
}

// statusError reads the response body into an error message.
func statusError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("qdrant error (status %d): failed to read response", resp.StatusCode)
	}
	return fmt.Errorf("qdrant error (status %d): %s", resp.StatusCode, string(body))
}

// EnsureCollection creates the collection if it does not exist. An
// existing collection with a different vector size returns
// domain.ErrDimensionMismatch; indexing into it would mix incompatible
// embeddings.
func (s *Store) EnsureCollection(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	req, err := s.newRequest(ctx, http.MethodGet, "/collections/"+s.collection, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant unreachable (%w)", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var info collectionInfoResponse
		if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
			return fmt.Errorf("decode collection info: %w", err)
		}
		existing := info.Result.Config.Params.Vectors.Size
		if existing != dimensions {
			return fmt.Errorf("%w: collection %q stores %d-dimensional vectors, embedding model produces %d",
				domain.ErrDimensionMismatch, s.collection, existing, dimensions)
		}
		return nil

	case http.StatusNotFound:
		return s.createCollection(ctx, dimensions)

	default:
		return statusError(resp)
	}
}

func (s *Store) createCollection(ctx context.Context, dimensions int) error {
	body := createCollectionRequest{
		Vectors: vectorParams{
			Size:     dimensions,
			Distance: "Cosine",
		},
	}

	req, err := s.newRequest(ctx, http.MethodPut, "/collections/"+s.collection, body)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant unreachable (%w)", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// Upsert writes vectors keyed by chunk ID, overwriting existing points.
func (s *Store) Upsert(ctx context.Context, vectors []driven.IndexedVector) error {
	for start := 0; start < len(vectors); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(vectors) {
			end = len(vectors)
		}
		if err := s.upsertBatch(ctx, vectors[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertBatch(ctx context.Context, vectors []driven.IndexedVector) error {
	points := make([]point, len(vectors))
	for i, v := range vectors {
		points[i] = point{
			ID:     pointID(v.Chunk.ID),
			Vector: v.Embedding,
			Payload: pointPayload{
				ChunkID:  v.Chunk.ID,
				DocID:    v.Chunk.DocumentID,
				Text:     v.Chunk.Text,
				Modality: v.Chunk.Modality.String(),
				Page:     v.Chunk.Page,
			},
		}
	}

	req, err := s.newRequest(ctx, http.MethodPut, "/collections/"+s.collection+"/points?wait=true", upsertRequest{Points: points})
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant unreachable (%w)", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// Search finds the chunks most similar to the query vector, ordered by
// descending score. Qdrant's ordering is stable for equal scores.
func (s *Store) Search(ctx context.Context, query []float32, limit int) ([]driven.VectorHit, error) {
	if limit <= 0 {
		limit = 5
	}

	body := searchRequest{
		Vector:      query,
		Limit:       limit,
		WithPayload: true,
	}

	req, err := s.newRequest(ctx, http.MethodPost, "/collections/"+s.collection+"/points/search", body)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant unreachable (%w)", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		hits = append(hits, driven.VectorHit{
			Chunk: domain.Chunk{
				ID:         r.Payload.ChunkID,
				DocumentID: r.Payload.DocID,
				Text:       r.Payload.Text,
				Modality:   domain.Modality(r.Payload.Modality),
				Page:       r.Payload.Page,
			},
			Score: r.Score,
		})
	}
	return hits, nil
}

// Count returns the number of stored vectors.
func (s *Store) Count(ctx context.Context) (int, error) {
	req, err := s.newRequest(ctx, http.MethodPost, "/collections/"+s.collection+"/points/count", map[string]bool{"exact": true})
	if err != nil {
		return 0, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: qdrant unreachable (%w)", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, statusError(resp)
	}

	var countResp countResponse
	if err := json.NewDecoder(resp.Body).Decode(&countResp); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return countResp.Result.Count, nil
}

// Ping validates the store is reachable by listing collections.
func (s *Store) Ping(ctx context.Context) error {
	req, err := s.newRequest(ctx, http.MethodGet, "/collections", nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("qdrant: API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
