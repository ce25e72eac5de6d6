package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driving"
	"github.com/custodia-labs/tome-cli/internal/logger"
	"github.com/custodia-labs/tome-cli/internal/ratelimit"
	"github.com/custodia-labs/tome-cli/internal/tabletext"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// embedBatchSize bounds how many chunk texts are sent to the embedding
// service per call so progress stays visible on large documents.
const embedBatchSize = 32

// IngestService runs the indexing pipeline: parse, normalise, embed, upsert.
type IngestService struct {
	parser     driven.DocumentParser
	vision     driven.VisionService
	embedder   driven.EmbeddingService
	vectors    driven.VectorIndex
	collection string

	captionLimiter *ratelimit.RateLimiter
}

// NewIngestService creates a new ingest service.
// The vision parameter is optional (can be nil); image fragments are
// then skipped rather than captioned. The collection name is only
// carried into index reports - the vector index is already bound to it.
func NewIngestService(
	parser driven.DocumentParser,
	vision driven.VisionService,
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
	collection string,
) *IngestService {
	return &IngestService{
		parser:         parser,
		vision:         vision,
		embedder:       embedder,
		vectors:        vectors,
		collection:     collection,
		captionLimiter: ratelimit.NewRateLimiter(ratelimit.ServiceVision),
	}
}

// Index parses, normalises, embeds, and stores one document.
// Chunk IDs are content-derived, so re-indexing an unchanged document
// overwrites existing points instead of growing the collection.
func (s *IngestService) Index(ctx context.Context, req driving.IndexRequest) (*domain.IndexReport, error) {
	if strings.TrimSpace(req.Path) == "" {
		return nil, fmt.Errorf("%w: document path is empty", domain.ErrInvalidInput)
	}
	documentID := filepath.Base(req.Path)

	logger.Section("Indexing " + documentID)
	logger.Info("Document: %s", req.Path)
	logger.Info("Collection: %s, model: %s (%d dimensions)",
		s.collection, s.embedder.ModelName(), s.embedder.Dimensions())

	// 1. PARSE into typed fragments
	report(req.Progress, "parse", 0, 1)
	fragments, err := s.parser.Parse(ctx, req.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrParseFailure, err)
	}
	report(req.Progress, "parse", 1, 1)
	logger.Info("Parsed %d fragments", len(fragments))

	// 2. ENSURE COLLECTION before any model calls so a dimension
	// mismatch aborts without wasted captioning work
	if err := s.vectors.EnsureCollection(ctx, s.embedder.Dimensions()); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	// 3. NORMALISE fragments into chunks (captions images)
	chunks, skipped, err := s.normalise(ctx, documentID, fragments, req.Progress)
	if err != nil {
		return nil, err
	}
	logger.Info("Normalised %d chunks (%d fragments skipped)", len(chunks), skipped)

	rep := &domain.IndexReport{
		DocumentID:       documentID,
		Collection:       s.collection,
		FragmentsSkipped: skipped,
		EmbeddingModel:   s.embedder.ModelName(),
		Dimensions:       s.embedder.Dimensions(),
	}

	if len(chunks) == 0 {
		// A document with no indexable content is reported, not failed.
		logger.Warn("No indexable content in %s", documentID)
		return rep, nil
	}

	// 4. EMBED chunk texts in batches
	vectors, err := s.embedChunks(ctx, chunks, req.Progress)
	if err != nil {
		return nil, err
	}

	// 5. UPSERT keyed by chunk ID
	report(req.Progress, "index", 0, len(vectors))
	if err := s.vectors.Upsert(ctx, vectors); err != nil {
		return nil, fmt.Errorf("upsert vectors: %w", err)
	}
	report(req.Progress, "index", len(vectors), len(vectors))

	rep.ChunksIndexed = len(chunks)
	logger.Info("Indexed %d chunks into %q", len(chunks), s.collection)
	return rep, nil
}

// normalise converts parser fragments into indexable chunks. Image
// fragments are captioned; a caption failure skips the fragment and
// the run continues. The chunk ordinal is the fragment's position in
// document order, which keeps chunk IDs stable across re-parses.
func (s *IngestService) normalise(
	ctx context.Context,
	documentID string,
	fragments []domain.Fragment,
	progress func(stage string, done, total int),
) ([]domain.Chunk, int, error) {
	chunks := make([]domain.Chunk, 0, len(fragments))
	skipped := 0

	for i, frag := range fragments {
		report(progress, "normalise", i, len(fragments))

		var text string
		switch frag.Type {
		case domain.FragmentText:
			text = strings.TrimSpace(frag.Text)

		case domain.FragmentTable:
			text = s.renderTable(frag)

		case domain.FragmentImage:
			caption, err := s.captionImage(ctx, frag)
			if err != nil {
				if ctx.Err() != nil {
					return nil, 0, ctx.Err()
				}
				logger.Warn("Skipping image on page %d: %v", frag.Page, err)
				skipped++
				continue
			}
			text = caption
		}

		// Empty text never reaches the index.
		if text == "" {
			skipped++
			continue
		}

		chunks = append(chunks, domain.NewChunk(documentID, i, frag.Type.Modality(), frag.Page, text))
	}
	report(progress, "normalise", len(fragments), len(fragments))

	return chunks, skipped, nil
}

// renderTable serialises table markup into readable row text with a
// page prefix so the chunk stands alone in retrieved context.
func (s *IngestService) renderTable(frag domain.Fragment) string {
	rendered := strings.TrimSpace(tabletext.Render(frag.Text))
	if rendered == "" {
		return ""
	}
	return fmt.Sprintf("Table on page %d:\n%s", frag.Page, rendered)
}

// captionImage describes an image fragment through the vision service.
// Caption calls are rate limited; local vision models saturate quickly.
func (s *IngestService) captionImage(ctx context.Context, frag domain.Fragment) (string, error) {
	if s.vision == nil {
		return "", errors.New("vision service not configured")
	}
	if err := s.captionLimiter.Wait(ctx); err != nil {
		return "", err
	}

	logger.Debug("Captioning image on page %d (%d bytes)", frag.Page, len(frag.Image))
	caption, err := s.vision.Caption(ctx, frag.Image)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrCaptionFailure, err)
	}
	return strings.TrimSpace(caption), nil
}

// embedChunks embeds chunk texts in batches and pairs each vector with
// its chunk for upsert.
func (s *IngestService) embedChunks(
	ctx context.Context,
	chunks []domain.Chunk,
	progress func(stage string, done, total int),
) ([]driven.IndexedVector, error) {
	vectors := make([]driven.IndexedVector, 0, len(chunks))
	report(progress, "embed", 0, len(chunks))

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		embeddings, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailure, err)
		}
		if len(embeddings) != len(texts) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
				domain.ErrEmbeddingFailure, len(embeddings), len(texts))
		}

		for i, embedding := range embeddings {
			vectors = append(vectors, driven.IndexedVector{
				Chunk:     chunks[start+i],
				Embedding: embedding,
			})
		}
		report(progress, "embed", end, len(chunks))
		logger.Debug("Embedded %d/%d chunks", end, len(chunks))
	}

	return vectors, nil
}

// report invokes the progress callback when one is set.
func report(progress func(stage string, done, total int), stage string, done, total int) {
	if progress != nil {
		progress(stage, done, total)
	}
}
