// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/tome-cli/internal/adapters/driven/embedding/ollama"
	ollamallm "github.com/custodia-labs/tome-cli/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/tome-cli/internal/adapters/driven/parser/unstructured"
	memorystore "github.com/custodia-labs/tome-cli/internal/adapters/driven/vectorstore/memory"
	"github.com/custodia-labs/tome-cli/internal/adapters/driven/vectorstore/qdrant"
	ollamavision "github.com/custodia-labs/tome-cli/internal/adapters/driven/vision/ollama"
	"github.com/custodia-labs/tome-cli/internal/config"
	"github.com/custodia-labs/tome-cli/internal/core/domain"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Backends bundles the driven services a command wires together.
// Fields are nil when the command does not need them or the
// corresponding feature is disabled.
type Backends struct {
	Parser    driven.DocumentParser
	Vision    driven.VisionService
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
	Vectors   driven.VectorIndex
}

// Close releases all resources held by Backends.
func (b *Backends) Close() {
	if b.Parser != nil {
		b.Parser.Close()
	}
	if b.Vision != nil {
		b.Vision.Close()
	}
	if b.Embedding != nil {
		b.Embedding.Close()
	}
	if b.LLM != nil {
		b.LLM.Close()
	}
	if b.Vectors != nil {
		b.Vectors.Close()
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(cfg config.EmbeddingConfig) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'tome doctor' to diagnose",
			domain.ErrEmbeddingFailure, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'tome doctor' to diagnose",
			domain.ErrEmbeddingFailure, err)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(cfg config.LLMConfig) (driven.LLMService, error) {
	svc, err := CreateLLMService(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'tome doctor' to diagnose",
			domain.ErrGenerationFailure, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'tome doctor' to diagnose",
			domain.ErrGenerationFailure, err)
	}

	return svc, nil
}

// CreateAndValidateVisionService creates a vision service and validates connectivity.
// Returns (nil, nil) when captioning is disabled: images are then skipped
// during indexing rather than captioned.
func CreateAndValidateVisionService(cfg config.VisionConfig) (driven.VisionService, error) {
	svc, err := CreateVisionService(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'tome doctor' to diagnose",
			domain.ErrCaptionFailure, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'tome doctor' to diagnose",
			domain.ErrCaptionFailure, err)
	}

	return svc, nil
}

// CreateAndValidateVectorIndex creates a vector index and validates connectivity.
// Returns the index if successful, or an error with guidance.
func CreateAndValidateVectorIndex(cfg config.VectorConfig) (driven.VectorIndex, error) {
	idx, err := CreateVectorIndex(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := idx.Ping(ctx); err != nil {
		idx.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'tome doctor' to diagnose",
			domain.ErrStoreUnavailable, err)
	}

	return idx, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on config.
func CreateEmbeddingService(cfg config.EmbeddingConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case config.AIProviderOllama:
		return createOllamaEmbedding(cfg), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on config.
func CreateLLMService(cfg config.LLMConfig) (driven.LLMService, error) {
	switch cfg.Provider {
	case config.AIProviderOllama:
		return createOllamaLLM(cfg), nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// CreateVisionService creates the appropriate vision service based on config.
// Returns nil if captioning is disabled.
func CreateVisionService(cfg config.VisionConfig) (driven.VisionService, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Provider {
	case config.AIProviderOllama:
		return createOllamaVision(cfg), nil

	default:
		return nil, fmt.Errorf("unsupported vision provider: %s", cfg.Provider)
	}
}

// CreateVectorIndex creates the vector index named by config.
// The memory provider holds vectors for the life of the process and is
// intended for tests and experiments, not persistent indexing.
func CreateVectorIndex(cfg config.VectorConfig) (driven.VectorIndex, error) {
	switch cfg.Provider {
	case "qdrant", "":
		return qdrant.NewStore(qdrant.Config{
			URL:        cfg.URL,
			APIKey:     cfg.APIKey,
			Collection: cfg.Collection,
		}), nil

	case "memory":
		return memorystore.NewStore(), nil

	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", cfg.Provider)
	}
}

// CreateParser creates the document parser from config.
func CreateParser(cfg config.ParserConfig) driven.DocumentParser {
	return unstructured.New(unstructured.Config{
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
		Strategy: cfg.Strategy,
	})
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(cfg config.EmbeddingConfig) driven.EmbeddingService {
	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = config.EmbeddingDimensions()[cfg.Model]
	}
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: dimensions,
	})
}

// createOllamaLLM creates an Ollama LLM service.
func createOllamaLLM(cfg config.LLMConfig) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
}

// createOllamaVision creates an Ollama vision service.
func createOllamaVision(cfg config.VisionConfig) driven.VisionService {
	return ollamavision.NewVisionService(ollamavision.VisionConfig{
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
}
