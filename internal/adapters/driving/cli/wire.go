package cli

import (
	"fmt"

	"github.com/custodia-labs/tome-cli/internal/adapters/driven/ai"
	configfile "github.com/custodia-labs/tome-cli/internal/adapters/driven/config/file"
	sessionsqlite "github.com/custodia-labs/tome-cli/internal/adapters/driven/sessions/sqlite"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tome-cli/internal/core/services"
)

// installPrompts points every prompt-aware service at the user's
// prompt files. Missing files fall back to embedded defaults, so a
// store that cannot be created is skipped rather than fatal.
func installPrompts(candidates ...any) {
	store, err := configfile.NewPromptStore("")
	if err != nil {
		return
	}
	for _, c := range candidates {
		if aware, ok := c.(driven.PromptStoreAware); ok {
			aware.SetPromptStore(store)
		}
	}
}

// wireIngest builds the backends the index command needs and installs
// the ingest service. The returned cleanup closes the backends.
func wireIngest() (func(), error) {
	backends := &ai.Backends{}
	var err error

	backends.Parser = ai.CreateParser(cfg.Parser)

	if backends.Vision, err = ai.CreateAndValidateVisionService(cfg.Vision); err != nil {
		backends.Close()
		return nil, err
	}
	if backends.Embedding, err = ai.CreateAndValidateEmbeddingService(cfg.Embedding); err != nil {
		backends.Close()
		return nil, err
	}
	if backends.Vectors, err = ai.CreateAndValidateVectorIndex(cfg.Vector); err != nil {
		backends.Close()
		return nil, err
	}

	installPrompts(backends.Vision)

	ingestService = services.NewIngestService(
		backends.Parser, backends.Vision, backends.Embedding, backends.Vectors,
		cfg.Vector.Collection,
	)

	return func() {
		backends.Close()
		ingestService = nil
	}, nil
}

// wireQuery builds the backends the ask command needs and installs the
// query service.
func wireQuery() (func(), error) {
	backends := &ai.Backends{}
	var err error

	if backends.Embedding, err = ai.CreateAndValidateEmbeddingService(cfg.Embedding); err != nil {
		backends.Close()
		return nil, err
	}
	if backends.Vectors, err = ai.CreateAndValidateVectorIndex(cfg.Vector); err != nil {
		backends.Close()
		return nil, err
	}
	if backends.LLM, err = ai.CreateAndValidateLLMService(cfg.LLM); err != nil {
		backends.Close()
		return nil, err
	}

	store, err := sessionsqlite.NewStore(cfg.Sessions.DataDir)
	if err != nil {
		backends.Close()
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	svc := services.NewQueryService(backends.Embedding, backends.Vectors, backends.LLM, store.SessionStore())
	installPrompts(backends.LLM, svc)
	queryService = svc

	return func() {
		store.Close()
		backends.Close()
		queryService = nil
	}, nil
}

// wireSessions opens the session store for the sessions command.
func wireSessions() (func(), error) {
	store, err := sessionsqlite.NewStore(cfg.Sessions.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	sessionService = services.NewSessionService(store.SessionStore())

	return func() {
		store.Close()
		sessionService = nil
	}, nil
}

// wireAll builds every backend once and installs all services sharing
// them. The MCP server serves indexing and querying over the same
// connections.
func wireAll() (func(), error) {
	backends := &ai.Backends{}
	var err error

	backends.Parser = ai.CreateParser(cfg.Parser)

	if backends.Vision, err = ai.CreateAndValidateVisionService(cfg.Vision); err != nil {
		backends.Close()
		return nil, err
	}
	if backends.Embedding, err = ai.CreateAndValidateEmbeddingService(cfg.Embedding); err != nil {
		backends.Close()
		return nil, err
	}
	if backends.LLM, err = ai.CreateAndValidateLLMService(cfg.LLM); err != nil {
		backends.Close()
		return nil, err
	}
	if backends.Vectors, err = ai.CreateAndValidateVectorIndex(cfg.Vector); err != nil {
		backends.Close()
		return nil, err
	}

	store, err := sessionsqlite.NewStore(cfg.Sessions.DataDir)
	if err != nil {
		backends.Close()
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	query := services.NewQueryService(backends.Embedding, backends.Vectors, backends.LLM, store.SessionStore())
	installPrompts(backends.Vision, backends.LLM, query)

	ingestService = services.NewIngestService(
		backends.Parser, backends.Vision, backends.Embedding, backends.Vectors,
		cfg.Vector.Collection,
	)
	queryService = query
	sessionService = services.NewSessionService(store.SessionStore())

	return func() {
		store.Close()
		backends.Close()
		ingestService = nil
		queryService = nil
		sessionService = nil
	}, nil
}
