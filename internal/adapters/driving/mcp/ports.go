package mcp

import (
	"github.com/custodia-labs/tome-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions over the indexed corpus.
	Query driving.QueryService

	// Ingest indexes documents into the vector store.
	Ingest driving.IngestService

	// Sessions exposes stored conversations.
	Sessions driving.SessionService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	// Ingest and Sessions are optional; the index_document tool and the
	// session resources report unavailability instead.
	return nil
}
