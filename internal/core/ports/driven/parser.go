package driven

import (
	"context"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
)

// DocumentParser splits a source document into typed fragments.
// Fragments preserve document order; the normaliser depends on that
// order to assign stable chunk identities.
//
// Implementations may include:
//   - Unstructured (hi_res partitioning over a local or hosted API)
//   - Plain text splitters for formats that need no layout analysis
type DocumentParser interface {
	// Parse reads the document at path and returns its fragments in
	// document order. A document that yields no fragments is not an
	// error; the caller decides how to report an empty result.
	Parse(ctx context.Context, path string) ([]domain.Fragment, error)

	// Ping validates the parsing service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
