// Package domain defines the core business entities for Tome.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Fragment: A raw typed piece of a parsed document
//   - Chunk: A normalised, indexable unit of content
//   - Session: Per-conversation question/answer history
//   - Answer: The grounded result of a query
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
