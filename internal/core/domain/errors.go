package domain

import "errors"

// Domain errors represent pipeline failures by stage.
// Callers branch on these with errors.Is; user-facing messages always
// name the stage that failed rather than a generic catch-all.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrParseFailure indicates the document parser could not produce
	// fragments for the source file.
	ErrParseFailure = errors.New("document parse failed")

	// ErrCaptionFailure indicates image captioning failed for a fragment.
	// The fragment is dropped and the run continues.
	ErrCaptionFailure = errors.New("image caption failed")

	// ErrEmbeddingFailure indicates the embedding service failed or is
	// unreachable. Fatal for the operation in flight.
	ErrEmbeddingFailure = errors.New("embedding failed")

	// ErrDimensionMismatch indicates the embedding dimension is
	// incompatible with the existing collection. Fatal configuration
	// error; nothing is written.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrStoreUnavailable indicates the vector store is unreachable.
	// Fatal for the current operation; there is no fallback.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrNoResults indicates retrieval completed but found nothing.
	// Distinct from ErrStoreUnavailable so callers can tell "nothing
	// relevant" apart from "retrieval failed".
	ErrNoResults = errors.New("no matching chunks")

	// ErrGenerationFailure indicates the generation model call failed or
	// timed out. The query fails; no partial answer is returned.
	ErrGenerationFailure = errors.New("answer generation failed")

	// ErrSessionCorrupt indicates a session record could not be read.
	// Callers treat the session as empty rather than failing the query.
	ErrSessionCorrupt = errors.New("session record corrupt")
)
