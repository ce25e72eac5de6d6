package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Modality identifies the kind of content a chunk was normalised from.
type Modality string

const (
	// ModalityText is verbatim narrative text.
	ModalityText Modality = "text"

	// ModalityTable is a table serialised to readable row text.
	ModalityTable Modality = "table"

	// ModalityImage is a model-generated caption of an embedded image.
	ModalityImage Modality = "image"
)

// IsValid returns true if the modality is recognised.
func (m Modality) IsValid() bool {
	switch m {
	case ModalityText, ModalityTable, ModalityImage:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m Modality) String() string {
	return string(m)
}

// Chunk is the unit of indexed content. Every fragment that survives
// normalisation becomes exactly one Chunk.
type Chunk struct {
	// ID is a deterministic content hash. Identical input produces an
	// identical ID, which is what makes re-indexing idempotent.
	ID string

	// DocumentID identifies the source document.
	DocumentID string

	// Text is the normalised textual representation: verbatim for text
	// and table fragments, a generated caption for image fragments.
	// It is never empty on an indexed chunk.
	Text string

	// Modality is the content kind this chunk was derived from.
	Modality Modality

	// Page is the 1-based source page number, or 0 when unknown.
	Page int
}

// NewChunk builds a Chunk with a deterministic ID derived from the
// document, the fragment's position in the parse output, and the text.
// The ordinal keeps identical twin fragments distinct while staying
// stable across re-runs on unchanged input.
func NewChunk(documentID string, ordinal int, modality Modality, page int, text string) Chunk {
	return Chunk{
		ID:         chunkID(documentID, ordinal, text),
		DocumentID: documentID,
		Text:       text,
		Modality:   modality,
		Page:       page,
	}
}

// chunkID computes the stable chunk identifier.
func chunkID(documentID string, ordinal int, text string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%s", documentID, ordinal, text)
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// ScoredChunk pairs a chunk with its retrieval similarity score.
type ScoredChunk struct {
	// Chunk is the retrieved content.
	Chunk Chunk

	// Score is the vector store's native similarity for this query.
	Score float32
}
