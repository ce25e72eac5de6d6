package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewChunk_Deterministic(t *testing.T) {
	a := NewChunk("/docs/report.pdf", 3, ModalityText, 7, "The tower is 20 m tall.")
	b := NewChunk("/docs/report.pdf", 3, ModalityText, 7, "The tower is 20 m tall.")

	assert.Equal(t, a.ID, b.ID, "identical inputs must produce identical IDs")
	assert.Equal(t, a, b)
}

func TestNewChunk_IDSensitivity(t *testing.T) {
	base := NewChunk("/docs/report.pdf", 0, ModalityText, 1, "hello")

	tests := []struct {
		name  string
		chunk Chunk
	}{
		{"different document", NewChunk("/docs/other.pdf", 0, ModalityText, 1, "hello")},
		{"different ordinal", NewChunk("/docs/report.pdf", 1, ModalityText, 1, "hello")},
		{"different text", NewChunk("/docs/report.pdf", 0, ModalityText, 1, "goodbye")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base.ID, tt.chunk.ID)
		})
	}
}

func TestNewChunk_IDIgnoresPresentation(t *testing.T) {
	// Page and modality describe provenance, not identity. Re-parsing a
	// document must yield the same IDs even if page detection shifts.
	a := NewChunk("/docs/report.pdf", 2, ModalityTable, 4, "A | B")
	b := NewChunk("/docs/report.pdf", 2, ModalityText, 9, "A | B")

	assert.Equal(t, a.ID, b.ID)
}

func TestNewChunk_Fields(t *testing.T) {
	c := NewChunk("/docs/report.pdf", 5, ModalityImage, 12, "Diagram of the pump assembly.")

	assert.Equal(t, "/docs/report.pdf", c.DocumentID)
	assert.Equal(t, ModalityImage, c.Modality)
	assert.Equal(t, 12, c.Page)
	assert.Equal(t, "Diagram of the pump assembly.", c.Text)
	assert.Len(t, c.ID, 32)
}

func TestModality_IsValid(t *testing.T) {
	tests := []struct {
		modality Modality
		valid    bool
	}{
		{ModalityText, true},
		{ModalityTable, true},
		{ModalityImage, true},
		{Modality("video"), false},
		{Modality(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.modality), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.modality.IsValid())
		})
	}
}

func TestModality_String(t *testing.T) {
	assert.Equal(t, "text", ModalityText.String())
	assert.Equal(t, "table", ModalityTable.String())
	assert.Equal(t, "image", ModalityImage.String())
}
