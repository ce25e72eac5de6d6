package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrParseFailure", ErrParseFailure},
		{"ErrCaptionFailure", ErrCaptionFailure},
		{"ErrEmbeddingFailure", ErrEmbeddingFailure},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrStoreUnavailable", ErrStoreUnavailable},
		{"ErrNoResults", ErrNoResults},
		{"ErrGenerationFailure", ErrGenerationFailure},
		{"ErrSessionCorrupt", ErrSessionCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Uniqueness tests that all errors are distinct
func TestErrors_Uniqueness(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrParseFailure,
		ErrCaptionFailure,
		ErrEmbeddingFailure,
		ErrDimensionMismatch,
		ErrStoreUnavailable,
		ErrNoResults,
		ErrGenerationFailure,
		ErrSessionCorrupt,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j {
				assert.False(t, errors.Is(err1, err2),
					"Error %v should not match error %v", err1, err2)
			}
		}
	}
}

// TestErrors_WithWrapping tests error wrapping behaviour
func TestErrors_WithWrapping(t *testing.T) {
	wrapped := fmt.Errorf("search collection: %w", ErrStoreUnavailable)

	assert.True(t, errors.Is(wrapped, ErrStoreUnavailable))
	assert.False(t, errors.Is(wrapped, ErrNoResults))
	assert.Contains(t, wrapped.Error(), "vector store unavailable")
}

// TestErrors_StageDispatch tests branching on wrapped stage errors
func TestErrors_StageDispatch(t *testing.T) {
	testErr := fmt.Errorf("query: %w", ErrGenerationFailure)

	var stage string
	switch {
	case errors.Is(testErr, ErrEmbeddingFailure):
		stage = "embedding"
	case errors.Is(testErr, ErrStoreUnavailable):
		stage = "retrieval"
	case errors.Is(testErr, ErrGenerationFailure):
		stage = "generation"
	default:
		stage = "unknown"
	}

	assert.Equal(t, "generation", stage)
}
