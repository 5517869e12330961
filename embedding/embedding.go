package embedding

import (
	"context"
	"fmt"

	"github.com/hupe1980/multirag/blobstore"
)

// Embedder is the uniform interface to an embedding provider.
//
// Both methods must return unit-normalized vectors of the same fixed
// dimensionality for the lifetime of the adapter.
type Embedder interface {
	// EmbedText embeds a text passage or query.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedImage embeds an image payload into the same vector space.
	EmbedImage(ctx context.Context, blob blobstore.ImageBlob) ([]float32, error)

	// Dimension returns the fixed vector dimensionality.
	Dimension() int

	// ModelInfo returns a human-readable model identifier.
	ModelInfo() string
}

// Error reports an embedding provider failure: unreachable provider,
// malformed input, or a contract violation in the provider's response.
// It is surfaced to the caller, never retried internally.
type Error struct {
	// Op is the failing operation, "embed_text" or "embed_image".
	Op string
	// Cause is the underlying error.
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("embedding: %s: %v", e.Op, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// TruncateText deterministically truncates s to at most maxRunes runes.
// Truncation always cuts at a rune boundary, so repeated calls on the same
// input yield the same output.
func TruncateText(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == maxRunes {
			return s[:i]
		}
		count++
	}
	return s
}
