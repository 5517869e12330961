package testutil

import (
	"context"
	"errors"
	"hash/fnv"

	"github.com/hupe1980/multirag/blobstore"
	"github.com/hupe1980/multirag/distance"
	"github.com/hupe1980/multirag/embedding"
)

// Compile-time checks.
var (
	_ embedding.Embedder = (*StaticEmbedder)(nil)
	_ embedding.Embedder = (*FailingEmbedder)(nil)
)

// StaticEmbedder is a deterministic in-process Embedder for tests.
//
// Inputs present in Vectors (text content for EmbedText, blob ID for
// EmbedImage) get their fixture vector, normalized; any other input gets a
// reproducible hash-derived unit vector of the same dimensionality.
type StaticEmbedder struct {
	Dim     int
	Vectors map[string][]float32
}

// NewStaticEmbedder creates a StaticEmbedder with the given dimensionality.
func NewStaticEmbedder(dim int) *StaticEmbedder {
	return &StaticEmbedder{
		Dim:     dim,
		Vectors: make(map[string][]float32),
	}
}

// Set registers a fixture vector for an input.
func (s *StaticEmbedder) Set(input string, vector []float32) *StaticEmbedder {
	s.Vectors[input] = vector
	return s
}

func (s *StaticEmbedder) vectorFor(input string) ([]float32, error) {
	if v, ok := s.Vectors[input]; ok {
		norm, ok := distance.NormalizeL2Copy(v)
		if !ok {
			return nil, errors.New("testutil: fixture vector has zero norm")
		}
		return norm, nil
	}

	// Hash fallback: deterministic, unit-normalized, dimension Dim.
	h := fnv.New64a()
	_, _ = h.Write([]byte(input))
	seed := h.Sum64()

	v := make([]float32, s.Dim)
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float32(int64(seed>>33)) / float32(1<<30)
	}
	norm, ok := distance.NormalizeL2Copy(v)
	if !ok {
		v[0] = 1
		return v, nil
	}
	return norm, nil
}

// EmbedText returns the vector registered for text, or a hash fallback.
func (s *StaticEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	return s.vectorFor(text)
}

// EmbedImage returns the vector registered for the blob ID, or a hash
// fallback.
func (s *StaticEmbedder) EmbedImage(_ context.Context, blob blobstore.ImageBlob) ([]float32, error) {
	return s.vectorFor(blob.ID)
}

// Dimension returns the configured dimensionality.
func (s *StaticEmbedder) Dimension() int { return s.Dim }

// ModelInfo identifies the fake.
func (s *StaticEmbedder) ModelInfo() string { return "static-test-embedder" }

// FailingEmbedder wraps an Embedder and fails on chosen inputs.
type FailingEmbedder struct {
	Inner embedding.Embedder
	// FailOn contains text contents / blob IDs whose embedding fails.
	FailOn map[string]struct{}
}

// NewFailingEmbedder wraps inner, failing for every input in failOn.
func NewFailingEmbedder(inner embedding.Embedder, failOn ...string) *FailingEmbedder {
	m := make(map[string]struct{}, len(failOn))
	for _, f := range failOn {
		m[f] = struct{}{}
	}
	return &FailingEmbedder{Inner: inner, FailOn: m}
}

func (f *FailingEmbedder) fail(op, input string) error {
	if _, ok := f.FailOn[input]; ok {
		return &embedding.Error{Op: op, Cause: errors.New("injected provider failure")}
	}
	return nil
}

// EmbedText fails for registered inputs, otherwise delegates.
func (f *FailingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := f.fail("embed_text", text); err != nil {
		return nil, err
	}
	return f.Inner.EmbedText(ctx, text)
}

// EmbedImage fails for registered blob IDs, otherwise delegates.
func (f *FailingEmbedder) EmbedImage(ctx context.Context, blob blobstore.ImageBlob) ([]float32, error) {
	if err := f.fail("embed_image", blob.ID); err != nil {
		return nil, err
	}
	return f.Inner.EmbedImage(ctx, blob)
}

// Dimension delegates to the wrapped embedder.
func (f *FailingEmbedder) Dimension() int { return f.Inner.Dimension() }

// ModelInfo delegates to the wrapped embedder.
func (f *FailingEmbedder) ModelInfo() string { return f.Inner.ModelInfo() }
