package embedding

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/hupe1980/multirag/blobstore"
)

// Compile-time check.
var _ Embedder = (*RateLimited)(nil)

// RateLimited wraps an Embedder and throttles provider calls.
// Image embeddings count double since they involve a captioning call in
// addition to the embedding call.
type RateLimited struct {
	inner   Embedder
	limiter *rate.Limiter
}

// NewRateLimited wraps inner with a token-bucket limiter allowing rps calls
// per second with the given burst.
func NewRateLimited(inner Embedder, rps float64, burst int) *RateLimited {
	if burst < 2 {
		// WaitN(ctx, 2) would never be satisfiable below 2.
		burst = 2
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// EmbedText waits for limiter capacity, then delegates.
func (r *RateLimited) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, &Error{Op: "embed_text", Cause: err}
	}
	return r.inner.EmbedText(ctx, text)
}

// EmbedImage waits for limiter capacity, then delegates.
func (r *RateLimited) EmbedImage(ctx context.Context, blob blobstore.ImageBlob) ([]float32, error) {
	if err := r.limiter.WaitN(ctx, 2); err != nil {
		return nil, &Error{Op: "embed_image", Cause: err}
	}
	return r.inner.EmbedImage(ctx, blob)
}

// Dimension delegates to the wrapped embedder.
func (r *RateLimited) Dimension() int { return r.inner.Dimension() }

// ModelInfo delegates to the wrapped embedder.
func (r *RateLimited) ModelInfo() string { return r.inner.ModelInfo() }
