package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/multirag/blobstore"
)

type countingEmbedder struct {
	textCalls  int
	imageCalls int
}

func (c *countingEmbedder) EmbedText(_ context.Context, _ string) ([]float32, error) {
	c.textCalls++
	return []float32{1, 0}, nil
}

func (c *countingEmbedder) EmbedImage(_ context.Context, _ blobstore.ImageBlob) ([]float32, error) {
	c.imageCalls++
	return []float32{0, 1}, nil
}

func (c *countingEmbedder) Dimension() int    { return 2 }
func (c *countingEmbedder) ModelInfo() string { return "counting" }

func TestRateLimitedDelegates(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{}
	rl := NewRateLimited(inner, 100, 10)

	v, err := rl.EmbedText(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, v)
	assert.Equal(t, 1, inner.textCalls)

	v, err = rl.EmbedImage(ctx, blobstore.ImageBlob{ID: "x", Data: []byte("y")})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, v)
	assert.Equal(t, 1, inner.imageCalls)

	assert.Equal(t, 2, rl.Dimension())
	assert.Equal(t, "counting", rl.ModelInfo())
}

func TestRateLimitedCancellation(t *testing.T) {
	inner := &countingEmbedder{}
	// Tiny rate so the second call has to wait.
	rl := NewRateLimited(inner, 0.001, 2)

	ctx := context.Background()
	_, err := rl.EmbedText(ctx, "first")
	require.NoError(t, err)
	_, err = rl.EmbedText(ctx, "second")
	require.NoError(t, err)

	cancelled, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()

	_, err = rl.EmbedText(cancelled, "third")
	var ee *Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 0, inner.textCalls-2, "inner must not be called after limiter expiry")
}
