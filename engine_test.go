package multirag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/multirag/blobstore"
	"github.com/hupe1980/multirag/bundle"
	"github.com/hupe1980/multirag/model"
	"github.com/hupe1980/multirag/testutil"
)

func textChunk(id, content string, page int) model.Chunk {
	return model.Chunk{ID: id, Modality: model.ModalityText, Page: page, Content: content}
}

func imageChunk(id string, page int) model.Chunk {
	return model.Chunk{ID: id, Modality: model.ModalityImage, Page: page, Content: id}
}

func TestEngineQueryValidation(t *testing.T) {
	ctx := context.Background()
	e, err := New(testutil.NewStaticEmbedder(4), blobstore.NewMemoryStore())
	require.NoError(t, err)

	t.Run("EmptyQuestion", func(t *testing.T) {
		_, err := e.Query(ctx, "", 5)
		assert.ErrorIs(t, err, ErrEmptyQuery)

		_, err = e.Query(ctx, "   ", 5)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("BeforeIngest", func(t *testing.T) {
		_, err := e.Query(ctx, "anything", 5)
		assert.ErrorIs(t, err, ErrNotInitialized)
	})

	t.Run("InvalidK", func(t *testing.T) {
		_, err := e.Query(ctx, "anything", 0)
		assert.ErrorIs(t, err, ErrInvalidK)
	})
}

func TestEngineRanking(t *testing.T) {
	ctx := context.Background()

	// Plant cosine similarities to the query of 0.9, 0.3 and 0.7.
	embedder := testutil.NewStaticEmbedder(2).
		Set("the question", []float32{1, 0}).
		Set("passage one", []float32{0.9, 0.43589}).
		Set("passage two", []float32{0.3, 0.95394}).
		Set("passage three", []float32{0.7, 0.71414})

	e, err := New(embedder, blobstore.NewMemoryStore())
	require.NoError(t, err)

	chunks := []model.Chunk{
		textChunk("c1", "passage one", 0),
		textChunk("c2", "passage two", 0),
		textChunk("c3", "passage three", 1),
	}
	require.NoError(t, e.Ingest(ctx, chunks))
	assert.True(t, e.Ready())

	result, err := e.Query(ctx, "the question", 2)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "c1", result[0].Chunk.ID)
	assert.Equal(t, "c3", result[1].Chunk.ID)
	assert.InDelta(t, 0.9, result[0].Score, 1e-3)
	assert.InDelta(t, 0.7, result[1].Score, 1e-3)
}

func TestEngineFewerThanK(t *testing.T) {
	ctx := context.Background()
	e, err := New(testutil.NewStaticEmbedder(4), blobstore.NewMemoryStore())
	require.NoError(t, err)

	require.NoError(t, e.Ingest(ctx, []model.Chunk{
		textChunk("a", "alpha", 0),
		textChunk("b", "beta", 0),
	}))

	result, err := e.Query(ctx, "alpha", 10)
	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestEngineReingestReplaces(t *testing.T) {
	ctx := context.Background()
	e, err := New(testutil.NewStaticEmbedder(4), blobstore.NewMemoryStore())
	require.NoError(t, err)

	require.NoError(t, e.Ingest(ctx, []model.Chunk{
		textChunk("a1", "document A passage", 0),
	}))
	require.NoError(t, e.Ingest(ctx, []model.Chunk{
		textChunk("b1", "document B passage", 0),
		textChunk("b2", "document B second passage", 1),
	}))

	result, err := e.Query(ctx, "anything at all", 10)
	require.NoError(t, err)
	require.Len(t, result, 2, "only document B must be retrievable")
	for _, sc := range result {
		assert.NotEqual(t, "a1", sc.Chunk.ID)
	}
}

func TestEngineIngestAbortLeavesEmpty(t *testing.T) {
	ctx := context.Background()

	inner := testutil.NewStaticEmbedder(4)
	embedder := testutil.NewFailingEmbedder(inner, "second passage")

	e, err := New(embedder, blobstore.NewMemoryStore(), WithEmbedConcurrency(1))
	require.NoError(t, err)

	// A prior document is present.
	require.NoError(t, e.Ingest(ctx, []model.Chunk{textChunk("old", "old passage", 0)}))

	err = e.Ingest(ctx, []model.Chunk{
		textChunk("n1", "first passage", 0),
		textChunk("n2", "second passage", 0),
		textChunk("n3", "third passage", 1),
	})
	require.Error(t, err)
	assert.True(t, IsEmbeddingError(err))

	// Mid-batch failure leaves the index cleared, not half-populated and
	// not the prior document.
	assert.False(t, e.Ready())
	_, err = e.Query(ctx, "anything", 5)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestEngineEmptyIngest(t *testing.T) {
	ctx := context.Background()
	e, err := New(testutil.NewStaticEmbedder(4), blobstore.NewMemoryStore())
	require.NoError(t, err)

	assert.Error(t, e.Ingest(ctx, nil))
	assert.False(t, e.Ready())
}

func TestEngineMultimodalQueryAndAssembly(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()

	embedder := testutil.NewStaticEmbedder(2).
		Set("figure question", []float32{1, 0}).
		Set("caption passage", []float32{0.95, 0.31225}).
		Set("page0/fig0", []float32{0.9, 0.43589})

	e, err := New(embedder, blobs)
	require.NoError(t, err)

	require.NoError(t, blobs.Put(ctx, "page0/fig0", []byte{0x89, 'P', 'N', 'G'}, "image/png"))
	require.NoError(t, e.Ingest(ctx, []model.Chunk{
		textChunk("t0", "caption passage", 0),
		imageChunk("page0/fig0", 0),
	}))

	// The backing blob disappears after ingestion.
	require.NoError(t, blobs.Delete(ctx, "page0/fig0"))

	result, err := e.Query(ctx, "figure question", 5)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "t0", result[0].Chunk.ID)
	assert.Equal(t, "page0/fig0", result[1].Chunk.ID)

	// Assembly drops the unresolvable image without failing the query.
	b, err := bundle.New(blobs).Assemble(ctx, result)
	require.NoError(t, err)
	require.Len(t, b.TextSegments, 1)
	assert.Equal(t, "caption passage", b.TextSegments[0].Text)
	assert.Empty(t, b.Images)
}

func TestEngineImageChunkMissingBlobAbortsIngest(t *testing.T) {
	ctx := context.Background()
	e, err := New(testutil.NewStaticEmbedder(4), blobstore.NewMemoryStore())
	require.NoError(t, err)

	err = e.Ingest(ctx, []model.Chunk{imageChunk("page0/fig0", 0)})
	require.Error(t, err)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
	assert.False(t, e.Ready())
}

func TestEngineMetrics(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}

	e, err := New(testutil.NewStaticEmbedder(4), blobstore.NewMemoryStore(),
		WithMetricsCollector(metrics))
	require.NoError(t, err)

	require.NoError(t, e.Ingest(ctx, []model.Chunk{textChunk("a", "alpha", 0)}))
	_, _ = e.Query(ctx, "alpha", 1)
	_, _ = e.Query(ctx, "", 1)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.IngestRuns)
	assert.Equal(t, int64(1), stats.IngestChunks)
	assert.Equal(t, int64(2), stats.QueryCount)
	assert.Equal(t, int64(1), stats.QueryErrors)
}

func TestIsUserError(t *testing.T) {
	assert.True(t, IsUserError(ErrEmptyQuery))
	assert.True(t, IsUserError(ErrNotInitialized))
	assert.True(t, IsUserError(ErrInvalidK))
	assert.False(t, IsUserError(assert.AnError))
}
