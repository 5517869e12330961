package flat

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/multirag/index"
	"github.com/hupe1980/multirag/model"
)

func textChunk(id string, seq uint64) model.Chunk {
	return model.Chunk{ID: id, Modality: model.ModalityText, Content: id, Seq: seq}
}

func TestFlat(t *testing.T) {
	ctx := context.Background()

	t.Run("Insert", func(t *testing.T) {
		f := New()

		err := f.Insert(ctx, []float32{1, 0, 0}, textChunk("a", 0))
		require.NoError(t, err)
		assert.Equal(t, 1, f.Len())
		assert.Equal(t, 3, f.Dimension())

		// First insert fixed the dimension
		err = f.Insert(ctx, []float32{1, 0}, textChunk("b", 1))
		assert.IsType(t, &index.ErrDimensionMismatch{}, err)

		err = f.Insert(ctx, nil, textChunk("c", 2))
		assert.ErrorIs(t, err, index.ErrEmptyVector)

		err = f.Insert(ctx, []float32{0, 0, 0}, textChunk("d", 3))
		assert.Error(t, err)
	})

	t.Run("SearchEmpty", func(t *testing.T) {
		f := New()

		_, err := f.Search(ctx, []float32{1, 0}, 3)
		assert.ErrorIs(t, err, index.ErrNotInitialized)
	})

	t.Run("SearchInvalidK", func(t *testing.T) {
		f := New()
		require.NoError(t, f.Insert(ctx, []float32{1, 0}, textChunk("a", 0)))

		_, err := f.Search(ctx, []float32{1, 0}, 0)
		assert.ErrorIs(t, err, index.ErrInvalidK)
	})

	t.Run("SearchOrdering", func(t *testing.T) {
		f := New()

		// Cosine similarities against the query {1,0}: 0.9..., 0.3..., 0.7...
		require.NoError(t, f.Insert(ctx, unit(0.9), textChunk("chunk1", 0)))
		require.NoError(t, f.Insert(ctx, unit(0.3), textChunk("chunk2", 1)))
		require.NoError(t, f.Insert(ctx, unit(0.7), textChunk("chunk3", 2)))

		result, err := f.Search(ctx, []float32{1, 0}, 2)
		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, "chunk1", result[0].Chunk.ID)
		assert.Equal(t, "chunk3", result[1].Chunk.ID)
		assert.InDelta(t, 0.9, result[0].Score, 1e-4)
		assert.InDelta(t, 0.7, result[1].Score, 1e-4)
	})

	t.Run("TieBreakBySequence", func(t *testing.T) {
		f := New()

		// Identical vectors, inserted out of sequence order.
		require.NoError(t, f.Insert(ctx, []float32{1, 0}, textChunk("later", 5)))
		require.NoError(t, f.Insert(ctx, []float32{1, 0}, textChunk("earlier", 2)))
		require.NoError(t, f.Insert(ctx, []float32{1, 0}, textChunk("middle", 3)))

		result, err := f.Search(ctx, []float32{1, 0}, 3)
		require.NoError(t, err)
		require.Len(t, result, 3)
		assert.Equal(t, "earlier", result[0].Chunk.ID)
		assert.Equal(t, "middle", result[1].Chunk.ID)
		assert.Equal(t, "later", result[2].Chunk.ID)
	})

	t.Run("FewerThanK", func(t *testing.T) {
		f := New()
		require.NoError(t, f.Insert(ctx, []float32{1, 0}, textChunk("a", 0)))
		require.NoError(t, f.Insert(ctx, []float32{0, 1}, textChunk("b", 1)))

		result, err := f.Search(ctx, []float32{1, 0}, 10)
		require.NoError(t, err)
		assert.Len(t, result, 2)
	})

	t.Run("QueryDimensionMismatch", func(t *testing.T) {
		f := New()
		require.NoError(t, f.Insert(ctx, []float32{1, 0, 0}, textChunk("a", 0)))

		_, err := f.Search(ctx, []float32{1, 0}, 1)
		var dm *index.ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 3, dm.Expected)
		assert.Equal(t, 2, dm.Actual)
	})

	t.Run("DefensiveQueryNormalization", func(t *testing.T) {
		f := New()
		require.NoError(t, f.Insert(ctx, []float32{1, 0}, textChunk("a", 0)))

		// A non-unit query must score identically to its normalized form.
		result, err := f.Search(ctx, []float32{10, 0}, 1)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, result[0].Score, 1e-4)
	})

	t.Run("Clear", func(t *testing.T) {
		f := New()
		require.NoError(t, f.Insert(ctx, []float32{1, 0}, textChunk("a", 0)))

		f.Clear()
		f.Clear() // idempotent
		assert.Equal(t, 0, f.Len())
		assert.Equal(t, 0, f.Dimension())

		_, err := f.Search(ctx, []float32{1, 0}, 1)
		assert.ErrorIs(t, err, index.ErrNotInitialized)

		// A cleared index accepts a new dimensionality.
		require.NoError(t, f.Insert(ctx, []float32{1, 0, 0}, textChunk("b", 1)))
		assert.Equal(t, 3, f.Dimension())
	})
}

// unit returns a 2D unit vector whose cosine similarity to {1,0} is c.
func unit(c float64) []float32 {
	s := 1 - c*c
	if s < 0 {
		s = 0
	}
	return []float32{float32(c), float32(math.Sqrt(s))}
}

func TestFlatConcurrentSearch(t *testing.T) {
	ctx := context.Background()
	f := New()

	for i := 0; i < 50; i++ {
		require.NoError(t, f.Insert(ctx, unit(float64(i)/50), textChunk(fmt.Sprintf("c%d", i), uint64(i))))
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				result, err := f.Search(ctx, []float32{1, 0}, 5)
				assert.NoError(t, err)
				assert.Len(t, result, 5)
			}
		}()
	}
	wg.Wait()
}
