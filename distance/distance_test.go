package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	assert.Equal(t, float32(32), Dot([]float32{1, 2, 3}, []float32{4, 5, 6}))
	assert.Equal(t, float32(0), Dot([]float32{1, 0}, []float32{0, 1}))
	assert.Equal(t, float32(0), Dot(nil, nil))
}

func TestCosine(t *testing.T) {
	t.Run("Parallel", func(t *testing.T) {
		assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{5, 0}), 1e-6)
	})

	t.Run("Orthogonal", func(t *testing.T) {
		assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 3}), 1e-6)
	})

	t.Run("Opposite", func(t *testing.T) {
		assert.InDelta(t, -1.0, Cosine([]float32{2, 0}, []float32{-1, 0}), 1e-6)
	})

	t.Run("ZeroNorm", func(t *testing.T) {
		assert.Equal(t, float32(0), Cosine([]float32{0, 0}, []float32{1, 2}))
	})
}

func TestNormalizeL2InPlace(t *testing.T) {
	v := []float32{3, 4}
	ok := NormalizeL2InPlace(v)
	require.True(t, ok)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
	assert.InDelta(t, 1.0, Norm(v), 1e-6)

	assert.False(t, NormalizeL2InPlace([]float32{0, 0, 0}))
	assert.False(t, NormalizeL2InPlace(nil))
}

func TestNormalizeL2Copy(t *testing.T) {
	src := []float32{0, 5}
	dst, ok := NormalizeL2Copy(src)
	require.True(t, ok)
	assert.Equal(t, []float32{0, 5}, src, "source must not be mutated")
	assert.InDelta(t, 1.0, Norm(dst), 1e-6)

	_, ok = NormalizeL2Copy([]float32{})
	assert.False(t, ok)
}

func TestIsUnitNorm(t *testing.T) {
	inv := float32(1 / math.Sqrt(3))
	assert.True(t, IsUnitNorm([]float32{inv, inv, inv}, 1e-4))
	assert.False(t, IsUnitNorm([]float32{1, 1}, 1e-4))
	assert.False(t, IsUnitNorm(nil, 1e-4))
}
