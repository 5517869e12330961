package pdfproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitter(t *testing.T) {
	t.Run("ShortTextSinglePassage", func(t *testing.T) {
		s := NewSplitter()
		got := s.Split("a short paragraph")
		assert.Equal(t, []string{"a short paragraph"}, got)
	})

	t.Run("Empty", func(t *testing.T) {
		s := NewSplitter()
		assert.Nil(t, s.Split(""))
		assert.Nil(t, s.Split("   \n\t "))
	})

	t.Run("RespectsChunkSize", func(t *testing.T) {
		s := NewSplitter(func(o *SplitterOptions) {
			o.ChunkSize = 50
			o.Overlap = 10
		})
		text := strings.Repeat("lorem ipsum dolor sit amet ", 20)
		passages := s.Split(text)
		require.Greater(t, len(passages), 1)
		for _, p := range passages {
			assert.LessOrEqual(t, len([]rune(p)), 50)
			assert.NotEmpty(t, p)
		}
	})

	t.Run("OverlappingWindows", func(t *testing.T) {
		s := NewSplitter(func(o *SplitterOptions) {
			o.ChunkSize = 40
			o.Overlap = 15
		})
		text := strings.Repeat("word ", 60)
		passages := s.Split(text)
		require.Greater(t, len(passages), 2)

		// Consecutive passages share text.
		for i := 1; i < len(passages); i++ {
			tail := passages[i-1][len(passages[i-1])-4:]
			assert.Contains(t, passages[i], tail)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		s := NewSplitter(func(o *SplitterOptions) {
			o.ChunkSize = 100
			o.Overlap = 20
		})
		text := strings.Repeat("some repeated sentence about figures and tables. ", 30)
		assert.Equal(t, s.Split(text), s.Split(text))
	})

	t.Run("NoWhitespaceFallsBackToHardCut", func(t *testing.T) {
		s := NewSplitter(func(o *SplitterOptions) {
			o.ChunkSize = 10
			o.Overlap = 2
		})
		passages := s.Split(strings.Repeat("x", 35))
		require.NotEmpty(t, passages)
		total := 0
		for _, p := range passages {
			assert.LessOrEqual(t, len(p), 10)
			total += len(p)
		}
		assert.GreaterOrEqual(t, total, 35)
	})

	t.Run("InvalidOptionsNormalized", func(t *testing.T) {
		s := NewSplitter(func(o *SplitterOptions) {
			o.ChunkSize = 100
			o.Overlap = 100 // >= size would loop forever
		})
		passages := s.Split(strings.Repeat("word ", 100))
		assert.NotEmpty(t, passages)
	})
}
