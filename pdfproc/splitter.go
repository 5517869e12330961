package pdfproc

import (
	"strings"
	"unicode"
)

// SplitterOptions contains configuration options for the text splitter.
type SplitterOptions struct {
	// ChunkSize is the maximum passage length in runes.
	ChunkSize int
	// Overlap is how many runes consecutive passages share.
	Overlap int
}

// DefaultSplitterOptions mirrors the ingestion defaults of the upstream
// document pipeline: 1000-rune passages with a 200-rune overlap.
var DefaultSplitterOptions = SplitterOptions{
	ChunkSize: 1000,
	Overlap:   200,
}

// Splitter cuts narrative text into overlapping passages.
// Splitting is fully deterministic: the same input always yields the same
// passages.
type Splitter struct {
	opts SplitterOptions
}

// NewSplitter creates a splitter.
func NewSplitter(optFns ...func(o *SplitterOptions)) *Splitter {
	opts := DefaultSplitterOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultSplitterOptions.ChunkSize
	}
	if opts.Overlap < 0 || opts.Overlap >= opts.ChunkSize {
		opts.Overlap = opts.ChunkSize / 5
	}
	return &Splitter{opts: opts}
}

// Split returns the passages of text. Boundaries prefer whitespace within
// the second half of a window so words are rarely cut.
func (s *Splitter) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.opts.ChunkSize {
		return []string{string(runes)}
	}

	var passages []string
	start := 0
	for start < len(runes) {
		end := start + s.opts.ChunkSize
		if end >= len(runes) {
			passages = append(passages, strings.TrimSpace(string(runes[start:])))
			break
		}

		// Back off to the nearest whitespace, but never past the window midpoint.
		cut := end
		for cut > start+s.opts.ChunkSize/2 && !unicode.IsSpace(runes[cut-1]) {
			cut--
		}
		if cut == start+s.opts.ChunkSize/2 {
			cut = end
		}

		passage := strings.TrimSpace(string(runes[start:cut]))
		if passage != "" {
			passages = append(passages, passage)
		}

		next := cut - s.opts.Overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return passages
}
