package bundle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hupe1980/multirag/blobstore"
	"github.com/hupe1980/multirag/model"
)

// Segment is one text passage with its page provenance.
type Segment struct {
	Page int
	Text string
}

// String returns the passage with its provenance prefix.
func (s Segment) String() string {
	return fmt.Sprintf("Page %d: %s", s.Page, s.Text)
}

// ImageRef is one resolved image payload with its page provenance.
type ImageRef struct {
	ID   string
	Page int
	MIME string
	Data []byte
	// Label is a short provenance line interleaved with the image in the
	// generator payload.
	Label string
}

// Bundle is the assembled multimodal context for one query.
// It is ephemeral, constructed per query and never persisted.
type Bundle struct {
	TextSegments []Segment
	Images       []ImageRef
}

// JoinedText returns all text segments with provenance prefixes, in rank
// order, joined by blank lines.
func (b Bundle) JoinedText() string {
	parts := make([]string, len(b.TextSegments))
	for i, s := range b.TextSegments {
		parts[i] = s.String()
	}
	return strings.Join(parts, "\n\n")
}

// Empty reports whether the bundle carries no context at all.
func (b Bundle) Empty() bool {
	return len(b.TextSegments) == 0 && len(b.Images) == 0
}

// Options contains configuration options for the assembler.
type Options struct {
	// MaxImages caps image references per bundle to bound the generator
	// payload.
	MaxImages int

	// CharBudget caps the total prefixed text length. Zero means no cap.
	// When exceeded, the lowest-ranked segments are dropped first.
	CharBudget int

	// Logger receives a warning per dropped image reference. Nil disables.
	Logger *slog.Logger
}

// DefaultOptions contains the default configuration for the assembler.
var DefaultOptions = Options{
	MaxImages: 6,
}

// Assembler builds context bundles from retrieval results, resolving image
// references through a blob store.
type Assembler struct {
	blobs blobstore.Store
	opts  Options
}

// New creates an assembler backed by the given blob store.
func New(blobs blobstore.Store, optFns ...func(o *Options)) *Assembler {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxImages <= 0 {
		opts.MaxImages = DefaultOptions.MaxImages
	}
	return &Assembler{blobs: blobs, opts: opts}
}

// Assemble partitions result by modality preserving rank order, resolves
// image references, and applies the image cap and text budget.
//
// A chunk ID appearing more than once contributes once, at its best rank.
// An image whose payload is gone is dropped rather than failing the query;
// its caption, if one was embedded as a sibling text chunk, still carries
// the information.
func (a *Assembler) Assemble(ctx context.Context, result model.RetrievalResult) (Bundle, error) {
	var b Bundle
	seen := make(map[string]struct{}, len(result))
	textChars := 0
	textCapped := false

	for _, sc := range result {
		if _, dup := seen[sc.Chunk.ID]; dup {
			continue
		}
		seen[sc.Chunk.ID] = struct{}{}

		switch sc.Chunk.Modality {
		case model.ModalityText:
			if textCapped {
				continue
			}
			seg := Segment{Page: sc.Chunk.Page, Text: sc.Chunk.Content}
			if a.opts.CharBudget > 0 && textChars+len(seg.String()) > a.opts.CharBudget {
				// Lowest-ranked segments go first; everything after this
				// rank is lower still.
				textCapped = true
				continue
			}
			textChars += len(seg.String())
			b.TextSegments = append(b.TextSegments, seg)

		case model.ModalityImage:
			if len(b.Images) >= a.opts.MaxImages {
				continue
			}
			blob, err := a.blobs.Get(ctx, sc.Chunk.Content)
			if err != nil {
				if errors.Is(err, blobstore.ErrNotFound) {
					if a.opts.Logger != nil {
						a.opts.Logger.WarnContext(ctx, "image payload missing, dropping from context",
							"id", sc.Chunk.Content,
							"page", sc.Chunk.Page,
						)
					}
					continue
				}
				return Bundle{}, fmt.Errorf("bundle: resolve image %s: %w", sc.Chunk.Content, err)
			}
			b.Images = append(b.Images, ImageRef{
				ID:    blob.ID,
				Page:  sc.Chunk.Page,
				MIME:  blob.MIME,
				Data:  blob.Data,
				Label: fmt.Sprintf("Image from page %d:", sc.Chunk.Page),
			})
		}
	}

	return b, nil
}
