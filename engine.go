package multirag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/multirag/blobstore"
	"github.com/hupe1980/multirag/embedding"
	"github.com/hupe1980/multirag/index"
	"github.com/hupe1980/multirag/model"
)

// generation is one immutable index state. Ingestion never mutates a live
// generation; it builds a new one and swaps the pointer.
type generation struct {
	idx index.Index // nil until the first successful ingest
}

// Engine drives the ingestion and query workflows over an explicitly owned
// index instance.
//
// Lifecycle: create empty, Ingest to populate, Query any number of times,
// Ingest again to replace. The engine serves a single active document;
// re-ingestion replaces the full index rather than appending.
type Engine struct {
	embedder embedding.Embedder
	blobs    blobstore.Store

	current  atomic.Pointer[generation]
	ingestMu sync.Mutex // serializes ingestion runs

	opts options
}

// New creates an engine with an empty index.
func New(embedder embedding.Embedder, blobs blobstore.Store, optFns ...Option) (*Engine, error) {
	if embedder == nil {
		return nil, errors.New("multirag: embedder must not be nil")
	}
	if blobs == nil {
		return nil, errors.New("multirag: blob store must not be nil")
	}

	e := &Engine{
		embedder: embedder,
		blobs:    blobs,
		opts:     applyOptions(optFns),
	}
	e.current.Store(&generation{})
	return e, nil
}

// Ready reports whether a document has been ingested and queries can be
// served.
func (e *Engine) Ready() bool {
	g := e.current.Load()
	return g.idx != nil && g.idx.Len() > 0
}

// Ingest replaces the active document with the given chunks.
//
// All chunks are embedded (text directly, images via their stored blobs)
// and inserted into a fresh index generation that is swapped in atomically
// on full success. The previous document becomes unavailable as soon as
// ingestion starts; if any chunk fails to embed, the engine is left in the
// cleared-but-empty state, never half-populated.
func (e *Engine) Ingest(ctx context.Context, chunks []model.Chunk) error {
	e.ingestMu.Lock()
	defer e.ingestMu.Unlock()

	start := time.Now()
	err := e.ingest(ctx, chunks)

	e.opts.metricsCollector.RecordIngest(len(chunks), time.Since(start), err)
	texts, images := countModalities(chunks)
	e.opts.logger.LogIngest(ctx, len(chunks), texts, images, err)

	return err
}

func (e *Engine) ingest(ctx context.Context, chunks []model.Chunk) error {
	// Clear first: queries racing with ingestion see an empty index, not a
	// partially visible document.
	e.current.Store(&generation{})

	if len(chunks) == 0 {
		return errors.New("multirag: no chunks to ingest")
	}

	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.embedConcurrency)
	for i := range chunks {
		g.Go(func() error {
			v, err := e.embedChunk(gctx, chunks[i])
			if err != nil {
				return err
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// The cleared generation stays in place.
		return err
	}

	next := e.opts.newIndex()
	for i, c := range chunks {
		c.Seq = uint64(i)
		if err := next.Insert(ctx, vectors[i], c); err != nil {
			return fmt.Errorf("multirag: index chunk %s: %w", c.ID, err)
		}
	}

	e.current.Store(&generation{idx: next})
	return nil
}

func (e *Engine) embedChunk(ctx context.Context, c model.Chunk) ([]float32, error) {
	switch c.Modality {
	case model.ModalityText:
		return e.embedder.EmbedText(ctx, c.Content)
	case model.ModalityImage:
		blob, err := e.blobs.Get(ctx, c.Content)
		if err != nil {
			return nil, fmt.Errorf("multirag: image chunk %s: %w", c.ID, err)
		}
		return e.embedder.EmbedImage(ctx, blob)
	default:
		return nil, fmt.Errorf("multirag: chunk %s: unknown modality %d", c.ID, c.Modality)
	}
}

// Query embeds the question and returns the k most similar chunks.
//
// Fails with ErrEmptyQuery for a blank question and ErrNotInitialized
// before the first successful ingest. The shared index is never mutated by
// a query.
func (e *Engine) Query(ctx context.Context, question string, k int) (model.RetrievalResult, error) {
	start := time.Now()
	result, err := e.query(ctx, question, k)

	e.opts.metricsCollector.RecordQuery(k, time.Since(start), err)
	e.opts.logger.LogQuery(ctx, k, len(result), err)

	return result, err
}

func (e *Engine) query(ctx context.Context, question string, k int) (model.RetrievalResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}

	g := e.current.Load()
	if g.idx == nil || g.idx.Len() == 0 {
		return nil, ErrNotInitialized
	}

	qv, err := e.embedder.EmbedText(ctx, question)
	if err != nil {
		return nil, err
	}

	return g.idx.Search(ctx, qv, k)
}

func countModalities(chunks []model.Chunk) (texts, images int) {
	for _, c := range chunks {
		if c.Modality == model.ModalityImage {
			images++
		} else {
			texts++
		}
	}
	return texts, images
}
