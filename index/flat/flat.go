// Package flat provides a brute-force vector index over a copy-on-write
// entry list. Exact at single-document scale; the ranking contract holds
// regardless of insertion interleaving.
package flat

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/multirag/distance"
	"github.com/hupe1980/multirag/index"
	"github.com/hupe1980/multirag/model"
)

// Compile-time check to ensure Flat satisfies the index contract.
var _ index.Index = (*Flat)(nil)

// entry is one stored (vector, chunk) pair. Vectors are normalized copies;
// chunks are copied in, never aliased.
type entry struct {
	vector []float32
	chunk  model.Chunk
}

// indexState holds the immutable state of the index for lock-free reads.
type indexState struct {
	entries   []entry
	dimension int // fixed by the first insert, 0 while empty
}

// Flat is a brute-force cosine similarity index.
// It uses a copy-on-write pattern for lock-free concurrent reads: searches
// load the current state atomically while writers clone, mutate and swap.
type Flat struct {
	state   atomic.Value // holds *indexState
	writeMu sync.Mutex   // serializes writes only
}

// New creates an empty flat index. Dimensionality is established by the
// first insert.
func New() *Flat {
	f := &Flat{}
	f.state.Store(&indexState{})
	return f
}

func (*Flat) Name() string { return "Flat" }

func (f *Flat) getState() *indexState {
	return f.state.Load().(*indexState)
}

// Insert adds a (vector, chunk) entry to the index.
func (f *Flat) Insert(ctx context.Context, vector []float32, chunk model.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(vector) == 0 {
		return index.ErrEmptyVector
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	oldState := f.getState()

	dim := oldState.dimension
	if dim == 0 {
		dim = len(vector)
	} else if len(vector) != dim {
		return &index.ErrDimensionMismatch{Expected: dim, Actual: len(vector)}
	}

	// Normalize on the way in so search reduces to a dot product. The copy
	// also decouples the stored vector from the caller's slice.
	vec, ok := distance.NormalizeL2Copy(vector)
	if !ok {
		return fmt.Errorf("flat: cannot normalize zero vector")
	}

	newEntries := make([]entry, len(oldState.entries), len(oldState.entries)+1)
	copy(newEntries, oldState.entries)
	newEntries = append(newEntries, entry{vector: vec, chunk: chunk})

	f.state.Store(&indexState{entries: newEntries, dimension: dim})
	return nil
}

// Search performs a brute-force k-nearest-neighbor scan.
// This method is lock-free using the copy-on-write pattern.
func (f *Flat) Search(ctx context.Context, query []float32, k int) (model.RetrievalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, index.ErrInvalidK
	}

	st := f.getState()
	if len(st.entries) == 0 {
		return nil, index.ErrNotInitialized
	}
	if len(query) != st.dimension {
		return nil, &index.ErrDimensionMismatch{Expected: st.dimension, Actual: len(query)}
	}

	// Normalize defensively even though ingestion already normalizes, to
	// tolerate adapters that violate the unit-norm contract.
	q, ok := distance.NormalizeL2Copy(query)
	if !ok {
		return nil, fmt.Errorf("flat: cannot normalize zero query")
	}

	scored := make(model.RetrievalResult, 0, len(st.entries))
	for _, e := range st.entries {
		scored = append(scored, model.ScoredChunk{
			Chunk: e.chunk,
			Score: distance.Dot(q, e.vector),
		})
	}

	// Descending score; ties broken by ascending ingestion sequence so
	// ranking is deterministic across runs.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.Seq < scored[j].Chunk.Seq
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

// Clear drops all entries. Idempotent; the next insert re-establishes the
// dimensionality.
func (f *Flat) Clear() {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	f.state.Store(&indexState{})
}

// Len returns the number of stored entries.
func (f *Flat) Len() int {
	return len(f.getState().entries)
}

// Dimension returns the fixed vector dimensionality, or 0 while empty.
func (f *Flat) Dimension() int {
	return f.getState().dimension
}
