// Package index defines the vector index contract for multirag.
package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/multirag/model"
)

var (
	// ErrNotInitialized is returned when searching an index that holds no
	// entries (no document has been ingested, or the index was cleared).
	ErrNotInitialized = errors.New("index not initialized")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrEmptyVector is returned when an empty vector is inserted or queried.
	ErrEmptyVector = errors.New("vector must not be empty")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The index dimensionality is fixed by the first insert after a clear;
// mixing dimensionalities is a programming error, not a recoverable one.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Index stores (vector, chunk) entries and answers k-nearest-neighbor
// queries by cosine similarity.
//
// Implementations must preserve the ranking contract: stable descending
// order by similarity, ties broken by ascending ingestion sequence.
type Index interface {
	// Insert adds a (vector, chunk) entry. The first insert into a cleared
	// index establishes the dimensionality; later inserts with a different
	// length fail with ErrDimensionMismatch.
	Insert(ctx context.Context, vector []float32, chunk model.Chunk) error

	// Search returns the k entries most similar to query. Searching an
	// empty index fails with ErrNotInitialized. Fewer than k entries is
	// not an error; all of them are returned.
	Search(ctx context.Context, query []float32, k int) (model.RetrievalResult, error)

	// Clear drops all entries and unfixes the dimensionality. Idempotent.
	Clear()

	// Len returns the number of stored entries.
	Len() int

	// Dimension returns the fixed dimensionality, or 0 before the first insert.
	Dimension() int
}
