package multirag

import (
	"errors"

	"github.com/hupe1980/multirag/embedding"
	"github.com/hupe1980/multirag/index"
)

var (
	// ErrEmptyQuery is returned when the question is empty or all-whitespace.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrNotInitialized is returned when querying before any document has
	// been ingested. Alias of index.ErrNotInitialized.
	ErrNotInitialized = index.ErrNotInitialized

	// ErrInvalidK is returned when k is not positive.
	// Alias of index.ErrInvalidK.
	ErrInvalidK = index.ErrInvalidK
)

// IsUserError reports whether err is fixable by the caller (blank question,
// querying before ingestion, bad k) as opposed to a system fault such as a
// provider outage. Calling surfaces use it to pick a 4xx vs 5xx status.
func IsUserError(err error) bool {
	if errors.Is(err, ErrEmptyQuery) || errors.Is(err, ErrNotInitialized) || errors.Is(err, ErrInvalidK) {
		return true
	}
	var dm *index.ErrDimensionMismatch
	return errors.As(err, &dm)
}

// IsEmbeddingError reports whether err originates from the embedding
// provider.
func IsEmbeddingError(err error) bool {
	var ee *embedding.Error
	return errors.As(err, &ee)
}
