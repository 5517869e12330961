package blobstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a blob does not exist.
	//
	// Implementations should return an error that satisfies
	// `errors.Is(err, ErrNotFound)`.
	ErrNotFound = errors.New("blob not found")

	// ErrConflict is returned when Put would overwrite an existing ID with
	// different content. Re-putting identical bytes is a no-op.
	ErrConflict = errors.New("blob id conflict")
)

// ImageBlob is a stored image payload.
type ImageBlob struct {
	// ID is the deterministic blob identifier (e.g. "page3/fig1").
	ID string
	// Data is the raw encoded image.
	Data []byte
	// MIME is the payload media type (e.g. "image/png").
	MIME string
}

// Store maps image IDs to their raw encoded bytes.
type Store interface {
	// Put stores data under id. Storing different bytes under an existing
	// id fails with ErrConflict.
	Put(ctx context.Context, id string, data []byte, mime string) error

	// Get returns the blob for id, or ErrNotFound.
	Get(ctx context.Context, id string) (ImageBlob, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, id string) error

	// Len returns the number of stored blobs.
	Len(ctx context.Context) (int, error)

	// Clear removes all blobs. Callable before re-ingestion; idempotent.
	Clear(ctx context.Context) error
}
