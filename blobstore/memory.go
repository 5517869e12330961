package blobstore

import (
	"bytes"
	"context"
	"sync"
)

// Compile-time check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store implementation.
// Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]ImageBlob
}

// NewMemoryStore creates a new in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string]ImageBlob),
	}
}

// Put stores data under id.
func (m *MemoryStore) Put(_ context.Context, id string, data []byte, mime string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.blobs[id]; ok {
		if bytes.Equal(existing.Data, data) && existing.MIME == mime {
			return nil
		}
		return ErrConflict
	}

	// Copy to prevent external mutation
	copied := make([]byte, len(data))
	copy(copied, data)

	m.blobs[id] = ImageBlob{ID: id, Data: copied, MIME: mime}
	return nil
}

// Get returns the blob for id.
func (m *MemoryStore) Get(_ context.Context, id string) (ImageBlob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blob, ok := m.blobs[id]
	if !ok {
		return ImageBlob{}, ErrNotFound
	}

	// Return a copy to prevent external mutation
	copied := make([]byte, len(blob.Data))
	copy(copied, blob.Data)

	return ImageBlob{ID: blob.ID, Data: copied, MIME: blob.MIME}, nil
}

// Delete removes a blob.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, id)
	return nil
}

// Len returns the number of stored blobs.
func (m *MemoryStore) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.blobs), nil
}

// Clear removes all blobs.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs = make(map[string]ImageBlob)
	return nil
}
