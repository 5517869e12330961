package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Compile-time check.
var _ Store = (*LocalStore)(nil)

const mimeSuffix = ".mime"

// LocalStore implements Store using the local file system.
// Each blob is one file under the root directory; the media type is kept in
// a sidecar file next to it.
type LocalStore struct {
	root string
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
// The directory is created if it does not exist.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) path(id string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(id))
	// Blob IDs are slash-separated segments; reject anything escaping root.
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("blobstore: invalid blob id %q", id)
	}
	return p, nil
}

// Put stores data under id.
func (s *LocalStore) Put(_ context.Context, id string, data []byte, mime string) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}

	if existing, err := os.ReadFile(p); err == nil {
		existingMIME, _ := os.ReadFile(p + mimeSuffix)
		if bytes.Equal(existing, data) && string(existingMIME) == mime {
			return nil
		}
		return ErrConflict
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return err
	}
	return os.WriteFile(p+mimeSuffix, []byte(mime), 0o644)
}

// Get returns the blob for id.
func (s *LocalStore) Get(_ context.Context, id string) (ImageBlob, error) {
	p, err := s.path(id)
	if err != nil {
		return ImageBlob{}, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return ImageBlob{}, ErrNotFound
		}
		return ImageBlob{}, err
	}

	mime, err := os.ReadFile(p + mimeSuffix)
	if err != nil && !os.IsNotExist(err) {
		return ImageBlob{}, err
	}

	return ImageBlob{ID: id, Data: data, MIME: string(mime)}, nil
}

// Delete removes a blob.
func (s *LocalStore) Delete(_ context.Context, id string) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(p + mimeSuffix); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Len returns the number of stored blobs.
func (s *LocalStore) Len(_ context.Context) (int, error) {
	count := 0
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && !strings.HasSuffix(path, mimeSuffix) {
			count++
		}
		return nil
	})
	return count, err
}

// Clear removes all blobs.
func (s *LocalStore) Clear(_ context.Context) error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.root, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
