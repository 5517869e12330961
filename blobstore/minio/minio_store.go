package minio

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/multirag/blobstore"
)

// Compile-time check.
var _ blobstore.Store = (*Store)(nil)

// Store implements blobstore.Store for MinIO and S3-compatible storage.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore creates a new MinIO blob store.
// bucket is the bucket name; rootPrefix is prepended to all keys
// (e.g. "figures/").
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *Store) key(id string) string {
	return path.Join(s.prefix, id)
}

func isNotFound(err error) bool {
	errResp := minio.ToErrorResponse(err)
	return errResp.Code == "NoSuchKey" || errResp.Code == "NotFound"
}

// Put stores data under id. Overwriting with different content is rejected.
func (s *Store) Put(ctx context.Context, id string, data []byte, mime string) error {
	key := s.key(id)

	// Object storage has no compare-and-set; read back the existing object
	// to honor the conflict contract.
	existing, err := s.Get(ctx, id)
	switch {
	case err == nil:
		if bytes.Equal(existing.Data, data) && existing.MIME == mime {
			return nil
		}
		return blobstore.ErrConflict
	case err != blobstore.ErrNotFound:
		return err
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: mime,
	})
	return err
}

// Get returns the blob for id.
func (s *Store) Get(ctx context.Context, id string) (blobstore.ImageBlob, error) {
	key := s.key(id)

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return blobstore.ImageBlob{}, blobstore.ErrNotFound
		}
		return blobstore.ImageBlob{}, err
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return blobstore.ImageBlob{}, blobstore.ErrNotFound
		}
		return blobstore.ImageBlob{}, err
	}

	info, err := obj.Stat()
	if err != nil {
		if isNotFound(err) {
			return blobstore.ImageBlob{}, blobstore.ErrNotFound
		}
		return blobstore.ImageBlob{}, err
	}

	return blobstore.ImageBlob{ID: id, Data: data, MIME: info.ContentType}, nil
}

// Delete removes a blob.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(id), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// Len returns the number of stored blobs under the prefix.
func (s *Store) Len(ctx context.Context) (int, error) {
	count := 0
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return 0, obj.Err
		}
		count++
	}
	return count, nil
}

// Clear removes all blobs under the prefix.
func (s *Store) Clear(ctx context.Context) error {
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return obj.Err
		}
		name := strings.TrimPrefix(strings.TrimPrefix(obj.Key, s.prefix), "/")
		if name == "" {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return err
		}
	}
	return nil
}
