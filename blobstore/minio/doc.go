// Package minio implements blobstore.Store on MinIO and S3-compatible
// object storage.
//
// Figure payloads are stored as individual objects under a configurable key
// prefix, with the media type carried as the object content type. Use this
// backend when image payloads should survive process restarts or be shared
// across replicas; the in-memory store remains the default for
// single-process serving.
package minio
