// Package blobstore provides storage for raw image payloads referenced by
// image chunks.
//
// Image bytes live outside the vector index: search scans vectors only, and
// payloads are resolved on demand during context assembly. Implementations
// must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory map, the default for single-document serving
//   - LocalStore: local filesystem, one file per blob plus a MIME sidecar
//   - minio.Store: MinIO / S3-compatible object storage
//
// Overwriting an existing ID with different bytes is rejected with
// ErrConflict so a stale reference can never silently swap content.
package blobstore
