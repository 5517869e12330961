// Package model defines core types used throughout multirag.
//
// # Content Types
//
//   - Chunk: a minimal retrievable unit of document content, text or image
//   - Modality: closed enum distinguishing text passages from figure references
//
// # Retrieval Types
//
//   - ScoredChunk: a chunk paired with its cosine similarity to a query
//   - RetrievalResult: ranked sequence of scored chunks (descending score)
//
// Chunks cross component boundaries by value. The vector index owns its own
// copies; callers never observe aliased mutation.
package model
