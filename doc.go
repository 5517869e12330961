// Package multirag is a multimodal retrieval core for question answering
// over PDF documents.
//
// A document is segmented into text passages and figure references, both
// embedded into one comparable vector space and indexed for k-nearest-
// neighbor search. At query time the question is embedded through the same
// model, the index is searched, and the ranked result is assembled into a
// mixed-modality context payload for a downstream answer generator.
//
// # Quick Start
//
//	embedder, _ := embedding.NewOpenAI(apiKey)
//	blobs := blobstore.NewMemoryStore()
//
//	engine, _ := multirag.New(embedder, blobs)
//	_ = engine.Ingest(ctx, chunks)
//
//	result, _ := engine.Query(ctx, "What does figure 2 show?", 5)
//	ctxBundle, _ := bundle.New(blobs).Assemble(ctx, result)
//
// The engine serves a single active document: ingestion replaces, never
// appends. Concurrent queries are lock-free; ingestion builds a fresh index
// generation and swaps it in atomically, so a query observes either the
// previous document in full or the new one in full, never a mixture.
package multirag
