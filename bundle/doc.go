// Package bundle converts a ranked retrieval result into the ordered,
// deduplicated multimodal context payload handed to the answer generator.
//
// Bundles are ephemeral: they are assembled per query and never persisted.
// A missing image payload degrades gracefully (the reference is dropped,
// the query still answers from the remaining context).
package bundle
