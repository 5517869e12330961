// Package testutil provides deterministic embedding fakes for tests.
//
// StaticEmbedder serves fixture vectors for known inputs and falls back to
// a hash-derived unit vector, so tests control similarity rankings exactly
// without a provider. FailingEmbedder injects provider failures at chosen
// inputs to exercise abort paths.
package testutil
