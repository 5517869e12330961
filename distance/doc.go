// Package distance provides vector similarity calculations for multirag.
//
// All retrieval in multirag ranks by cosine similarity. Vectors produced by
// the embedding adapter are unit-normalized, so cosine similarity reduces to
// a plain dot product; Cosine additionally tolerates adapters that violate
// the unit-norm contract by normalizing defensively.
//
// # Usage
//
//	sim := distance.Dot(a, b)
//	sim = distance.Cosine(a, b) // defensive variant
//	normalized, ok := distance.NormalizeL2Copy(vec)
package distance
