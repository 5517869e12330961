// Package embedding adapts external embedding providers to a uniform
// interface producing fixed-dimension unit vectors for text and images.
//
// Both modalities land in one comparable vector space: queries are embedded
// through the same text model used at ingestion (symmetric embedding), and
// figures enter the space via a vision-model caption that is embedded as
// text. Provider failures surface as *Error and are never converted to a
// zero vector, since a zero vector would corrupt similarity rankings.
//
// Inputs exceeding the provider budget are truncated deterministically so
// repeated calls on the same input are reproducible.
package embedding
