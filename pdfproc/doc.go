// Package pdfproc turns an uploaded PDF into the ordered element stream the
// retrieval core ingests.
//
// The core does not parse PDF structure itself; this package is the boundary
// to the external parsing collaborator. PDFParser extracts per-page narrative
// text via github.com/ledongthuc/pdf. Figure extraction requires a hi-res
// layout pipeline and is pluggable through the FigureExtractor interface.
//
// Splitter cuts narrative text into overlapping passages with deterministic
// boundaries, and BuildChunks materializes elements into model.Chunks,
// storing figure payloads in the blob store under deterministic
// page-and-sequence IDs.
package pdfproc
