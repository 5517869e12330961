package model

import "fmt"

// Modality distinguishes the two kinds of retrievable content.
type Modality uint8

const (
	// ModalityText marks a chunk whose Content is a text passage.
	ModalityText Modality = iota
	// ModalityImage marks a chunk whose Content is a blob store image ID.
	ModalityImage
)

// String returns a string representation of the Modality.
func (m Modality) String() string {
	switch m {
	case ModalityText:
		return "text"
	case ModalityImage:
		return "image"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(m))
	}
}

// Chunk is a single retrievable unit extracted from a document.
//
// The interpretation of Content is determined solely by Modality: for
// ModalityText it holds the passage itself, for ModalityImage it holds the
// image's blob store ID. A chunk never carries both.
type Chunk struct {
	// ID is the stable, unique identifier of the chunk.
	ID string
	// Modality tags Content as text or image reference.
	Modality Modality
	// Page is the zero-based source page index.
	Page int
	// Content is the text passage (text) or the blob ID (image).
	Content string
	// Seq is the monotonic ingestion sequence number. It is assigned during
	// ingestion and used only as a ranking tie-break.
	Seq uint64
}

// String returns a short string representation of the Chunk.
func (c Chunk) String() string {
	return fmt.Sprintf("Chunk(%s:%s@p%d)", c.ID, c.Modality, c.Page)
}

// ScoredChunk pairs a chunk with its similarity score for one query.
type ScoredChunk struct {
	Chunk Chunk
	// Score is the cosine similarity to the query vector, in [-1, 1].
	Score float32
}

// RetrievalResult is a ranked sequence of scored chunks, ordered by
// descending score with ties broken by ascending ingestion sequence.
// Its length never exceeds the requested k.
type RetrievalResult []ScoredChunk
