package pdfproc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hupe1980/multirag/blobstore"
	"github.com/hupe1980/multirag/model"
)

// BuildChunks materializes a parsed element stream into retrievable chunks.
//
// Text elements are split into overlapping passages; figure elements are
// stored in blobs and referenced by ID. IDs are deterministic within one
// run: "p<page>/c<n>" for passages, "page<page>/fig<n>" for figures, with
// n a per-page sequence. Chunk.Seq is left zero; the retrieval engine
// assigns the ingestion sequence.
func BuildChunks(ctx context.Context, elements []Element, splitter *Splitter, blobs blobstore.Store) ([]model.Chunk, error) {
	if splitter == nil {
		splitter = NewSplitter()
	}

	var chunks []model.Chunk
	textSeq := make(map[int]int)
	figSeq := make(map[int]int)

	for _, el := range elements {
		switch el.Kind {
		case KindText:
			for _, passage := range splitter.Split(el.Text) {
				id := fmt.Sprintf("p%d/c%d", el.Page, textSeq[el.Page])
				textSeq[el.Page]++
				chunks = append(chunks, model.Chunk{
					ID:       id,
					Modality: model.ModalityText,
					Page:     el.Page,
					Content:  passage,
				})
			}

		case KindFigure:
			id := fmt.Sprintf("page%d/fig%d", el.Page, figSeq[el.Page])
			figSeq[el.Page]++

			mime := el.MIME
			if mime == "" {
				mime = http.DetectContentType(el.ImageData)
			}
			if err := blobs.Put(ctx, id, el.ImageData, mime); err != nil {
				return nil, fmt.Errorf("pdfproc: store figure %s: %w", id, err)
			}

			chunks = append(chunks, model.Chunk{
				ID:       id,
				Modality: model.ModalityImage,
				Page:     el.Page,
				Content:  id,
			})

		default:
			return nil, fmt.Errorf("pdfproc: unknown element kind %d", el.Kind)
		}
	}

	return chunks, nil
}
