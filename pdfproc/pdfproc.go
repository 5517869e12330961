package pdfproc

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ElementKind distinguishes the raw element types a parser emits.
type ElementKind uint8

const (
	// KindText is narrative text attributed to a page.
	KindText ElementKind = iota
	// KindFigure is an extracted figure's raw image bytes.
	KindFigure
)

// Element is one raw unit from the parsing collaborator: narrative text or
// an extracted figure, attributed to a page.
type Element struct {
	Page int
	Kind ElementKind

	// Text holds the narrative text for KindText.
	Text string

	// ImageData and MIME hold the encoded figure for KindFigure.
	ImageData []byte
	MIME      string
}

// Parser produces the ordered element stream for a PDF document.
type Parser interface {
	Parse(ctx context.Context, r io.ReaderAt, size int64) ([]Element, error)
}

// FigureExtractor extracts embedded figures from a PDF. Figure extraction
// needs a hi-res layout pipeline and runs outside this core; implementations
// bridge to it.
type FigureExtractor interface {
	ExtractFigures(ctx context.Context, r io.ReaderAt, size int64) ([]Element, error)
}

// Compile-time check.
var _ Parser = (*PDFParser)(nil)

// PDFParser extracts per-page narrative text and, when a FigureExtractor is
// configured, embedded figures.
type PDFParser struct {
	figures FigureExtractor
}

// NewPDFParser creates a parser. figures may be nil, in which case the
// element stream contains text only.
func NewPDFParser(figures FigureExtractor) *PDFParser {
	return &PDFParser{figures: figures}
}

// Parse returns the document's elements ordered by page, text before
// figures within a page.
func (p *PDFParser) Parse(ctx context.Context, r io.ReaderAt, size int64) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("pdfproc: open pdf: %w", err)
	}

	var elements []Element
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("pdfproc: page %d text: %w", i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		elements = append(elements, Element{
			Page: i - 1, // zero-based page attribution
			Kind: KindText,
			Text: text,
		})
	}

	if p.figures != nil {
		figs, err := p.figures.ExtractFigures(ctx, r, size)
		if err != nil {
			return nil, fmt.Errorf("pdfproc: extract figures: %w", err)
		}
		elements = append(elements, figs...)
	}

	// Stable page order with text preceding figures on the same page.
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].Page < elements[j].Page
	})

	return elements, nil
}
