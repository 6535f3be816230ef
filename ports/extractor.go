package ports

import (
	"context"

	"cocreview/domain/coc"
)

// ExtractionResult is the flat entity list produced for one PDF.
type ExtractionResult struct {
	Entities []coc.Entity `json:"entities"`
	// Source names the path that produced the entities ("service" or
	// "heuristic").
	Source string `json:"source"`
	Pages  int    `json:"pages"`
}

// Extractor turns an uploaded PDF into entities.
type Extractor interface {
	Extract(ctx context.Context, filename string, pdf []byte) (*ExtractionResult, error)
}

// TextExtractor turns OCR text into entities.
type TextExtractor interface {
	ExtractText(ctx context.Context, text string) ([]coc.Entity, error)
}
