package extraction

import (
	"context"
	"errors"

	apperrors "cocreview/internal/errors"
	"cocreview/ports"
)

// ErrNotConfigured is returned by Disabled for every document.
var ErrNotConfigured = errors.New("no extraction service configured")

// Disabled is the extractor used when EXTRACTION_URL is empty. Uploads are
// stored and marked failed; they can be re-extracted once a service is set.
type Disabled struct{}

func (Disabled) Extract(ctx context.Context, filename string, pdf []byte) (*ports.ExtractionResult, error) {
	return nil, apperrors.ExternalServiceError("extraction", ErrNotConfigured)
}
