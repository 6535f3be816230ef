package ports

import (
	"io"

	"cocreview/domain/coc"
)

// Exporter writes a reviewed document as a downloadable file.
type Exporter interface {
	// ParseFormat normalizes a requested format name; "" selects the default.
	ParseFormat(s string) (string, error)
	ContentType(format string) string
	Export(w io.Writer, format string, doc *coc.Document) error
}
