package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"cocreview/domain/coc"
)

// EntityReader loads a flat entity list from a JSON, CSV or XLSX file. The
// tabular formats need a header row with type and value columns; a
// confidence column is optional.
type EntityReader struct {
	filePath string
	fileType string
}

// NewEntityReader picks the format from the file extension.
func NewEntityReader(filePath string) *EntityReader {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), ".")
	return &EntityReader{filePath: filePath, fileType: ext}
}

// Read reads the entities.
func (r *EntityReader) Read() ([]coc.Entity, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch r.fileType {
	case "json":
		raw, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		return coc.DecodeEntities(raw), nil
	case "csv":
		rows, err := csv.NewReader(f).ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		return entitiesFromRows(rows)
	case "xlsx":
		x, err := excelize.OpenReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open Excel file: %w", err)
		}
		defer x.Close()
		rows, err := x.GetRows(x.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("failed to read first sheet: %w", err)
		}
		return entitiesFromRows(rows)
	}
	return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
}

func entitiesFromRows(rows [][]string) ([]coc.Entity, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	col := map[string]int{"type": -1, "value": -1, "confidence": -1}
	for i, h := range rows[0] {
		if _, ok := col[strings.ToLower(strings.TrimSpace(h))]; ok {
			col[strings.ToLower(strings.TrimSpace(h))] = i
		}
	}
	if col["type"] < 0 || col["value"] < 0 {
		return nil, fmt.Errorf("header must contain type and value columns")
	}

	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}
	out := make([]coc.Entity, 0, len(rows)-1)
	for _, row := range rows[1:] {
		typ := strings.TrimSpace(cell(row, col["type"]))
		if typ == "" {
			continue
		}
		out = append(out, coc.NewEntity(typ, cell(row, col["value"]), confidenceCell(cell(row, col["confidence"]))))
	}
	return out, nil
}
