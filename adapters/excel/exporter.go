package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"cocreview/domain/coc"
	"cocreview/internal/grid"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const (
	formSheet    = "Form"
	samplesSheet = "Samples"
)

var formHeader = []string{"Section", "Field", "Type", "Value", "Confidence"}

// ContentType returns the MIME type of an export format.
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// ParseFormat normalizes an export format name.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Export writes the reviewed document in the given format. CSV carries the
// sample table only; XLSX carries a form sheet and a samples sheet.
func Export(w io.Writer, format string, doc *coc.Document) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, doc)
	case FormatXLSX:
		return writeXLSX(w, doc)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

func writeCSV(w io.Writer, doc *coc.Document) error {
	tbl := grid.SampleTable(doc.Data.CategorizedSections.CollectedSampleDataInfo)
	cw := csv.NewWriter(w)
	if err := cw.Write(tbl.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(tbl.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func writeXLSX(w io.Writer, doc *coc.Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", formSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	rows := make([][]interface{}, 0, len(doc.Data.CompanyContactData)+len(doc.Data.NonSampleData))
	for _, r := range append(append([]coc.FieldRow(nil), doc.Data.CompanyContactData...), doc.Data.NonSampleData...) {
		rows = append(rows, []interface{}{r.SectionType, r.FieldName, r.Type, r.Value, r.Confidence})
	}
	if err := writeSheet(f, formSheet, formHeader, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(samplesSheet); err != nil {
		return fmt.Errorf("create samples sheet: %w", err)
	}
	tbl := grid.SampleTable(doc.Data.CategorizedSections.CollectedSampleDataInfo)
	sampleRows := make([][]interface{}, 0, len(tbl.Rows))
	for _, cells := range tbl.Rows {
		row := make([]interface{}, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		sampleRows = append(sampleRows, row)
	}
	if err := writeSheet(f, samplesSheet, tbl.Headers, sampleRows); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]interface{}) error {
	hdr := make([]interface{}, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

// confidenceCell parses a confidence column value; blanks become 1.
func confidenceCell(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1
	}
	c, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return c
}

// Exporter exposes the package functions as a ports.Exporter.
type Exporter struct{}

func (Exporter) ParseFormat(s string) (string, error) { return ParseFormat(s) }

func (Exporter) ContentType(format string) string { return ContentType(format) }

func (Exporter) Export(w io.Writer, format string, doc *coc.Document) error {
	return Export(w, format, doc)
}
