// Package grid adapts a COC document to the shapes the review grids render:
// key/value rows for the form sections, a plain sample table, and the
// spreadsheet-style sample grid. All sample views share one grouping pass.
package grid

import (
	"cocreview/domain/coc"
)

// Column describes one sample grid column.
type Column struct {
	Field    string `json:"field"`
	Header   string `json:"header"`
	Width    int    `json:"width"`
	Editable bool   `json:"editable"`
}

// SampleColumns is the fixed column layout of the sample grid.
var SampleColumns = []Column{
	{Field: "sampleNumber", Header: "Sample #", Width: 80},
	{Field: coc.ColumnCustomerSampleID, Header: "Customer Sample ID", Width: 180, Editable: true},
	{Field: coc.ColumnMatrix, Header: "Matrix", Width: 90, Editable: true},
	{Field: coc.ColumnGrab, Header: "Grab/Comp", Width: 90, Editable: true},
	{Field: coc.ColumnStartDate, Header: "Composite Start Date", Width: 150, Editable: true},
	{Field: coc.ColumnStartTime, Header: "Composite Start Time", Width: 150, Editable: true},
	{Field: coc.ColumnMethod, Header: "Method", Width: 220, Editable: true},
	{Field: coc.ColumnContainers, Header: "# Containers", Width: 110, Editable: true},
}

// FieldRows returns the key/value rows of the four form sections in section
// order.
func FieldRows(s coc.Sections) []coc.FieldRow {
	rows := make([]coc.FieldRow, 0, s.Len())
	for _, name := range coc.SectionOrder {
		if name == coc.SectionSampleData {
			continue
		}
		rows = append(rows, coc.FieldRows(name, *s.Get(name))...)
	}
	return rows
}

// Table is the plain table rendering of the sample section.
type Table struct {
	Headers []string   `json:"headers"`
	RowIDs  []string   `json:"rowIds"`
	Rows    [][]string `json:"rows"`
}

// SampleTable renders the sample section as header plus string cells.
func SampleTable(section []coc.Entity) Table {
	view := coc.BuildSampleView(section)
	t := Table{
		Headers: make([]string, len(SampleColumns)),
		RowIDs:  make([]string, 0, len(view.Rows)),
		Rows:    make([][]string, 0, len(view.Rows)),
	}
	for i, c := range SampleColumns {
		t.Headers[i] = c.Header
	}
	for _, r := range view.Rows {
		t.RowIDs = append(t.RowIDs, r.ID)
		t.Rows = append(t.Rows, Cells(r))
	}
	return t
}

// Cells returns the row's values in SampleColumns order.
func Cells(r coc.SampleRow) []string {
	out := make([]string, len(SampleColumns))
	for i, c := range SampleColumns {
		out[i] = CellValue(r, c.Field)
	}
	return out
}

// CellValue returns one named cell of a sample row.
func CellValue(r coc.SampleRow, field string) string {
	switch field {
	case "sampleNumber":
		return r.SampleNumber
	case coc.ColumnCustomerSampleID:
		return r.CustomerSampleID
	case coc.ColumnMatrix:
		return r.Matrix
	case coc.ColumnGrab:
		return r.Grab
	case coc.ColumnStartDate:
		return r.CompositeStartDate
	case coc.ColumnStartTime:
		return r.CompositeStartTime
	case coc.ColumnMethod:
		return r.Method
	case coc.ColumnContainers:
		return r.Containers
	}
	return ""
}

// CellEditable reports whether the grid may offer field of r for editing.
func CellEditable(r coc.SampleRow, field string) bool {
	return r.CellEditable(field)
}

// Grid is the spreadsheet-style rendering of the sample section.
type Grid struct {
	Columns       []Column        `json:"columns"`
	Rows          []coc.SampleRow `json:"rows"`
	NonSampleRows []coc.FieldRow  `json:"nonSampleRows"`
	Conflicts     []coc.FieldRow  `json:"conflicts,omitempty"`
}

// SampleGrid builds the column definitions and row data for the sample
// section.
func SampleGrid(section []coc.Entity) Grid {
	view := coc.BuildSampleView(section)
	return Grid{
		Columns:       append([]Column(nil), SampleColumns...),
		Rows:          view.Rows,
		NonSampleRows: view.NonSampleFields,
		Conflicts:     view.Conflicts,
	}
}
