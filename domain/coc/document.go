package coc

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// FieldRow is a key/value grid row. It is used for the four form sections
// and for the plain fields found in the sample section.
type FieldRow struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	FieldName     string  `json:"fieldName"`
	Value         string  `json:"value"`
	Confidence    float64 `json:"confidence"`
	SectionType   string  `json:"sectionType"`
	OriginalIndex int     `json:"originalIndex"`
}

// NoBackingEntity marks a row that was added in the grid and has no entity
// behind it yet.
const NoBackingEntity = -1

// FieldRows builds one row per entity of a non-sample section.
func FieldRows(section string, entities []Entity) []FieldRow {
	rows := make([]FieldRow, 0, len(entities))
	for i, e := range entities {
		rows = append(rows, fieldRow(section, IndexedEntity{Entity: e, OriginalIndex: i}))
	}
	return rows
}

func fieldRow(section string, ie IndexedEntity) FieldRow {
	return FieldRow{
		ID:            section + "-" + strconv.Itoa(ie.OriginalIndex),
		Type:          ie.Type,
		FieldName:     DisplayName(ie.Type),
		Value:         ie.Text(),
		Confidence:    ie.Confidence,
		SectionType:   section,
		OriginalIndex: ie.OriginalIndex,
	}
}

// SampleView is the reconstructed sample section.
type SampleView struct {
	Rows            []SampleRow `json:"rows"`
	NonSampleFields []FieldRow  `json:"nonSampleFields"`
	// Conflicts lists entities that lost to a later duplicate of the same
	// sample field.
	Conflicts []FieldRow `json:"conflicts,omitempty"`
}

// BuildSampleView groups and expands the sample section.
func BuildSampleView(section []Entity) SampleView {
	g := GroupSamples(section)
	view := SampleView{
		Rows:            ExpandSamples(g),
		NonSampleFields: make([]FieldRow, 0, len(g.NonSampleFields)),
	}
	if view.Rows == nil {
		view.Rows = []SampleRow{}
	}
	for _, ie := range g.NonSampleFields {
		view.NonSampleFields = append(view.NonSampleFields, fieldRow(SectionSampleData, ie))
	}
	for _, grp := range g.Groups {
		for _, ie := range grp.Shadowed {
			view.Conflicts = append(view.Conflicts, fieldRow(SectionSampleData, ie))
		}
	}
	return view
}

// DocumentData is the JSON blob persisted with every document.
type DocumentData struct {
	CompanyContactData  []FieldRow  `json:"companyContactData"`
	SampleData          []SampleRow `json:"sampleData"`
	NonSampleData       []FieldRow  `json:"nonSampleData"`
	CategorizedSections Sections    `json:"categorizedSections"`
	// Entities is the flat list as received from extraction.
	Entities []Entity `json:"entities,omitempty"`

	// classified is set once CategorizedSections holds the reviewed state,
	// even when every section has since been emptied.
	classified bool
}

// UnmarshalJSON marks the data classified when the blob carries a
// categorizedSections object.
func (d *DocumentData) UnmarshalJSON(b []byte) error {
	type plain DocumentData
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*d = DocumentData(p)
	d.classified = gjson.GetBytes(b, "categorizedSections").IsObject()
	return nil
}

// Document wraps DocumentData with the edit operations used by the review
// grids. Derived rows are recomputed after every change; nothing is cached
// across loads.
type Document struct {
	Data DocumentData
}

// NewDocument classifies a freshly extracted entity list.
func NewDocument(entities []Entity) *Document {
	d := &Document{Data: DocumentData{
		Entities:            entities,
		CategorizedSections: Classify(entities),
		classified:          true,
	}}
	d.Rebuild()
	return d
}

// LoadDocument wraps a persisted blob. Sections are classified from the raw
// entities only for a blob that was never classified; a reviewed blob with
// every field removed stays empty.
func LoadDocument(data DocumentData) *Document {
	d := &Document{Data: data}
	if !d.Data.classified && d.Data.CategorizedSections.Len() == 0 && len(d.Data.Entities) > 0 {
		d.Data.CategorizedSections = Classify(d.Data.Entities)
	}
	d.Data.classified = true
	d.normalize()
	d.Rebuild()
	return d
}

func (d *Document) normalize() {
	for _, name := range SectionOrder {
		s := d.Data.CategorizedSections.Get(name)
		if *s == nil {
			*s = []Entity{}
		}
	}
}

// Rebuild recomputes the derived row arrays from the sections.
func (d *Document) Rebuild() {
	secs := &d.Data.CategorizedSections
	company := make([]FieldRow, 0)
	for _, name := range SectionOrder[:4] {
		company = append(company, FieldRows(name, *secs.Get(name))...)
	}
	view := BuildSampleView(secs.CollectedSampleDataInfo)
	d.Data.CompanyContactData = company
	d.Data.SampleData = view.Rows
	d.Data.NonSampleData = view.NonSampleFields
}

// SampleView returns the reconstructed sample section.
func (d *Document) SampleView() SampleView {
	return BuildSampleView(d.Data.CategorizedSections.CollectedSampleDataInfo)
}

func (d *Document) entityAt(sectionType string, originalIndex int) (*[]Entity, bool) {
	if originalIndex < 0 {
		return nil, false
	}
	s := d.Data.CategorizedSections.Get(sectionType)
	if s == nil || originalIndex >= len(*s) {
		return nil, false
	}
	return s, true
}

// OnFieldChange sets the value of the entity at originalIndex in the named
// section. It reports false, and writes nothing, for the NoBackingEntity
// sentinel, an unknown section, or an index out of range.
func (d *Document) OnFieldChange(sectionType string, originalIndex int, newValue string) bool {
	s, ok := d.entityAt(sectionType, originalIndex)
	if !ok {
		return false
	}
	v := newValue
	(*s)[originalIndex].Value = &v
	(*s)[originalIndex].NormalizedValue = nil
	d.Rebuild()
	return true
}

// OnRemoveField deletes the entity at originalIndex. Indexes of later
// entities shift down; callers must use the rebuilt rows afterwards.
func (d *Document) OnRemoveField(sectionType string, originalIndex int) bool {
	s, ok := d.entityAt(sectionType, originalIndex)
	if !ok {
		return false
	}
	*s = append((*s)[:originalIndex], (*s)[originalIndex+1:]...)
	d.Rebuild()
	return true
}

// AddField appends a manually entered entity to a section and returns its
// index. Manual entries carry full confidence.
func (d *Document) AddField(sectionType, typ, value string) (int, bool) {
	s := d.Data.CategorizedSections.Get(sectionType)
	if s == nil || strings.TrimSpace(typ) == "" {
		return NoBackingEntity, false
	}
	*s = append(*s, NewEntity(strings.TrimSpace(typ), value, 1))
	d.Rebuild()
	return len(*s) - 1, true
}

// SampleRow finds a sample row by id.
func (d *Document) SampleRow(id string) (SampleRow, bool) {
	for _, r := range d.SampleView().Rows {
		if r.ID == id {
			return r, true
		}
	}
	return SampleRow{}, false
}

// UpdateSampleCell edits one cell of a sample row. A cell without a backing
// entity is created from the row's sample number so the edit is not lost.
// An unbacked grab is rejected; it is only stored after the matrix.
func (d *Document) UpdateSampleCell(rowID, column, value string) bool {
	row, ok := d.SampleRow(rowID)
	if !ok {
		return false
	}
	if idx, v, ok := row.CellSource(column, value); ok {
		return d.OnFieldChange(SectionSampleData, idx, v)
	}
	typ, ok := newCellType(row, column)
	if !ok {
		return false
	}
	_, ok = d.AddField(SectionSampleData, typ, value)
	return ok
}

func newCellType(row SampleRow, column string) (string, bool) {
	n := row.SampleNumber
	switch column {
	case ColumnCustomerSampleID:
		return "customer_sample_id_" + n, true
	case ColumnMatrix:
		return "customer_sample_id_" + n + "_matrix", true
	case ColumnStartDate:
		return "customer_sample_id_" + n + "_start_date", true
	case ColumnStartTime:
		return "customer_sample_id_" + n + "_start_time", true
	case ColumnContainers:
		return "sample_id_" + n + "_containers", true
	case ColumnMethod:
		return "analysis_request_" + n, true
	}
	return "", false
}
