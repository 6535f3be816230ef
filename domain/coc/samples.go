package coc

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// IndexedEntity is an entity together with its position in the section array
// it was read from. Edits are routed back through OriginalIndex.
type IndexedEntity struct {
	Entity
	OriginalIndex int `json:"originalIndex"`
}

// SampleGroup collects every entity that belongs to one physical sample.
type SampleGroup struct {
	// Key is the sample number without leading zeros; Label is the digit
	// string as first seen in a type ("05" when only Sample05_* was present).
	Key   string
	Label string
	// Fields maps the raw entity type to the entity that produced it.
	Fields map[string]IndexedEntity
	// Shadowed holds entities replaced by a later entity for the same
	// sample field. The later one wins.
	Shadowed []IndexedEntity

	slots map[string]IndexedEntity
}

func (g *SampleGroup) put(key FieldKey, ie IndexedEntity) {
	slot := key.slot()
	if prev, ok := g.slots[slot]; ok {
		g.Shadowed = append(g.Shadowed, prev)
		delete(g.Fields, prev.Type)
	}
	g.slots[slot] = ie
	g.Fields[ie.Type] = ie
}

func (g *SampleGroup) lookup(slot string) (IndexedEntity, bool) {
	ie, ok := g.slots[slot]
	return ie, ok
}

// populated returns the first slot entity with a non-blank value, trying the
// slots in order.
func (g *SampleGroup) populated(slots ...string) (IndexedEntity, bool) {
	for _, s := range slots {
		if ie, ok := g.slots[s]; ok && strings.TrimSpace(ie.Text()) != "" {
			return ie, true
		}
	}
	return IndexedEntity{}, false
}

func (g *SampleGroup) empty() bool {
	for _, ie := range g.slots {
		if strings.TrimSpace(ie.Text()) != "" {
			return false
		}
	}
	return true
}

// Grouping is the result of GroupSamples.
type Grouping struct {
	// Groups is sorted by sample number, ascending.
	Groups          []*SampleGroup
	NonSampleFields []IndexedEntity
}

// GroupSamples splits the sample section into per-sample groups and the
// leftover plain fields. section must be the full section array so that
// OriginalIndex stays valid for write-back.
func GroupSamples(section []Entity) Grouping {
	byKey := make(map[string]*SampleGroup)
	var out Grouping

	for i, e := range section {
		ie := IndexedEntity{Entity: e, OriginalIndex: i}
		key := ParseFieldKey(e.Type)
		if !key.IsSample() {
			out.NonSampleFields = append(out.NonSampleFields, ie)
			continue
		}
		k := trimDigits(key.SampleLabel)
		g, ok := byKey[k]
		if !ok {
			g = &SampleGroup{
				Key:    k,
				Label:  key.SampleLabel,
				Fields: make(map[string]IndexedEntity),
				slots:  make(map[string]IndexedEntity),
			}
			byKey[k] = g
			out.Groups = append(out.Groups, g)
		}
		g.put(key, ie)
	}

	sort.Slice(out.Groups, func(i, j int) bool {
		return numericLess(out.Groups[i].Key, out.Groups[j].Key)
	})
	return out
}

func trimDigits(d string) string {
	t := strings.TrimLeft(d, "0")
	if t == "" {
		return "0"
	}
	return t
}

// numericLess compares two unsigned decimal strings without leading zeros.
func numericLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// Sample row column names, as serialized.
const (
	ColumnCustomerSampleID = "customerSampleId"
	ColumnMatrix           = "matrix"
	ColumnGrab             = "grab"
	ColumnStartDate        = "compositeStartDate"
	ColumnStartTime        = "compositeStartTime"
	ColumnMethod           = "method"
	ColumnContainers       = "containers"
)

// SampleRow is one sample paired with one requested analysis.
type SampleRow struct {
	ID                 string `json:"id"`
	SampleNumber       string `json:"sampleNumber"`
	CustomerSampleID   string `json:"customerSampleId"`
	Matrix             string `json:"matrix"`
	Grab               string `json:"grab"`
	CompositeStartDate string `json:"compositeStartDate"`
	CompositeStartTime string `json:"compositeStartTime"`
	Method             string `json:"method"`
	AnalysisNumber     int    `json:"analysisNumber,omitempty"`
	Containers         string `json:"containers,omitempty"`
	SectionType        string `json:"sectionType"`
	OriginalIndex      int    `json:"originalIndex"`
	// FieldIndexes maps each column to the entity backing it, -1 when the
	// cell has no source entity yet.
	FieldIndexes map[string]int `json:"fieldIndexes"`

	timeFromDate bool
}

var dateSplitRe = regexp.MustCompile(`^(\d{1,2}[-/]\d{1,2}[-/]\d{2})(.*)$`)

// ExpandSamples turns each sample group into display rows: one per active
// analysis method, otherwise one row for the analysis request or the bare
// sample, and none for a group with nothing filled in.
func ExpandSamples(g Grouping) []SampleRow {
	var rows []SampleRow
	for _, group := range g.Groups {
		if group.empty() {
			continue
		}
		base := baseRow(group)

		type method struct {
			value string
			src   IndexedEntity
			nn    int
		}
		var methods []method
		for nn := 1; nn <= MaxAnalysisMethods; nn++ {
			if ie, ok := group.populated(fmt.Sprintf("analysis:%d", nn)); ok {
				methods = append(methods, method{value: ie.Text(), src: ie, nn: nn})
			}
		}

		switch {
		case len(methods) > 0:
			for pos, m := range methods {
				row := base.clone()
				row.ID = fmt.Sprintf("sample-%s-analysis-%s-%d", group.Key, pad2(m.nn), pos)
				row.Method = m.value
				row.AnalysisNumber = m.nn
				row.OriginalIndex = m.src.OriginalIndex
				row.FieldIndexes[ColumnMethod] = m.src.OriginalIndex
				rows = append(rows, row)
			}
		default:
			row := base
			row.ID = "sample-" + group.Key
			if req, ok := group.lookup("request"); ok {
				row.ID += "-request"
				row.Method = req.Text()
				row.OriginalIndex = req.OriginalIndex
				row.FieldIndexes[ColumnMethod] = req.OriginalIndex
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func baseRow(g *SampleGroup) SampleRow {
	row := SampleRow{
		SampleNumber:  g.Key,
		SectionType:   SectionSampleData,
		OriginalIndex: -1,
		FieldIndexes: map[string]int{
			ColumnCustomerSampleID: -1,
			ColumnMatrix:           -1,
			ColumnGrab:             -1,
			ColumnStartDate:        -1,
			ColumnStartTime:        -1,
			ColumnMethod:           -1,
			ColumnContainers:       -1,
		},
	}

	if ie, ok := g.lookup(SubfieldID); ok {
		row.CustomerSampleID = ie.Text()
		row.FieldIndexes[ColumnCustomerSampleID] = ie.OriginalIndex
		row.OriginalIndex = ie.OriginalIndex
	}

	// A dedicated matrix field wins over the legacy combined field.
	if ie, ok := g.populated(SubfieldMatrix, SubfieldComposite); ok {
		row.Matrix, row.Grab = SplitMatrix(ie.Text())
		row.FieldIndexes[ColumnMatrix] = ie.OriginalIndex
		row.FieldIndexes[ColumnGrab] = ie.OriginalIndex
	}

	dateEnt, hasDate := g.populated(SubfieldStartDate, SubfieldEndDate)
	timeEnt, hasTime := g.populated(SubfieldStartTime, SubfieldEndTime)
	if hasTime {
		row.CompositeStartTime = strings.TrimSpace(timeEnt.Text())
		row.FieldIndexes[ColumnStartTime] = timeEnt.OriginalIndex
	}
	if hasDate {
		row.FieldIndexes[ColumnStartDate] = dateEnt.OriginalIndex
		date, trailing, matched := SplitDateTime(dateEnt.Text())
		switch {
		case matched:
			row.CompositeStartDate = date
			if !hasTime {
				// the time cell, filled or not, is backed by the date entity
				row.CompositeStartTime = trailing
				row.FieldIndexes[ColumnStartTime] = dateEnt.OriginalIndex
				row.timeFromDate = true
			}
		case !hasTime:
			row.CompositeStartTime = strings.TrimSpace(dateEnt.Text())
			row.FieldIndexes[ColumnStartTime] = dateEnt.OriginalIndex
			row.timeFromDate = true
		default:
			// unparseable date next to an explicit time: keep it as the date
			row.CompositeStartDate = strings.TrimSpace(dateEnt.Text())
		}
	}

	if ie, ok := g.lookup("lab:containers"); ok {
		row.Containers = ie.Text()
		row.FieldIndexes[ColumnContainers] = ie.OriginalIndex
	}

	if row.OriginalIndex == -1 {
		row.OriginalIndex = firstIndex(g)
	}
	return row
}

func firstIndex(g *SampleGroup) int {
	idx := -1
	for _, ie := range g.slots {
		if idx == -1 || ie.OriginalIndex < idx {
			idx = ie.OriginalIndex
		}
	}
	return idx
}

func (r SampleRow) clone() SampleRow {
	c := r
	c.FieldIndexes = make(map[string]int, len(r.FieldIndexes))
	for k, v := range r.FieldIndexes {
		c.FieldIndexes[k] = v
	}
	return c
}

// SplitDateTime splits a combined value such as "4-6-24 8:00" into its date
// and trimmed trailing part. matched is false when the value does not start
// with a d-m-yy style date.
func SplitDateTime(v string) (date, trailing string, matched bool) {
	m := dateSplitRe.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSpace(m[2]), true
}

// SplitMatrix strips whitespace from a raw matrix value; the first two
// characters are the matrix code and the rest the grab/composite marker.
func SplitMatrix(v string) (matrix, grab string) {
	compact := stripSpace(v)
	runes := []rune(compact)
	if len(runes) <= 2 {
		return compact, ""
	}
	return string(runes[:2]), string(runes[2:])
}

func stripSpace(v string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, v)
}

// CellSource resolves an edit of one sample-row cell to the entity it must be
// written to and the full value that entity should hold. Cells that share an
// entity with a neighbour (matrix and grab, or a date with a trailing time)
// are recombined so the other half survives the edit. ok is false when the
// cell has no backing entity.
func (r SampleRow) CellSource(column, value string) (originalIndex int, newValue string, ok bool) {
	idx, known := r.FieldIndexes[column]
	if !known || idx < 0 {
		return -1, "", false
	}

	switch column {
	case ColumnMatrix:
		return idx, stripSpace(value) + r.Grab, true
	case ColumnGrab:
		return idx, r.Matrix + stripSpace(value), true
	case ColumnStartDate:
		if r.timeFromDate && r.CompositeStartTime != "" {
			return idx, joinNonEmpty(strings.TrimSpace(value), r.CompositeStartTime), true
		}
	case ColumnStartTime:
		if r.timeFromDate {
			return idx, joinNonEmpty(r.CompositeStartDate, strings.TrimSpace(value)), true
		}
	}
	return idx, value, true
}

// CellEditable reports whether an edit of column can be stored. Grab is
// written through the matrix entity, so it needs one.
func (r SampleRow) CellEditable(column string) bool {
	if column != ColumnGrab {
		return true
	}
	idx, ok := r.FieldIndexes[ColumnGrab]
	return ok && idx >= 0
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}
