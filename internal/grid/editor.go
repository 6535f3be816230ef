package grid

import (
	"fmt"

	"cocreview/domain/coc"
	"cocreview/domain/core"
)

// EditHandler receives grid edits addressed by section and original index.
// Both methods report whether an entity was actually written.
type EditHandler interface {
	OnFieldChange(sectionType string, originalIndex int, newValue string) bool
	OnRemoveField(sectionType string, originalIndex int) bool
}

// Editor translates grid edits into EditHandler calls.
type Editor struct {
	handler EditHandler
}

// NewEditor returns an Editor that forwards to h.
func NewEditor(h EditHandler) *Editor {
	return &Editor{handler: h}
}

// ChangeField writes a key/value row edit.
func (e *Editor) ChangeField(row coc.FieldRow, value string) error {
	if row.OriginalIndex == coc.NoBackingEntity {
		return core.ErrNoBackingEntity
	}
	if !e.handler.OnFieldChange(row.SectionType, row.OriginalIndex, value) {
		return fmt.Errorf("%w: %s[%d]", core.ErrEntityNotFound, row.SectionType, row.OriginalIndex)
	}
	return nil
}

// RemoveField deletes the entity behind a key/value row.
func (e *Editor) RemoveField(row coc.FieldRow) error {
	if row.OriginalIndex == coc.NoBackingEntity {
		return core.ErrNoBackingEntity
	}
	if !e.handler.OnRemoveField(row.SectionType, row.OriginalIndex) {
		return fmt.Errorf("%w: %s[%d]", core.ErrEntityNotFound, row.SectionType, row.OriginalIndex)
	}
	return nil
}

// ChangeSampleCell writes one sample grid cell back to the entity that
// produced it.
func (e *Editor) ChangeSampleCell(row coc.SampleRow, column, value string) error {
	idx, v, ok := row.CellSource(column, value)
	if !ok {
		return core.ErrNoBackingEntity
	}
	if !e.handler.OnFieldChange(coc.SectionSampleData, idx, v) {
		return fmt.Errorf("%w: %s[%d]", core.ErrEntityNotFound, coc.SectionSampleData, idx)
	}
	return nil
}
