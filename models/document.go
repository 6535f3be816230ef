package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"cocreview/domain/coc"
	"cocreview/domain/core"
)

// DocumentStatus tracks a document through extraction and review.
type DocumentStatus string

const (
	DocumentUploaded   DocumentStatus = "uploaded"
	DocumentExtracting DocumentStatus = "extracting"
	DocumentExtracted  DocumentStatus = "extracted"
	DocumentFailed     DocumentStatus = "failed"
	DocumentReviewed   DocumentStatus = "reviewed"
)

// Valid reports whether s is a known status.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentUploaded, DocumentExtracting, DocumentExtracted, DocumentFailed, DocumentReviewed:
		return true
	}
	return false
}

// DocumentBlob is the JSON column holding the document's review data.
type DocumentBlob coc.DocumentData

// Value implements driver.Valuer interface
func (b DocumentBlob) Value() (driver.Value, error) {
	data, err := json.Marshal(coc.DocumentData(b))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner interface
func (b *DocumentBlob) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*b = DocumentBlob{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported document data type %T", value)
	}
	if len(raw) == 0 {
		*b = DocumentBlob{}
		return nil
	}
	var data coc.DocumentData
	if err := json.Unmarshal(raw, &data); err != nil {
		return err
	}
	*b = DocumentBlob(data)
	return nil
}

// Document is one uploaded COC form.
type Document struct {
	ID           core.DocumentID `json:"id" db:"id"`
	LabID        core.LabID      `json:"lab_id" db:"lab_id"`
	UploadedBy   core.UserID     `json:"uploaded_by" db:"uploaded_by"`
	Filename     string          `json:"filename" db:"filename"`
	StoragePath  string          `json:"-" db:"storage_path"`
	Status       DocumentStatus  `json:"status" db:"status"`
	ErrorMessage string          `json:"error_message,omitempty" db:"error_message"`
	EntityCount  int             `json:"entity_count" db:"entity_count"`
	SampleCount  int             `json:"sample_count" db:"sample_count"`
	Data         DocumentBlob    `json:"data" db:"data"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// Review loads the stored data into an editable document. The derived rows
// are recomputed from the sections on every load.
func (d *Document) Review() *coc.Document {
	return coc.LoadDocument(coc.DocumentData(d.Data))
}

// SetReview stores doc's data back on the record and refreshes the counts.
func (d *Document) SetReview(doc *coc.Document) {
	d.Data = DocumentBlob(doc.Data)
	d.EntityCount = doc.Data.CategorizedSections.Len()
	d.SampleCount = len(doc.Data.SampleData)
}
