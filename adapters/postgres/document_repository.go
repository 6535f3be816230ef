package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"cocreview/domain/core"
	"cocreview/models"
	"cocreview/ports"
)

const documentListColumns = `id, lab_id, uploaded_by, filename, storage_path, status, error_message,
	entity_count, sample_count, created_at, updated_at`

const documentColumns = documentListColumns + `, data`

// DocumentRepositoryImpl implements DocumentRepository
type DocumentRepositoryImpl struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sqlx.DB) ports.DocumentRepository {
	return &DocumentRepositoryImpl{db: db}
}

// Create stores a new document record
func (r *DocumentRepositoryImpl) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID.String() == "" {
		doc.ID = core.NewDocumentID()
	}
	if doc.Status == "" {
		doc.Status = models.DocumentUploaded
	}
	now := core.Now()
	doc.CreatedAt, doc.UpdatedAt = now, now

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (:id, :lab_id, :uploaded_by, :filename, :storage_path, :status, :error_message,
			:entity_count, :sample_count, :created_at, :updated_at, :data)
	`, doc)
	return err
}

// Get retrieves a document of the given lab, including its data blob
func (r *DocumentRepositoryImpl) Get(ctx context.Context, labID core.LabID, id core.DocumentID) (*models.Document, error) {
	var doc models.Document
	err := r.db.GetContext(ctx, &doc, r.db.Rebind(`
		SELECT `+documentColumns+`
		FROM documents
		WHERE lab_id = ? AND id = ?
	`), labID, id)
	if err != nil {
		return nil, notFound(err, core.ErrDocumentNotFound)
	}
	return &doc, nil
}

// List returns the lab's documents, newest first, without their data blobs
func (r *DocumentRepositoryImpl) List(ctx context.Context, labID core.LabID, filter ports.DocumentFilter) ([]*models.Document, error) {
	query := `SELECT ` + documentListColumns + ` FROM documents WHERE lab_id = ?`
	args := []interface{}{labID}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	docs := []*models.Document{}
	err := r.db.SelectContext(ctx, &docs, r.db.Rebind(query), args...)
	return docs, err
}

// Save overwrites the document's data, status and counts
func (r *DocumentRepositoryImpl) Save(ctx context.Context, doc *models.Document) error {
	doc.UpdatedAt = core.Now()
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE documents
		SET status = :status, error_message = :error_message, entity_count = :entity_count,
			sample_count = :sample_count, data = :data, updated_at = :updated_at
		WHERE lab_id = :lab_id AND id = :id
	`, doc)
	if err != nil {
		return err
	}
	return expectOne(res, core.ErrDocumentNotFound)
}

// UpdateStatus changes only the status and error message
func (r *DocumentRepositoryImpl) UpdateStatus(ctx context.Context, labID core.LabID, id core.DocumentID, status models.DocumentStatus, errMsg string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE documents
		SET status = ?, error_message = ?, updated_at = ?
		WHERE lab_id = ? AND id = ?
	`), status, errMsg, core.Now(), labID, id)
	if err != nil {
		return err
	}
	return expectOne(res, core.ErrDocumentNotFound)
}

// Delete removes a document record
func (r *DocumentRepositoryImpl) Delete(ctx context.Context, labID core.LabID, id core.DocumentID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM documents WHERE lab_id = ? AND id = ?`), labID, id)
	if err != nil {
		return err
	}
	return expectOne(res, core.ErrDocumentNotFound)
}
