package ports

import (
	"context"

	"cocreview/domain/core"
	"cocreview/models"
)

// DocumentFilter narrows a document listing.
type DocumentFilter struct {
	Status models.DocumentStatus
	Limit  int
	Offset int
}

// DocumentRepository defines document storage. Every read and write is scoped
// to a lab; a document of another lab behaves as not found.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, labID core.LabID, id core.DocumentID) (*models.Document, error)
	List(ctx context.Context, labID core.LabID, filter DocumentFilter) ([]*models.Document, error)

	// Save overwrites the whole data blob together with status and counts.
	Save(ctx context.Context, doc *models.Document) error

	UpdateStatus(ctx context.Context, labID core.LabID, id core.DocumentID, status models.DocumentStatus, errMsg string) error
	Delete(ctx context.Context, labID core.LabID, id core.DocumentID) error
}
