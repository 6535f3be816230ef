package ports

import (
	"context"

	"cocreview/domain/core"
	"cocreview/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create stores a new user; the ID is assigned when empty.
	Create(ctx context.Context, user *models.User) error

	GetByID(ctx context.Context, id core.UserID) (*models.User, error)

	// GetByLogin finds a user by username or email, case-insensitively.
	GetByLogin(ctx context.Context, login string) (*models.User, error)

	ListByLab(ctx context.Context, labID core.LabID) ([]*models.User, error)

	SetActive(ctx context.Context, id core.UserID, active bool) error
	UpdatePassword(ctx context.Context, id core.UserID, passwordHash string) error

	// Count returns the number of users across all labs.
	Count(ctx context.Context) (int, error)
}

// LabRepository defines the interface for lab (tenant) storage
type LabRepository interface {
	Create(ctx context.Context, lab *models.Lab) error
	GetByID(ctx context.Context, id core.LabID) (*models.Lab, error)
	GetByCode(ctx context.Context, code string) (*models.Lab, error)
	List(ctx context.Context) ([]*models.Lab, error)
	SetActive(ctx context.Context, id core.LabID, active bool) error
}
