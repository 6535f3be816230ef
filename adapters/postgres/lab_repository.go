package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"cocreview/domain/core"
	apperrors "cocreview/internal/errors"
	"cocreview/models"
	"cocreview/ports"
)

const labColumns = `id, name, code, is_active, created_at, updated_at`

// LabRepositoryImpl implements LabRepository
type LabRepositoryImpl struct {
	db *sqlx.DB
}

// NewLabRepository creates a new lab repository
func NewLabRepository(db *sqlx.DB) ports.LabRepository {
	return &LabRepositoryImpl{db: db}
}

// Create stores a new lab. The code is normalized to lower case.
func (r *LabRepositoryImpl) Create(ctx context.Context, lab *models.Lab) error {
	if lab.ID.String() == "" {
		lab.ID = core.NewLabID()
	}
	lab.Code = strings.ToLower(strings.TrimSpace(lab.Code))
	now := core.Now()
	lab.CreatedAt, lab.UpdatedAt = now, now

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO labs (`+labColumns+`)
		VALUES (:id, :name, :code, :is_active, :created_at, :updated_at)
	`, lab)
	if isUniqueViolation(err) {
		return apperrors.WithCode(apperrors.CodeConflict, core.ErrAlreadyExists)
	}
	return err
}

// GetByID retrieves a lab by its ID
func (r *LabRepositoryImpl) GetByID(ctx context.Context, id core.LabID) (*models.Lab, error) {
	var lab models.Lab
	err := r.db.GetContext(ctx, &lab, r.db.Rebind(`SELECT `+labColumns+` FROM labs WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err, core.ErrLabNotFound)
	}
	return &lab, nil
}

// GetByCode retrieves a lab by its short code
func (r *LabRepositoryImpl) GetByCode(ctx context.Context, code string) (*models.Lab, error) {
	var lab models.Lab
	err := r.db.GetContext(ctx, &lab, r.db.Rebind(`SELECT `+labColumns+` FROM labs WHERE code = ?`),
		strings.ToLower(strings.TrimSpace(code)))
	if err != nil {
		return nil, notFound(err, core.ErrLabNotFound)
	}
	return &lab, nil
}

// List returns all labs ordered by name
func (r *LabRepositoryImpl) List(ctx context.Context) ([]*models.Lab, error) {
	var labs []*models.Lab
	err := r.db.SelectContext(ctx, &labs, `SELECT `+labColumns+` FROM labs ORDER BY name`)
	return labs, err
}

// SetActive activates or deactivates a lab
func (r *LabRepositoryImpl) SetActive(ctx context.Context, id core.LabID, active bool) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE labs SET is_active = ?, updated_at = ? WHERE id = ?`),
		active, core.Now(), id)
	if err != nil {
		return err
	}
	return expectOne(res, core.ErrLabNotFound)
}
