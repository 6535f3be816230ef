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

const userColumns = `id, lab_id, email, username, password_hash, role, is_active, created_at, updated_at`

// UserRepositoryImpl implements UserRepository
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create creates a new user
func (r *UserRepositoryImpl) Create(ctx context.Context, user *models.User) error {
	if user.ID.String() == "" {
		user.ID = core.NewUserID()
	}
	if user.Role == "" {
		user.Role = models.RoleReviewer
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Username = strings.TrimSpace(user.Username)
	now := core.Now()
	user.CreatedAt, user.UpdatedAt = now, now

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :lab_id, :email, :username, :password_hash, :role, :is_active, :created_at, :updated_at)
	`, user)
	if isUniqueViolation(err) {
		// another user already holds the email or username
		return apperrors.WithCode(apperrors.CodeConflict, core.ErrAlreadyExists)
	}
	return err
}

// GetByID retrieves a user by their ID
func (r *UserRepositoryImpl) GetByID(ctx context.Context, id core.UserID) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err, core.ErrUserNotFound)
	}
	return &user, nil
}

// GetByLogin finds a user by username or email
func (r *UserRepositoryImpl) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(username) = ? OR email = ?
		ORDER BY created_at
		LIMIT 1
	`), login, login)
	if err != nil {
		return nil, notFound(err, core.ErrUserNotFound)
	}
	return &user, nil
}

// ListByLab returns the users of one lab
func (r *UserRepositoryImpl) ListByLab(ctx context.Context, labID core.LabID) ([]*models.User, error) {
	var users []*models.User
	err := r.db.SelectContext(ctx, &users, r.db.Rebind(`
		SELECT `+userColumns+`
		FROM users
		WHERE lab_id = ?
		ORDER BY username
	`), labID)
	return users, err
}

// SetActive activates or deactivates a user
func (r *UserRepositoryImpl) SetActive(ctx context.Context, id core.UserID, active bool) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`),
		active, core.Now(), id)
	if err != nil {
		return err
	}
	return expectOne(res, core.ErrUserNotFound)
}

// UpdatePassword replaces a user's password hash
func (r *UserRepositoryImpl) UpdatePassword(ctx context.Context, id core.UserID, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`),
		passwordHash, core.Now(), id)
	if err != nil {
		return err
	}
	return expectOne(res, core.ErrUserNotFound)
}

// Count returns the number of users
func (r *UserRepositoryImpl) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}
