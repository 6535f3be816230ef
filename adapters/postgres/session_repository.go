package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"cocreview/domain/core"
	"cocreview/models"
	"cocreview/ports"
)

// SessionRepositoryImpl implements SessionRepository
type SessionRepositoryImpl struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sqlx.DB) ports.SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

// Create stores a new session
func (r *SessionRepositoryImpl) Create(ctx context.Context, session *models.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = core.Now()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO sessions (token_hash, user_id, expires_at, created_at)
		VALUES (:token_hash, :user_id, :expires_at, :created_at)
	`, session)
	return err
}

// Get retrieves a session by token hash
func (r *SessionRepositoryImpl) Get(ctx context.Context, tokenHash core.Hash) (*models.Session, error) {
	var session models.Session
	err := r.db.GetContext(ctx, &session, r.db.Rebind(`
		SELECT token_hash, user_id, expires_at, created_at
		FROM sessions
		WHERE token_hash = ?
	`), tokenHash)
	if err != nil {
		return nil, notFound(err, core.ErrSessionNotFound)
	}
	return &session, nil
}

// Delete removes one session
func (r *SessionRepositoryImpl) Delete(ctx context.Context, tokenHash core.Hash) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE token_hash = ?`), tokenHash)
	return err
}

// DeleteForUser removes every session of a user
func (r *SessionRepositoryImpl) DeleteForUser(ctx context.Context, userID core.UserID) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE user_id = ?`), userID)
	return err
}

// DeleteExpired removes sessions that expired before now
func (r *SessionRepositoryImpl) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE expires_at <= ?`), now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
