package ports

import (
	"context"
	"time"

	"cocreview/domain/core"
	"cocreview/models"
)

// SessionRepository stores login sessions keyed by token hash
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, tokenHash core.Hash) (*models.Session, error)
	Delete(ctx context.Context, tokenHash core.Hash) error
	DeleteForUser(ctx context.Context, userID core.UserID) error

	// DeleteExpired removes sessions that expired before now and returns how
	// many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
