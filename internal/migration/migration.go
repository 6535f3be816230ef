package migration

import (
	"context"
	"fmt"

	"cocreview/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// dialect holds the column types that differ between Postgres and SQLite.
type dialect struct {
	timestamp string
	boolean   string
	json      string
}

var dialects = map[string]dialect{
	"postgres": {timestamp: "TIMESTAMP WITH TIME ZONE", boolean: "BOOLEAN", json: "JSONB"},
	"sqlite":   {timestamp: "TIMESTAMP", boolean: "BOOLEAN", json: "TEXT"},
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. Every step is
// idempotent, so Run is safe on every start.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	d, ok := dialects[db.DriverName()]
	if !ok {
		return errors.ConfigInvalid(fmt.Sprintf("unsupported database driver %q", db.DriverName()))
	}

	steps := []struct {
		name string
		sql  string
	}{
		{"labs table", r.labsTable(d)},
		{"users table", r.usersTable(d)},
		{"sessions table", r.sessionsTable(d)},
		{"documents table", r.documentsTable(d)},
		{"users lab index", `CREATE INDEX IF NOT EXISTS idx_users_lab_id ON users(lab_id)`},
		{"sessions user index", `CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`},
		{"sessions expiry index", `CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`},
		{"documents lab index", `CREATE INDEX IF NOT EXISTS idx_documents_lab_created ON documents(lab_id, created_at DESC)`},
		{"documents status index", `CREATE INDEX IF NOT EXISTS idx_documents_lab_status ON documents(lab_id, status)`},
	}

	for _, step := range steps {
		if _, err := db.ExecContext(ctx, step.sql); err != nil {
			return errors.Wrapf(err, "failed to create %s", step.name)
		}
	}
	return nil
}

func (r *MigrationRunner) labsTable(d dialect) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS labs (
			id TEXT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			code VARCHAR(64) UNIQUE NOT NULL,
			is_active %[2]s NOT NULL DEFAULT true,
			created_at %[1]s NOT NULL,
			updated_at %[1]s NOT NULL
		)
	`, d.timestamp, d.boolean)
}

func (r *MigrationRunner) usersTable(d dialect) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			lab_id TEXT NOT NULL REFERENCES labs(id) ON DELETE CASCADE,
			email VARCHAR(255) UNIQUE NOT NULL,
			username VARCHAR(100) UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role VARCHAR(32) NOT NULL DEFAULT 'reviewer',
			is_active %[2]s NOT NULL DEFAULT true,
			created_at %[1]s NOT NULL,
			updated_at %[1]s NOT NULL
		)
	`, d.timestamp, d.boolean)
}

func (r *MigrationRunner) sessionsTable(d dialect) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS sessions (
			token_hash VARCHAR(64) PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			expires_at %[1]s NOT NULL,
			created_at %[1]s NOT NULL
		)
	`, d.timestamp)
}

func (r *MigrationRunner) documentsTable(d dialect) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			lab_id TEXT NOT NULL REFERENCES labs(id) ON DELETE CASCADE,
			uploaded_by TEXT NOT NULL,
			filename VARCHAR(512) NOT NULL,
			storage_path TEXT NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'uploaded',
			error_message TEXT NOT NULL DEFAULT '',
			entity_count INTEGER NOT NULL DEFAULT 0,
			sample_count INTEGER NOT NULL DEFAULT 0,
			data %[2]s,
			created_at %[1]s NOT NULL,
			updated_at %[1]s NOT NULL
		)
	`, d.timestamp, d.json)
}
