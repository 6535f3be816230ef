package migration

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestRunner_IdempotentOnSQLite(t *testing.T) {
	db, err := sqlx.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	r := NewRunner()
	require.NoError(t, r.Run(context.Background(), db))
	require.NoError(t, r.Run(context.Background(), db))

	var tables []string
	require.NoError(t, db.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`))
	assert.Equal(t, []string{"documents", "labs", "sessions", "users"}, tables)
	assert.Equal(t, "1.0.0", r.Version())
}

func TestRunner_RejectsUnknownDriver(t *testing.T) {
	db := sqlx.NewDb(nil, "mysql")
	err := NewRunner().Run(context.Background(), db)
	assert.Error(t, err)
}
