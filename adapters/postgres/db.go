package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	apperrors "cocreview/internal/errors"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open connects to the configured database. driver is "postgres" or
// "sqlite"; SQLite connections enable foreign keys and write timestamps in
// a sortable text format.
func Open(ctx context.Context, driver, url string, maxOpen int) (*sqlx.DB, error) {
	if driver == "sqlite" {
		url = withParam(url, "_pragma", "foreign_keys(1)")
		url = withParam(url, "_time_format", "sqlite")
	}
	db, err := sqlx.Open(driver, url)
	if err != nil {
		return nil, apperrors.Wrap(err, "open database")
	}
	if driver == "sqlite" {
		// a single connection keeps in-memory databases shared and serializes writers
		db.SetMaxOpenConns(1)
	} else if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.WithCode(apperrors.CodeDatabaseError, err)
	}
	return db, nil
}

func withParam(url, key, value string) string {
	if strings.Contains(url, key+"=") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + key + "=" + value
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// notFound maps sql.ErrNoRows to the given domain error.
func notFound(err error, domainErr error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domainErr
	}
	return err
}

// expectOne maps a zero-row update or delete to the given domain error.
func expectOne(res sql.Result, domainErr error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domainErr
	}
	return nil
}
