// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"testing"

	"github.com/irsalhamdi/expert-class/database"
	"github.com/irsalhamdi/expert-class/random"
	"github.com/jmoiron/sqlx"
)

// New returns an in-memory SQLite database with every migration applied.
func New(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := "file:" + random.String(16) + "?mode=memory&cache=shared"
	db, err := database.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	return db
}
