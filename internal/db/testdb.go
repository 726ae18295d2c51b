package db

import (
	"database/sql"
	"testing"
)

// NewTestDB returns a migrated in-memory database that is closed when tb
// finishes.
func NewTestDB(tb testing.TB) *sql.DB {
	tb.Helper()

	db, err := Open(MemoryPath)
	if err != nil {
		tb.Fatalf("opening test database: %v", err)
	}
	tb.Cleanup(func() { db.Close() })

	if err := Migrate(tb.Context(), db); err != nil {
		tb.Fatalf("migrating test database: %v", err)
	}
	return db
}
