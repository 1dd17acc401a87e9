package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/jobclock/internal/db"
)

// NewTestDB opens a migrated in-memory database closed at test end.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return openAt(t, db.MemoryPath)
}

// NewFileTestDB opens a migrated database file under t.TempDir and returns
// its path, so a test can open a second handle the way a second jobclock
// process would.
func NewFileTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobclock.db")
	return openAt(t, path), path
}

func openAt(t *testing.T, path string) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(path)
	if err != nil {
		t.Fatalf("opening test database %s: %v", path, err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// NewTestUoW creates a UnitOfWork backed by the given test database.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
