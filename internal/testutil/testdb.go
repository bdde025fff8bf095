package testutil

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"lprime.com/licserver/internal/sqlite"
)

func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	return NewTestDBAt(t, filepath.Join(t.TempDir(), "test.db"))
}

func NewTestDBAt(t *testing.T, dbPath string) *sqlx.DB {
	t.Helper()

	// DELETE mode for tests
	db, err := sqlite.OpenWithJournal(dbPath, "DELETE")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
