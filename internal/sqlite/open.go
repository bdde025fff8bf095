package sqlite

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// DSN returns the connection string used for every licserver database.
//
// _txlock=immediate makes BEGIN take the write lock, so read-then-write
// transactions on the same database are serialized.
func DSN(path, journalMode string) string {
	q := url.Values{}
	q.Set("_txlock", "immediate")
	q.Set("_busy_timeout", "5000")
	q.Set("_foreign_keys", "on")
	if journalMode != "" {
		q.Set("_journal_mode", journalMode)
	}
	return "file:" + path + "?" + q.Encode()
}

// Open connects to the database at path in WAL mode, checks that foreign key
// enforcement is available and applies pending migrations.
func Open(path string) (*sqlx.DB, error) {
	return OpenWithJournal(path, "WAL")
}

// OpenWithJournal is Open with an explicit journal mode (tests use DELETE).
func OpenWithJournal(path, journalMode string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", DSN(path, journalMode))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Foreign key support is required by the program for cascade deletes
	var fkEnabled int
	if err := db.QueryRow(`PRAGMA foreign_keys;`).Scan(&fkEnabled); err != nil {
		db.Close()
		return nil, errors.New("SQLite foreign key support check failed: " + err.Error())
	}
	if fkEnabled != 1 {
		db.Close()
		return nil, errors.New("SQLite foreign keys not supported (requires SQLite 3.6.19+ compiled without SQLITE_OMIT_FOREIGN_KEY)")
	}

	if err := RunMigrations(db.DB); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
