package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/GuiaBolso/darwin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// ApplicationID is the SQLite application_id for licserver databases.
// "LPRM" in ASCII: L=0x4C, P=0x50, R=0x52, M=0x4D
const ApplicationID = 0x4C50524D

// ErrInvalidDatabase is returned when the database is not a valid licserver database.
var ErrInvalidDatabase = errors.New("not a valid 'licserver' database")

// defineMigrations returns a slice of database migrations
// Each migration is defined in a separate row (versioned by major db release)
// comments must only appear after sql on a line and cannot span lines (comments are stripped before checksum calc)
// *NEVER* change/remove a step once released! (because a checksum of the script is saved with the migration)
func defineMigrations() []darwin.Migration {
	m := []darwin.Migration{

		// Each database change release is given a major version number (1.xx, 2.xx) with minor numbers (x.01, x.02)
		// representing the actual migration steps within that release. Version numbers must be ascending.

		// 0x4C50524D = "LPRM" in ASCII (L=0x4C, P=0x50, R=0x52, M=0x4D)
		{Version: 1.00, Description: "Set application_id", Script: `
		PRAGMA application_id = 0x4C50524D;`},

		{Version: 1.01, Description: "Create Table 'admin'", Script: `
		CREATE TABLE IF NOT EXISTS admin (
			admin_id VARCHAR(36) PRIMARY KEY,
			username VARCHAR(50) NOT NULL UNIQUE COLLATE NOCASE,
			password_hash VARCHAR(255) NOT NULL,
			name VARCHAR(100) NOT NULL DEFAULT '',
			email VARCHAR(100) NOT NULL DEFAULT '',
			role VARCHAR(20) NOT NULL DEFAULT 'admin',
			active INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`},

		{Version: 1.02, Description: "Create Table 'plan'", Script: `
		CREATE TABLE IF NOT EXISTS plan (
			plan_id VARCHAR(20) PRIMARY KEY,
			name VARCHAR(50) NOT NULL,
			duration_days INTEGER NOT NULL CHECK (duration_days > 0),
			price NUMERIC(10,2) NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT '',
			active INTEGER NOT NULL DEFAULT 1
		);`},

		{Version: 1.03, Description: "Seed default plans", Script: `
		INSERT OR IGNORE INTO plan (plan_id, name, duration_days, price, description) VALUES
			('mensal', 'Mensal', 30, 49.90, 'Acesso por 30 dias'),
			('trimestral', 'Trimestral', 90, 129.90, 'Acesso por 90 dias'),
			('semestral', 'Semestral', 180, 239.90, 'Acesso por 180 dias'),
			('anual', 'Anual', 365, 399.90, 'Acesso por 1 ano'),
			('vitalicio', 'Vitalício', 36500, 999.90, 'Acesso permanente');`},

		{Version: 1.04, Description: "Create Table 'license'", Script: `
		CREATE TABLE IF NOT EXISTS license (
			license_id VARCHAR(36) PRIMARY KEY,
			license_key VARCHAR(50) NOT NULL UNIQUE,
			plan_id VARCHAR(20) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status in ('pending','active','blocked','expired')),
			hardware_id VARCHAR(100),
			machine_name VARCHAR(100),
			customer_name VARCHAR(100),
			customer_email VARCHAR(100),
			customer_phone VARCHAR(20),
			notes TEXT,
			search_text TEXT NOT NULL DEFAULT '',
			activated_at TIMESTAMP,
			expires_at TIMESTAMP,
			blocked_at TIMESTAMP,
			blocked_reason TEXT,
			last_validation_at TIMESTAMP,
			last_validation_ip VARCHAR(50),
			activation_count INTEGER NOT NULL DEFAULT 0,
			max_activations INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			FOREIGN KEY (plan_id) REFERENCES plan (plan_id)
		);`},

		{Version: 1.05, Description: "Create Index 'idx_license_status'", Script: `
		CREATE INDEX IF NOT EXISTS idx_license_status ON license (status);`},

		{Version: 1.06, Description: "Create Index 'idx_license_hardware_id'", Script: `
		CREATE INDEX IF NOT EXISTS idx_license_hardware_id ON license (hardware_id);`},

		{Version: 1.07, Description: "Create Index 'idx_license_plan_id'", Script: `
		CREATE INDEX IF NOT EXISTS idx_license_plan_id ON license (plan_id ASC);`},

		{Version: 1.08, Description: "Create Index 'idx_license_created_at'", Script: `
		CREATE INDEX IF NOT EXISTS idx_license_created_at ON license (created_at DESC);`},

		{Version: 1.09, Description: "Create Table 'license_log'", Script: `
		CREATE TABLE IF NOT EXISTS license_log (
			log_id INTEGER PRIMARY KEY AUTOINCREMENT,
			license_id VARCHAR(36) NOT NULL,
			action VARCHAR(50) NOT NULL,
			details TEXT NOT NULL DEFAULT '{}',
			ip_address VARCHAR(50),
			hardware_id VARCHAR(100),
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (license_id) REFERENCES license (license_id) ON DELETE CASCADE
		);`},

		{Version: 1.10, Description: "Create Index 'idx_license_log_license_id'", Script: `
		CREATE INDEX IF NOT EXISTS idx_license_log_license_id ON license_log (license_id ASC);`},

		{Version: 1.11, Description: "Create Index 'idx_license_log_created_at'", Script: `
		CREATE INDEX IF NOT EXISTS idx_license_log_created_at ON license_log (created_at);`},
	}
	return m
}

// changes returns a user-friendly display of database version changes
func changes(v1, v2 float64) string {
	if v1 != v2 {
		return fmt.Sprintf("DB Version: %.2f (migrated from %.2f to %.2f)", v2, v1, v2)
	}
	return fmt.Sprintf("DB Version: %.2f", v1)
}

// currentVersion reads from migration table to get the latest version and number of steps applied
func currentVersion(db *sql.DB) (count int, ver float64, err error) {
	// might not have any migrations yet...
	s := `select count(*) as n from sqlite_master where tbl_name = 'darwin_migrations';`
	err = db.QueryRow(s).Scan(&count)
	if err != nil || count == 0 {
		return 0, 0, err
	}

	s = `select count(*) as n, max(version) as ver from darwin_migrations;`
	err = db.QueryRow(s).Scan(&count, &ver)
	return count, ver, err
}

// minifiedMigrations returns our migrations with minified scripts so comments or formatting changes
// will not generate a new checksum
func minifiedMigrations() []darwin.Migration {
	migrations := defineMigrations()
	for i := range migrations {
		migrations[i].Script = minify(migrations[i].Script)
	}
	return migrations
}

// minify collapses whitespace, strips comments and lowercases everything outside of
// single-quoted literals. Literals are copied verbatim so seeded values keep their case.
func minify(script string) string {
	var b strings.Builder
	inQuote, inComment, pendingSpace := false, false, false

	for i := 0; i < len(script); i++ {
		ch := script[i]
		switch {
		case inComment:
			if ch == '\n' {
				inComment = false
				pendingSpace = true
			}
		case inQuote:
			b.WriteByte(ch)
			if ch == '\'' {
				inQuote = false
			}
		case ch == '-' && i+1 < len(script) && script[i+1] == '-':
			inComment = true
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			pendingSpace = true
		default:
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			if ch == '\'' {
				inQuote = true
			} else if ch >= 'A' && ch <= 'Z' {
				ch += 'a' - 'A'
			}
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// progress returns the steps attempted during this migration
func progress(ch <-chan darwin.MigrationInfo) string {
	var b strings.Builder

	for info := range ch {
		_, _ = fmt.Fprintf(&b, "v%.2f: \"%s\" (%s) Error: %v\n",
			info.Migration.Version, info.Migration.Description, info.Status.String(), info.Error)
	}
	return b.String()
}

// Schema returns the current sqlite definitions as a string for display
func Schema() string {
	var b strings.Builder

	schema := defineMigrations()
	for _, m := range schema {
		_, _ = fmt.Fprintf(&b, "-- %s (%.2f)\n%s\n\n", m.Description, m.Version, strings.TrimSpace(m.Script))
	}
	return b.String()
}

// VerifyApplicationID checks that the database has the correct application_id.
// Returns ErrInvalidDatabase if the database belongs to a different application.
// Returns nil for empty databases (application_id = 0, no tables) or licserver databases.
func VerifyApplicationID(db *sql.DB) error {
	var appID int
	if err := db.QueryRow("PRAGMA application_id;").Scan(&appID); err != nil {
		return fmt.Errorf("read application_id: %w", err)
	}

	if appID == ApplicationID {
		return nil
	}

	if appID != 0 {
		return fmt.Errorf("%w (application_id 0x%X)", ErrInvalidDatabase, appID)
	}

	// appID is 0 - only accept if database is empty (no user tables)
	var tableCount int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'`).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check tables: %w", err)
	}
	if tableCount > 0 {
		return fmt.Errorf("%w (has tables but no application_id)", ErrInvalidDatabase)
	}

	return nil
}

// RunMigrations applies all migrations to an already-open *sql.DB.
func RunMigrations(db *sql.DB) error {
	if err := VerifyApplicationID(db); err != nil {
		return err
	}

	count, v1, err := currentVersion(db)
	if err != nil {
		return err
	}

	migrations := minifiedMigrations()
	if count == len(migrations) && v1 == migrations[count-1].Version {
		log.Info().Float64("version", v1).Msg("database is current, no migrations needed")
		return nil
	}

	driver := darwin.NewGenericDriver(db, darwin.SqliteDialect{})
	infoChan := make(chan darwin.MigrationInfo, len(migrations))
	d := darwin.New(driver, migrations, infoChan)

	var v2 float64
	if err := d.Migrate(); err != nil {
		close(infoChan)
		_, v2, _ = currentVersion(db)
		prog := progress(infoChan)
		log.Error().Err(err).Float64("from", v1).Float64("to", v2).Str("steps", prog).Msg("migration failed")
		return fmt.Errorf("migration error: %w\n%s", err, prog)
	}
	close(infoChan)

	_, v2, err = currentVersion(db)
	if err != nil {
		return err
	}

	log.Info().Msg(changes(v1, v2))
	return nil
}
