package backup

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"lprime.com/licserver/internal/sqlite"
)

// DefaultKeep is how many dumps survive pruning when no limit is configured.
const DefaultKeep = 10

const (
	fileSuffix  = "_licdump.sql.gz"
	stampLayout = "2006-01-02_15.04.05"
)

type Service struct {
	db     *sqlx.DB
	dbPath string
	keep   int
	now    func() time.Time
}

type Option func(*Service)

// WithKeep sets how many dumps to retain. Zero or less disables pruning.
func WithKeep(n int) Option {
	return func(s *Service) { s.keep = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *sqlx.DB, dbPath string, opts ...Option) *Service {
	s := &Service{
		db:     db,
		dbPath: dbPath,
		keep:   DefaultKeep,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BackupResult contains information about a completed backup
type BackupResult struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	Pruned    []string  `json:"pruned"`
}

// Dir is where dumps are written, next to the database file.
func (s *Service) Dir() string {
	return filepath.Join(filepath.Dir(s.dbPath), "backups")
}

// CreateBackup writes a gzip-compressed SQL dump of a consistent snapshot,
// then prunes dumps beyond the retention limit.
func (s *Service) CreateBackup(ctx context.Context) (*BackupResult, error) {
	backupDir := s.Dir()
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	now := s.now().UTC()
	filename := now.Format(stampLayout) + fileSuffix
	backupPath := filepath.Join(backupDir, filename)

	// VACUUM INTO refuses to overwrite, so the snapshot gets a fresh name
	tempPath := filepath.Join(backupDir, ".snapshot-"+uuid.NewString()+".db")
	defer os.Remove(tempPath)

	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, tempPath); err != nil {
		return nil, fmt.Errorf("vacuum into temp: %w", err)
	}

	snap, err := sqlx.Open("sqlite3", tempPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer snap.Close()

	if err := writeFile(ctx, snap, backupPath, now); err != nil {
		os.Remove(backupPath)
		return nil, err
	}

	info, err := os.Stat(backupPath)
	if err != nil {
		return nil, fmt.Errorf("stat backup file: %w", err)
	}

	pruned, err := s.prune()
	if err != nil {
		// the dump itself succeeded
		log.Warn().Err(err).Str("dir", backupDir).Msg("prune old backups")
	}

	log.Info().Str("file", filename).Int64("size", info.Size()).Int("pruned", len(pruned)).Msg("backup created")

	return &BackupResult{
		Filename:  filename,
		Path:      backupPath,
		Size:      info.Size(),
		CreatedAt: now,
		Pruned:    pruned,
	}, nil
}

// List returns existing dump filenames, newest first.
func (s *Service) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir())
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), fileSuffix) {
			names = append(names, e.Name())
		}
	}
	// timestamp prefix sorts chronologically
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (s *Service) prune() ([]string, error) {
	if s.keep <= 0 {
		return nil, nil
	}
	names, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(names) <= s.keep {
		return nil, nil
	}

	var removed []string
	for _, name := range names[s.keep:] {
		if err := os.Remove(filepath.Join(s.Dir(), name)); err != nil {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}

func writeFile(ctx context.Context, db *sqlx.DB, path string, now time.Time) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	buf := bufio.NewWriter(gz)
	if err := writeDump(ctx, db, buf, now); err != nil {
		return fmt.Errorf("generate dump: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flush dump: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip writer: %w", err)
	}
	return file.Sync()
}

// writeDump streams a SQL script that recreates the database, including its
// application id so the restored file passes VerifyApplicationID.
func writeDump(ctx context.Context, db *sqlx.DB, w io.Writer, now time.Time) error {
	fmt.Fprintf(w, "-- licserver database backup\n")
	fmt.Fprintf(w, "-- Generated: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(w, "PRAGMA foreign_keys=OFF;\n")
	fmt.Fprintf(w, "PRAGMA application_id=%d;\n", sqlite.ApplicationID)
	fmt.Fprintf(w, "BEGIN TRANSACTION;\n\n")

	schemas, err := getSchemas(ctx, db)
	if err != nil {
		return err
	}
	for _, schema := range schemas {
		fmt.Fprintf(w, "%s;\n", schema.SQL)
	}
	fmt.Fprintln(w)

	tables, err := getUserTables(ctx, db)
	if err != nil {
		return err
	}
	for _, table := range tables {
		if err := writeInserts(ctx, db, w, table); err != nil {
			return fmt.Errorf("generate inserts for %s: %w", table, err)
		}
	}

	fmt.Fprintf(w, "COMMIT;\n")
	_, err = fmt.Fprintf(w, "PRAGMA journal_mode=WAL;\n")
	return err
}

type schemaObject struct {
	Type string `db:"type"`
	Name string `db:"name"`
	SQL  string `db:"sql"`
}

func getSchemas(ctx context.Context, db *sqlx.DB) ([]schemaObject, error) {
	var schemas []schemaObject
	query := `
		SELECT type, name, sql
		FROM sqlite_master
		WHERE sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY
			CASE type
				WHEN 'table' THEN 1
				WHEN 'index' THEN 2
				WHEN 'trigger' THEN 3
				WHEN 'view' THEN 4
			END,
			name
	`
	if err := db.SelectContext(ctx, &schemas, query); err != nil {
		return nil, fmt.Errorf("query schemas: %w", err)
	}
	return schemas, nil
}

func getUserTables(ctx context.Context, db *sqlx.DB) ([]string, error) {
	var tables []string
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`
	if err := db.SelectContext(ctx, &tables, query); err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	return tables, nil
}

func writeInserts(ctx context.Context, db *sqlx.DB, w io.Writer, table string) error {
	rows, err := db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %q", table))
	if err != nil {
		return fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}
	colList := strings.Join(quoteColumns(columns), ", ")

	n := 0
	for rows.Next() {
		row, err := rows.SliceScan()
		if err != nil {
			return fmt.Errorf("scan row: %w", err)
		}

		values := make([]string, len(row))
		for i, v := range row {
			values[i] = formatValue(v)
		}
		fmt.Fprintf(w, "INSERT INTO %q (%s) VALUES (%s);\n", table, colList, strings.Join(values, ", "))
		n++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}
	if n > 0 {
		fmt.Fprintln(w)
	}
	return nil
}

func quoteColumns(columns []string) []string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = fmt.Sprintf("%q", col)
	}
	return quoted
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}

	switch val := v.(type) {
	case []byte:
		return quote(string(val))
	case string:
		return quote(val)
	case time.Time:
		// the layout the driver writes, so restored rows compare the same way
		return quote(val.UTC().Format(sqlite3.SQLiteTimestampFormats[0]))
	case int, int32, int64, float32, float64:
		return fmt.Sprintf("%v", val)
	case bool:
		if val {
			return "1"
		}
		return "0"
	default:
		return quote(fmt.Sprintf("%v", val))
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
