// ABOUTME: SQLite implementation of the Store interface
// ABOUTME: Runs on modernc.org/sqlite by default or mattn/go-sqlite3 when asked, with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names accepted by NewSQLiteStore.
const (
	DriverModernc = "sqlite"  // pure Go
	DriverCGo     = "sqlite3" // mattn/go-sqlite3, needs cgo
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithDriver selects the database/sql driver (DriverModernc or DriverCGo).
func WithDriver(driver string) Option {
	return func(s *SQLiteStore) {
		if driver != "" {
			s.driver = driver
		}
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLiteStore) {
		s.logger = logger.With("component", "store")
	}
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{
		driver: DriverModernc,
		logger: slog.Default().With("component", "store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	switch s.driver {
	case DriverModernc, DriverCGo:
	default:
		return nil, fmt.Errorf("unsupported sqlite driver %q", s.driver)
	}

	inMemory := path == ":memory:"
	if !inMemory {
		// Ensure parent directory exists
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open(s.driver, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if inMemory {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	s.db = db

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	s.logger.Info("SQLite store initialized", "path", path, "driver", s.driver)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			key         TEXT PRIMARY KEY,
			fields_json TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// runMigrations adds columns introduced after the first schema version.
// SQLite doesn't support ADD COLUMN IF NOT EXISTS, so we check first
func (s *SQLiteStore) runMigrations() error {
	migrations := []struct {
		check  string
		apply  string
		column string
	}{
		{
			check:  `SELECT 1 FROM pragma_table_info('records') WHERE name = 'save_id'`,
			apply:  `ALTER TABLE records ADD COLUMN save_id TEXT NOT NULL DEFAULT ''`,
			column: "save_id",
		},
	}

	for _, m := range migrations {
		var exists int
		if err := s.db.QueryRow(m.check).Scan(&exists); err == nil {
			continue
		}
		if _, err := s.db.Exec(m.apply); err != nil {
			return fmt.Errorf("adding %s column to records: %w", m.column, err)
		}
		s.logger.Info("applied migration", "column", m.column, "table", "records")
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// GetRecord retrieves a record by key.
// Returns ErrNotFound if no record exists.
func (s *SQLiteStore) GetRecord(ctx context.Context, key string) (*Record, error) {
	query := `SELECT key, fields_json, save_id, updated_at FROM records WHERE key = ?`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, key))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}
	return rec, nil
}

// PutRecord saves or replaces a record.
// Uses INSERT OR REPLACE to handle both insert and update cases.
func (s *SQLiteStore) PutRecord(ctx context.Context, rec *Record) error {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("marshaling record fields: %w", err)
	}

	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	query := `
		INSERT OR REPLACE INTO records (key, fields_json, save_id, updated_at)
		VALUES (?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.Key,
		string(fields),
		rec.SaveID,
		updated.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}

	s.logger.Debug("saved record", "key", rec.Key, "fields", len(rec.Fields), "save_id", rec.SaveID)
	return nil
}

// ListRecords returns the records whose key starts with prefix, ordered by key.
func (s *SQLiteStore) ListRecords(ctx context.Context, prefix string) ([]*Record, error) {
	query := `
		SELECT key, fields_json, save_id, updated_at FROM records
		WHERE key LIKE ? ESCAPE '\'
		ORDER BY key
	`

	rows, err := s.db.QueryContext(ctx, query, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		// LIKE is case-insensitive for ASCII; keys are not.
		if !strings.HasPrefix(rec.Key, prefix) {
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// DeleteRecord removes a record.
// Returns ErrNotFound if no record exists.
func (s *SQLiteStore) DeleteRecord(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec        Record
		fieldsJSON string
		updatedAt  string
	)
	if err := row.Scan(&rec.Key, &fieldsJSON, &rec.SaveID, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(fieldsJSON), &rec.Fields); err != nil {
		return nil, fmt.Errorf("unmarshaling fields of %s: %w", rec.Key, err)
	}
	if rec.Fields == nil {
		rec.Fields = map[string]string{}
	}

	t, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at of %s: %w", rec.Key, err)
	}
	rec.UpdatedAt = t
	return &rec, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
