package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/firedoc/internal/codec"
	"github.com/roach88/firedoc/internal/value"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (reference, properties)
// 1 - Added documents.fingerprint, backfilled for existing rows
const currentSchemaVersion = 1

// SQLiteStore persists records in a single SQLite table.
// Uses SQLite with WAL mode for concurrent read access.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using SQLiteStore methods when available.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Insert stores rec. The primary key on the encoded reference makes the
// duplicate check atomic.
func (s *SQLiteStore) Insert(ctx context.Context, rec Record) error {
	row, err := marshalRecord(rec)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (reference, properties, fingerprint)
		VALUES (?, ?, ?)
	`, row.reference, row.properties, row.fingerprint)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// Scan reads every record in insertion order inside one read transaction.
func (s *SQLiteStore) Scan(ctx context.Context) ([]Record, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("scan: begin: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT reference, properties
		FROM documents
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var ref, props []byte
		if err := rows.Scan(&ref, &props); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rec, err := unmarshalRecord(ref, props)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return out, nil
}

// Fingerprint returns the stored properties fingerprint for ref.
func (s *SQLiteStore) Fingerprint(ctx context.Context, ref value.Value) (string, bool, error) {
	key, err := codec.EncodeBinary(ref)
	if err != nil {
		return "", false, fmt.Errorf("fingerprint: %w", err)
	}
	var fp string
	err = s.db.QueryRowContext(ctx, `SELECT fingerprint FROM documents WHERE reference = ?`, key).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("fingerprint: %w", err)
	}
	return fp, true, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrConstraint &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique)
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the fingerprint column to databases created before it
// existed and fills it in for rows that lack one.
func migrateToV1(db *sql.DB) error {
	var hasColumn int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('documents') WHERE name = 'fingerprint'
	`).Scan(&hasColumn)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	if hasColumn == 0 {
		if _, err := db.Exec(`ALTER TABLE documents ADD COLUMN fingerprint TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}

	type pending struct {
		rowid int64
		props []byte
	}
	rows, err := db.Query(`SELECT rowid, properties FROM documents WHERE fingerprint = ''`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	var todo []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.rowid, &p.props); err != nil {
			rows.Close()
			return fmt.Errorf("migrate to v1: %w", err)
		}
		todo = append(todo, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}

	for _, p := range todo {
		props, err := codec.DecodeBinary(p.props)
		if err != nil {
			return fmt.Errorf("migrate to v1: row %d: %w", p.rowid, err)
		}
		fp, err := codec.Fingerprint(props)
		if err != nil {
			return fmt.Errorf("migrate to v1: row %d: %w", p.rowid, err)
		}
		if _, err := db.Exec(`UPDATE documents SET fingerprint = ? WHERE rowid = ?`, fp, p.rowid); err != nil {
			return fmt.Errorf("migrate to v1: row %d: %w", p.rowid, err)
		}
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *SQLiteStore) verifyPragma(name, expected string) error {
	var got string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&got); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if got != expected {
		return fmt.Errorf("%s = %q, expected %q", name, got, expected)
	}
	return nil
}
