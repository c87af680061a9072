package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS markers (
	project      TEXT PRIMARY KEY,
	last_version TEXT NOT NULL,
	last_checked TIMESTAMP NOT NULL
)`

// SQLiteStore keeps the marker as one keyed row in a SQLite database
type SQLiteStore struct {
	db      *sql.DB
	project string
}

// NewSQLiteStore opens (and migrates) the database at path
func NewSQLiteStore(path, project string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open state database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}

	return &SQLiteStore{db: db, project: project}, nil
}

// Load reads the project's marker row
func (s *SQLiteStore) Load(ctx context.Context) (Marker, error) {
	var m Marker
	err := s.db.QueryRowContext(ctx,
		`SELECT last_version, last_checked FROM markers WHERE project = ?`,
		s.project,
	).Scan(&m.LastVersion, &m.LastChecked)

	if errors.Is(err, sql.ErrNoRows) {
		return Marker{}, nil
	}
	if err != nil {
		return Marker{}, fmt.Errorf("failed to load marker: %w", err)
	}

	return m, nil
}

// Advance upserts the project's marker row inside a transaction
func (s *SQLiteStore) Advance(ctx context.Context, version string) error {
	if version == "" {
		return fmt.Errorf("refusing to write empty version")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO markers (project, last_version, last_checked)
		VALUES (?, ?, ?)
		ON CONFLICT(project) DO UPDATE SET
			last_version = excluded.last_version,
			last_checked = excluded.last_checked`,
		s.project, version, now(),
	)
	if err != nil {
		return fmt.Errorf("failed to write marker: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit marker: %w", err)
	}

	return nil
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
