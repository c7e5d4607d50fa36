package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store persists boolean app flags in a SQLite file.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the per-user state file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "voice-companion", "state.sqlite")
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps :memory: databases consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS flags (
		key TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create flags table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Flag returns the stored value; an unknown key reads as false.
func (s *Store) Flag(ctx context.Context, key string) (bool, error) {
	var value int
	err := s.db.QueryRowContext(ctx, `SELECT value FROM flags WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query flag %s: %w", key, err)
	}
	return value != 0, nil
}

func (s *Store) SetFlag(ctx context.Context, key string, value bool) error {
	v := 0
	if value {
		v = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flags (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, v)
	if err != nil {
		return fmt.Errorf("set flag %s: %w", key, err)
	}
	return nil
}
