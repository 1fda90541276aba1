package state

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"worthit/internal/config"
)

// DB wraps the shared SQLite database used by both host processes.
type DB struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the shared state database.
func Open(cfg *config.Config) (*DB, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.StateDBPath())
}

// OpenPath connects to the state database at an explicit location.
func OpenPath(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &DB{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *DB) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *DB) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Handle exposes the raw connection to the packages that own each namespace.
func (s *DB) Handle() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}
