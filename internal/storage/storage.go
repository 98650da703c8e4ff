// Package storage persists a profile's catalog in SQLite.
//
// The catalog is read whole and written whole: WriteCatalog replaces every
// row inside one transaction, so a failed write leaves the previous catalog
// untouched.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultTimeout bounds every store operation
const DefaultTimeout = 10 * time.Second

// StorageError reports a failed catalog read, write or migration
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var serr *StorageError
	if errors.As(err, &serr) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// Store is the catalog of one profile
type Store struct {
	db      *sql.DB
	path    string
	timeout time.Duration

	// mu serializes writers
	mu sync.Mutex

	// beforeCommit runs inside WriteCatalog after the rows are replaced
	beforeCommit func(ctx context.Context, tx *sql.Tx) error
}

// Option configures a Store
type Option func(*Store)

// WithTimeout overrides DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Open opens (creating if needed) the catalog at path and applies pending
// schema migrations. An existing database is copied to
// <path>.bak-<timestamp> before it is migrated.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(s)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, wrap("open", fmt.Errorf("create database directory: %w", err))
		}
	}
	_, statErr := os.Stat(path)
	existed := statErr == nil

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, wrap("open", err)
	}
	db.SetMaxOpenConns(1)
	s.db = db

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, wrap("open", fmt.Errorf("ping sqlite: %w", err))
	}

	if err := s.migrate(ctx, existed); err != nil {
		db.Close()
		return nil, wrap("migrate", err)
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context, existed bool) error {
	provider, err := newProvider(s.db)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	pending, err := provider.HasPending(ctx)
	if err != nil {
		return fmt.Errorf("check pending migrations: %w", err)
	}
	if !pending {
		return nil
	}

	if existed {
		backup := fmt.Sprintf("%s.bak-%s", s.path, time.Now().Format("20060102-150405"))
		if err := s.Backup(ctx, backup); err != nil {
			return fmt.Errorf("backup before migration: %w", err)
		}
		slog.Info("Backed up catalog before migration", "path", s.path, "backup", backup)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		slog.Debug("Applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// Backup writes a consistent copy of the database to dest
func (s *Store) Backup(ctx context.Context, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return wrap("backup", fmt.Errorf("%s already exists", dest))
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return wrap("backup", err)
	}
	return nil
}

// Path returns the database file location
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
