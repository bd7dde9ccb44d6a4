// Package sqlite implements core.Store on a SQLite database (pure Go driver).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/aretw0/tiller/pkg/core"
)

const (
	// DefaultFileName is used when the configured path is a directory.
	DefaultFileName = "notes.db"

	busyTimeout = 5000 // milliseconds
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	seq        INTEGER PRIMARY KEY,
	id         TEXT    NOT NULL UNIQUE,
	text       TEXT    NOT NULL,
	status     TEXT    NOT NULL CHECK (status IN ('TODO', 'DONE')),
	created_at TEXT    NOT NULL,
	updated_at TEXT    NOT NULL
);`

// Config holds the configuration for the SQLite store.
type Config struct {
	Path     string
	ReadOnly bool
	Logger   *slog.Logger
}

// Store keeps the collection in a single table. Each WithNotes call is one SQL transaction.
type Store struct {
	Path   string
	config Config
	logger *slog.Logger
	db     *sql.DB
	sem    chan struct{}

	mu        sync.RWMutex
	writes    int
	lastWrite *time.Time
	recovered bool
}

// NewStore opens (or creates) the database at config.Path.
func NewStore(config Config) (*Store, error) {
	path := config.Path
	if path == "" {
		path = DefaultFileName
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFileName)
	}
	config.Path = path

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		Path:   path,
		config: config,
		logger: logger,
		sem:    make(chan struct{}, 1),
	}, nil
}

// Initialize opens the connection and creates the schema. A database that SQLite
// reports as corrupt is moved aside and replaced by an empty one.
func (s *Store) Initialize(ctx context.Context) error {
	if !s.config.ReadOnly {
		if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	err := s.open(ctx)
	if err != nil && IsCorruptionError(err) && !s.config.ReadOnly {
		s.logger.Warn("database is corrupt, starting empty", "path", s.Path, "error", err)
		if rerr := s.recoverFromCorruption(); rerr != nil {
			return rerr
		}
		err = s.open(ctx)
	}
	return err
}

func (s *Store) open(ctx context.Context) error {
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", s.Path, busyTimeout)
	if s.config.ReadOnly {
		dsn = fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(%d)", s.Path, busyTimeout)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// Access is already serialized by the store lock.
	db.SetMaxOpenConns(1)

	if !s.config.ReadOnly {
		if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	} else if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WithNotes implements core.Store. The collection is loaded and, on change,
// rewritten in full inside one transaction.
func (s *Store) WithNotes(ctx context.Context, fn core.MutateFunc) ([]core.Note, error) {
	if s.db == nil {
		return nil, errors.New("sqlite store is not initialized")
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.sem }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	loaded, err := s.load(ctx, tx)
	if err != nil {
		return nil, err
	}

	work := make([]core.Note, len(loaded))
	copy(work, loaded)

	next, changed, err := fn(work)
	if err != nil {
		return nil, err
	}
	if !changed {
		return loaded, nil
	}
	if s.config.ReadOnly {
		return nil, core.ErrReadOnly
	}
	if next == nil {
		next = []core.Note{}
	}

	if err := s.replace(ctx, tx, next); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	s.mu.Lock()
	now := time.Now()
	s.writes++
	s.lastWrite = &now
	s.mu.Unlock()

	out := make([]core.Note, len(next))
	copy(out, next)
	return out, nil
}

func (s *Store) load(ctx context.Context, tx *sql.Tx) ([]core.Note, error) {
	rows, err := tx.QueryContext(ctx, "SELECT id, text, status, created_at, updated_at FROM notes ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}
	defer rows.Close()

	notes := []core.Note{}
	for rows.Next() {
		var (
			n                    core.Note
			status               string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&n.ID, &n.Text, &status, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		n.Status = core.Status(status)
		if n.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("note %s has invalid created_at: %w", n.ID, err)
		}
		if n.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, fmt.Errorf("note %s has invalid updated_at: %w", n.ID, err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}
	return notes, nil
}

func (s *Store) replace(ctx context.Context, tx *sql.Tx, notes []core.Note) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM notes"); err != nil {
		return fmt.Errorf("failed to clear notes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO notes (seq, id, text, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, n := range notes {
		_, err := stmt.ExecContext(ctx, i+1, n.ID, n.Text, string(n.Status),
			n.CreatedAt.UTC().Format(time.RFC3339Nano), n.UpdatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("failed to insert note %s: %w", n.ID, err)
		}
	}
	return nil
}

// IsCorruptionError returns true if the error indicates database corruption.
func IsCorruptionError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CORRUPT || code == sqlite3.SQLITE_NOTADB
	}

	errStr := err.Error()
	return strings.Contains(errStr, "database disk image is malformed") ||
		strings.Contains(errStr, "file is not a database")
}

// recoverFromCorruption moves the corrupt database (and its WAL/SHM files) aside.
func (s *Store) recoverFromCorruption() error {
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}

	backup := fmt.Sprintf("%s.corrupt.%s", s.Path, time.Now().Format("20060102-150405"))
	if err := os.Rename(s.Path, backup); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to back up corrupted database: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if _, err := os.Stat(s.Path + suffix); err == nil {
			if err := os.Rename(s.Path+suffix, backup+suffix); err != nil {
				_ = os.Remove(s.Path + suffix)
			}
		}
	}

	s.mu.Lock()
	s.recovered = true
	s.mu.Unlock()
	return nil
}

var _ core.Store = (*Store)(nil)
var _ core.Closer = (*Store)(nil)
