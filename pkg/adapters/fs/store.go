// Package fs implements core.Store on top of a single file holding the whole collection.
package fs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/aretw0/tiller/pkg/core"
)

const (
	// DefaultFileName is used when the configured path is a directory.
	DefaultFileName = "notes.json"

	defaultLockTimeout = 5 * time.Second
)

// Config holds the configuration for the file store.
type Config struct {
	Path         string        // Backing file. Extension selects the serializer (.json, .yaml, .yml).
	ReadOnly     bool          // Mutations fail with core.ErrReadOnly.
	ProcessLock  bool          // Also take a lock file so several processes can share Path.
	LockTimeout  time.Duration // Bound for waiting on the lock file. Zero means 5s.
	Logger       *slog.Logger
	ErrorHandler func(error) // Receives watcher errors. Optional.
}

// Store implements core.Store using one file rewritten in full on every mutation.
type Store struct {
	Path   string
	config Config
	ser    Serializer
	logger *slog.Logger

	// sem is the store lock. Blocked senders on a channel are queued in arrival order.
	sem chan struct{}

	mu            sync.RWMutex
	lastHash      uint64
	corruptHash   uint64
	writes        int
	lastWrite     *time.Time
	watcherActive bool
}

// NewStore creates a new file-backed store.
func NewStore(config Config) (*Store, error) {
	path := config.Path
	if path == "" {
		path = DefaultFileName
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFileName)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		ext = ".json"
		path += ext
	}
	ser, ok := DefaultSerializers()[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported store format: %s", ext)
	}

	if config.LockTimeout == 0 {
		config.LockTimeout = defaultLockTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	config.Path = path

	return &Store{
		Path:   path,
		config: config,
		ser:    ser,
		logger: logger,
		sem:    make(chan struct{}, 1),
	}, nil
}

// Initialize creates the parent directory of the store file.
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.ReadOnly {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	return nil
}

// WithNotes implements core.Store.
//
// Workflow:
//  1. Acquire the in-process lock (and the lock file when ProcessLock is set).
//  2. Load the file; missing or malformed content is an empty collection.
//  3. Run fn on a private copy.
//  4. If fn reports a change, serialize and write atomically (temp file + rename).
func (s *Store) WithNotes(ctx context.Context, fn core.MutateFunc) ([]core.Note, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.sem }()

	if s.config.ProcessLock {
		unlock, err := acquireLockFile(ctx, s.Path+".lock", s.config.LockTimeout)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	loaded, err := s.load()
	if err != nil {
		return nil, err
	}

	next, changed, err := fn(slices.Clone(loaded))
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
	if err := s.persist(next); err != nil {
		return nil, err
	}
	return slices.Clone(next), nil
}

func (s *Store) load() ([]core.Note, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return []core.Note{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store %s: %w", s.Path, err)
	}
	s.remember(data)

	notes, err := s.ser.Parse(bytes.NewReader(data))
	if err != nil {
		s.logger.Warn("store file is malformed, treating as empty", "path", s.Path, "error", err)
		s.backupCorrupt(data)
		return []core.Note{}, nil
	}
	return notes, nil
}

func (s *Store) persist(notes []core.Note) error {
	data, err := s.ser.Serialize(notes)
	if err != nil {
		return fmt.Errorf("failed to serialize notes: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	// Remember before the rename so the watcher never sees an unknown hash for our own write.
	s.remember(data)
	if err := writeFileAtomic(s.Path, data, 0644); err != nil {
		return err
	}

	s.mu.Lock()
	now := time.Now()
	s.writes++
	s.lastWrite = &now
	s.mu.Unlock()

	s.logger.Debug("store written", "path", s.Path, "notes", len(notes), "bytes", len(data))
	return nil
}

// remember records the hash of the content last seen by this process,
// so the watcher can tell our own writes from external ones.
func (s *Store) remember(data []byte) {
	s.mu.Lock()
	s.lastHash = xxhash.Sum64(data)
	s.mu.Unlock()
}

// backupCorrupt keeps a copy of unreadable content before it gets overwritten.
// Each distinct content is backed up once.
func (s *Store) backupCorrupt(data []byte) {
	if s.config.ReadOnly {
		return
	}
	h := xxhash.Sum64(data)

	s.mu.Lock()
	seen := s.corruptHash == h
	s.corruptHash = h
	s.mu.Unlock()
	if seen {
		return
	}

	backup := fmt.Sprintf("%s.corrupt.%s", s.Path, time.Now().Format("20060102-150405"))
	if err := writeFileAtomic(backup, data, 0644); err != nil {
		s.logger.Error("failed to back up malformed store", "path", backup, "error", err)
		return
	}
	s.logger.Warn("malformed store backed up", "path", backup)
}

var _ core.Store = (*Store)(nil)
var _ core.Watchable = (*Store)(nil)
