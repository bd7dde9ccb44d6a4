package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/tiller/pkg/core"
)

// Watch reports modifications of the backing file made by other processes or editors.
// Writes performed by this store are recognised by content hash and not reported.
// The returned channel is closed when ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan core.Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Atomic writes replace the file, so watch the directory and filter by name.
	dir := filepath.Dir(s.Path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	events := make(chan core.Event, 16)
	s.setWatcherActive(true)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer s.setWatcherActive(false)
		defer watcher.Close()
		return s.watchLoop(ctx, watcher, events)
	}, lifecycle.WithErrorHandler(func(err error) {
		s.reportWatchError(fmt.Errorf("watcher stopped: %w", err))
	}))

	return events, nil
}

func (s *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, events chan<- core.Event) error {
	target := filepath.Clean(s.Path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			s.logger.Debug("store file event", "op", event.Op.String())

			e, ok := s.classify(event)
			if !ok {
				continue
			}
			select {
			case events <- e:
			case <-ctx.Done():
				return nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			s.reportWatchError(err)
		}
	}
}

// classify turns a filesystem event on the store file into a core.Event.
// It returns false when the content is what this store last read or wrote.
func (s *Store) classify(event fsnotify.Event) (core.Event, bool) {
	now := time.Now().Unix()

	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
			return core.Event{}, false
		}
		return core.Event{Type: core.EventDelete, Timestamp: now}, true
	}
	if err != nil {
		s.reportWatchError(fmt.Errorf("failed to read %s: %w", s.Path, err))
		return core.Event{}, false
	}

	h := xxhash.Sum64(data)
	s.mu.Lock()
	own := h == s.lastHash
	s.lastHash = h
	s.mu.Unlock()
	if own {
		return core.Event{}, false
	}

	return core.Event{Type: core.EventModify, Timestamp: now}, true
}

func (s *Store) reportWatchError(err error) {
	s.logger.Error("watcher error", "error", err)
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
	}
}

func (s *Store) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}
