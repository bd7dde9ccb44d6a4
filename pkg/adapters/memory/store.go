// Package memory provides a process-local note store, mainly for tests and ephemeral sessions.
package memory

import (
	"context"
	"slices"

	"github.com/aretw0/introspection"

	"github.com/aretw0/tiller/pkg/core"
)

// Store keeps the collection in memory. The zero value is not usable; use New.
type Store struct {
	sem    chan struct{}
	notes  []core.Note
	writes int
}

// New creates an empty in-memory store, optionally seeded with notes.
func New(seed ...core.Note) *Store {
	return &Store{
		sem:   make(chan struct{}, 1),
		notes: slices.Clone(seed),
	}
}

// Initialize implements core.Store.
func (s *Store) Initialize(ctx context.Context) error { return nil }

// WithNotes implements core.Store. Waiters are served in arrival order.
func (s *Store) WithNotes(ctx context.Context, fn core.MutateFunc) ([]core.Note, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.sem }()

	loaded := slices.Clone(s.notes)
	if loaded == nil {
		loaded = []core.Note{}
	}

	next, changed, err := fn(loaded)
	if err != nil {
		return nil, err
	}
	if !changed {
		return slices.Clone(s.notes), nil
	}

	s.notes = slices.Clone(next)
	s.writes++
	return slices.Clone(s.notes), nil
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Notes  int `json:"notes"`
	Writes int `json:"writes"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()
	return StoreState{Notes: len(s.notes), Writes: s.writes}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "memory"
}

var _ core.Store = (*Store)(nil)
var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
