package core

import "context"

// MutateFunc receives the loaded collection and returns the collection to persist.
// Returning changed=false makes the call read-only; next is then ignored.
// The slice must not be retained after the function returns.
type MutateFunc func(notes []Note) (next []Note, changed bool, err error)

// Store defines the contract for the durable, ordered note collection.
// Implementations own their lock; callers go through WithNotes for every read and write.
type Store interface {
	// WithNotes acquires exclusive access, loads the collection, runs fn and persists
	// the result when fn reports a change. The lock is released on every exit path.
	// It returns the persisted collection, or the loaded one for read-only calls.
	WithNotes(ctx context.Context, fn MutateFunc) ([]Note, error)

	// Initialize ensures the underlying storage is ready (directories, schema).
	Initialize(ctx context.Context) error
}

// Watchable defines an interface for stores that can report changes made outside the process.
type Watchable interface {
	// Watch returns a channel of events. The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan Event, error)
}

// Closer is implemented by stores holding resources such as database handles.
type Closer interface {
	Close() error
}
