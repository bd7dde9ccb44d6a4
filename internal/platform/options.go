package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/tiller/pkg/core"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = "fs"
	AdapterSQLite = "sqlite"
	AdapterMemory = "memory"
)

// options holds the internal configuration for a Tiller service.
type options struct {
	store        core.Store
	logger       *slog.Logger
	adapter      string
	readOnly     bool
	processLock  bool
	lockTimeout  time.Duration
	devSafety    bool
	forceTemp    bool
	eventBuffer  int
	errorHandler func(error)
}

// Option defines a functional option for configuring Tiller.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter:   AdapterFS,
		devSafety: true,
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithAdapter selects the storage adapter by name: "fs" (default), "sqlite" or "memory".
func WithAdapter(name string) Option {
	return func(o *options) {
		if name != "" {
			o.adapter = name
		}
	}
}

// WithStore injects a custom store. The adapter and path are then ignored.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithLogger sets the logger for the service and the store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithReadOnly enables read-only mode.
// Mutations return core.ErrReadOnly, nothing is created on disk,
// and the dev sandbox is bypassed (the real path is read).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithProcessLock makes the fs adapter take a lock file around every access,
// so several processes can share one notes file.
func WithProcessLock(enabled bool, timeout time.Duration) Option {
	return func(o *options) {
		o.processLock = enabled
		o.lockTimeout = timeout
	}
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
// By default (true) the store is redirected into a temporary directory.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithForceTemp forces the sandbox even outside dev runs.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithEventBuffer sets the per-subscriber event buffer. Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithWatcherErrorHandler receives runtime errors of the file watcher
// (e.g. permission denied), which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}
