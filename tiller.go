package tiller

import (
	"log/slog"
	"time"

	"github.com/aretw0/tiller/internal/platform"
	"github.com/aretw0/tiller/pkg/core"
	"github.com/aretw0/tiller/pkg/dispatch"
	"github.com/aretw0/tiller/pkg/interpreter"
	"github.com/aretw0/tiller/pkg/llm"
)

// --- Types ---

// Note is a public alias for the core note.
type Note = core.Note

// Service is a public alias for the note operations service.
type Service = core.Service

// Store is a public alias for the storage contract.
type Store = core.Store

// --- Configuration ---

// Option defines a functional option for configuring Tiller.
type Option = platform.Option

// WithAdapter selects the storage adapter by name ("fs", "sqlite", "memory").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithStore injects a custom store.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithReadOnly enables read-only mode.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithProcessLock guards the notes file with a lock file shared across processes.
func WithProcessLock(enabled bool, timeout time.Duration) Option {
	return platform.WithProcessLock(enabled, timeout)
}

// WithDevSafety controls the `go run`/`go test` sandbox.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithForceTemp forces the use of the temporary sandbox.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithEventBuffer sets the per-subscriber event buffer.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithWatcherErrorHandler receives runtime errors of the file watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New opens the store at path and returns the note service.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// Init builds and initializes a store explicitly.
func Init(path string, opts ...Option) (core.Store, error) {
	return platform.Init(path, opts...)
}

// NewDispatcher wires a service and a provider into a command dispatcher
// with default interpreter and dispatch settings.
func NewDispatcher(svc *core.Service, provider llm.Provider) *dispatch.Dispatcher {
	return dispatch.New(svc, interpreter.New(provider))
}

// --- Safety & Utils ---

// ResolveStorePath determines the actual store path based on dev safety rules.
func ResolveStorePath(userPath string, forceTemp bool) string {
	return platform.ResolveStorePath(userPath, forceTemp)
}

// IsDevRun reports whether the process runs via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot walks up from startDir looking for .tiller or tiller.yaml.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
