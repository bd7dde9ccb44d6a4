package platform

import (
	"github.com/aretw0/tiller/pkg/core"
)

// New opens the store at path and wraps it in a Service.
//
//	svc, err := tiller.New(".tiller", tiller.WithAdapter("sqlite"))
//
// The path is adapter-specific: a notes file or its directory for "fs",
// a database file for "sqlite", ignored for "memory".
func New(path string, opts ...Option) (*core.Service, error) {
	store, err := Init(path, opts...)
	if err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	return core.NewService(store,
		core.WithServiceLogger(o.logger),
		core.WithEventBuffer(o.eventBuffer),
	), nil
}
