package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/tiller/pkg/adapters/fs"
	"github.com/aretw0/tiller/pkg/adapters/memory"
	"github.com/aretw0/tiller/pkg/adapters/sqlite"
	"github.com/aretw0/tiller/pkg/core"
)

// Init builds and initializes the configured store without wrapping it in a Service.
func Init(path string, opts ...Option) (core.Store, error) {
	o := buildOptions(opts)

	if o.store != nil {
		return o.store, nil
	}

	var (
		store core.Store
		err   error
	)
	switch o.adapter {
	case AdapterFS:
		store, err = fs.NewStore(fs.Config{
			Path:         resolvePath(path, o),
			ReadOnly:     o.readOnly,
			ProcessLock:  o.processLock,
			LockTimeout:  o.lockTimeout,
			Logger:       o.logger,
			ErrorHandler: o.errorHandler,
		})
	case AdapterSQLite:
		store, err = sqlite.NewStore(sqlite.Config{
			Path:     resolvePath(path, o),
			ReadOnly: o.readOnly,
			Logger:   o.logger,
		})
	case AdapterMemory:
		store = memory.New()
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

// resolvePath applies the dev sandbox rules and logs the resulting mode.
func resolvePath(path string, o *options) string {
	// Read-only access is inherently safe, and the user may opt out.
	bypass := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypass)
	resolved := ResolveStorePath(path, useTemp)

	if o.logger != nil {
		switch {
		case useTemp:
			o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", path, "resolved_path", resolved)
		case IsDevRun() && o.readOnly:
			o.logger.Debug("running in READ-ONLY mode (bypassing dev sandbox)", "path", resolved)
		case IsDevRun():
			o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolved)
		}
	}
	return resolved
}
