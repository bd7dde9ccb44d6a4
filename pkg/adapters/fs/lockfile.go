package fs

import (
	"context"
	"fmt"
	"os"
	"time"
)

const lockPollInterval = 10 * time.Millisecond

// acquireLockFile takes a cross-process lock by creating path exclusively.
// It polls until the file can be created, ctx is done or the timeout elapses.
// The returned function removes the lock file.
func acquireLockFile(ctx context.Context, path string, timeout time.Duration) (func(), error) {
	deadline := time.Now().Add(timeout)

	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() {
				os.Remove(path)
			}, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		if timeout > 0 && time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out after %s waiting for lock %s", timeout, path)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}
