package fs_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tiller/pkg/core"
)

func TestWatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping watcher test in short mode")
	}

	store, path := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := store.WithNotes(ctx, replaceWith(sampleNotes(1)))
	require.NoError(t, err)

	events, err := store.Watch(ctx)
	require.NoError(t, err)

	// Our own write must not be reported.
	_, err = store.WithNotes(ctx, replaceWith(sampleNotes(2)))
	require.NoError(t, err)

	select {
	case e := <-events:
		t.Fatalf("unexpected event for own write: %v", e)
	case <-time.After(200 * time.Millisecond):
	}

	// An external edit is.
	require.NoError(t, os.WriteFile(path, []byte("[]\n"), 0644))

	select {
	case e := <-events:
		assert.Equal(t, core.EventModify, e.Type)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for external modification event")
	}

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-events
		return !open
	}, 3*time.Second, 10*time.Millisecond)
}
