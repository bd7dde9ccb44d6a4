package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tiller/pkg/adapters/memory"
	"github.com/aretw0/tiller/pkg/core"
)

func TestStore_Isolation(t *testing.T) {
	store := memory.New(core.Note{ID: "a", Text: "alpha", Status: core.StatusTodo})
	ctx := context.Background()

	// Mutating the slice handed to a read-only callback must not leak into the store.
	_, err := store.WithNotes(ctx, func(notes []core.Note) ([]core.Note, bool, error) {
		notes[0].Text = "tampered"
		return nil, false, nil
	})
	require.NoError(t, err)

	got, err := store.WithNotes(ctx, func(notes []core.Note) ([]core.Note, bool, error) {
		return nil, false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "alpha", got[0].Text)

	// Neither may the returned slice.
	got[0].Text = "tampered again"
	again, err := store.WithNotes(ctx, func(notes []core.Note) ([]core.Note, bool, error) {
		return nil, false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "alpha", again[0].Text)
}

func TestStore_State(t *testing.T) {
	store := memory.New()
	_, err := store.WithNotes(context.Background(), func(notes []core.Note) ([]core.Note, bool, error) {
		return append(notes, core.Note{ID: "x"}), true, nil
	})
	require.NoError(t, err)

	state, ok := store.State().(memory.StoreState)
	require.True(t, ok)
	assert.Equal(t, 1, state.Notes)
	assert.Equal(t, 1, state.Writes)
	assert.Equal(t, "memory", store.ComponentType())
}

func TestStore_ArrivalOrder(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = store.WithNotes(ctx, func([]core.Note) ([]core.Note, bool, error) {
			close(held)
			<-release
			return nil, false, nil
		})
	}()
	<-held

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.WithNotes(ctx, func([]core.Note) ([]core.Note, bool, error) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil, false, nil
			})
			assert.NoError(t, err)
		}(i)
		time.Sleep(10 * time.Millisecond)
	}

	close(release)
	wg.Wait()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}
