package core_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tiller/pkg/adapters/memory"
	"github.com/aretw0/tiller/pkg/core"
)

type failingStore struct{ err error }

func (f failingStore) WithNotes(context.Context, core.MutateFunc) ([]core.Note, error) {
	return nil, f.err
}

func (f failingStore) Initialize(context.Context) error { return nil }

func newService(t *testing.T, seed ...core.Note) (*core.Service, *memory.Store) {
	t.Helper()
	store := memory.New(seed...)
	return core.NewService(store), store
}

func seedNotes(t *testing.T, svc *core.Service, texts ...string) []core.Note {
	t.Helper()
	out := make([]core.Note, 0, len(texts))
	for _, text := range texts {
		n, err := svc.AddNote(context.Background(), text)
		require.NoError(t, err)
		out = append(out, n)
	}
	return out
}

func allNotes(t *testing.T, svc *core.Service) []core.Note {
	t.Helper()
	notes, err := svc.ListNotes(context.Background(), core.ListOptions{})
	require.NoError(t, err)
	return notes
}

func TestService_AddNote(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := core.NewService(memory.New(), core.WithClock(func() time.Time { return fixed }))

	note, err := svc.AddNote(context.Background(), "  Buy milk  ")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", note.Text)
	assert.Equal(t, core.StatusTodo, note.Status)
	assert.NotEmpty(t, note.ID)
	assert.Equal(t, fixed, note.CreatedAt)
	assert.Equal(t, fixed, note.UpdatedAt)

	notes := allNotes(t, svc)
	require.Len(t, notes, 1)
	assert.Equal(t, note, notes[0])
}

func TestService_AddNote_Empty(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.AddNote(context.Background(), "   \n\t")
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.Equal(t, "note text cannot be empty", err.Error())
	assert.Empty(t, allNotes(t, svc))
}

func TestService_AddNote_UniqueIDs(t *testing.T) {
	svc, _ := newService(t)
	seen := map[string]bool{}
	for _, n := range seedNotes(t, svc, "a", "b", "c", "d", "e", "f") {
		assert.False(t, seen[n.ID], "duplicate id %s", n.ID)
		seen[n.ID] = true
	}
}

func TestService_ListNotes(t *testing.T) {
	svc, _ := newService(t)
	added := seedNotes(t, svc, "one", "two", "three", "four", "five")
	done := core.StatusDone
	_, err := svc.UpdateNote(context.Background(), added[1].ID, core.NoteUpdate{Status: &done})
	require.NoError(t, err)

	recent, err := svc.ListNotes(context.Background(), core.ListOptions{Filter: core.Filter{Kind: core.FilterRecent, Recent: 2}})
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "four", recent[0].Text)
	assert.Equal(t, "five", recent[1].Text)

	doneNotes, err := svc.ListNotes(context.Background(), core.ListOptions{Filter: core.Filter{Kind: core.FilterDone}})
	require.NoError(t, err)
	require.Len(t, doneNotes, 1)
	assert.Equal(t, "two", doneNotes[0].Text)

	limited, err := svc.ListNotes(context.Background(), core.ListOptions{Filter: core.Filter{Kind: core.FilterTodo}, Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "one", limited[0].Text)
	assert.Equal(t, "three", limited[1].Text)
}

func TestService_ListNotes_DoesNotWrite(t *testing.T) {
	svc, store := newService(t)
	seedNotes(t, svc, "one", "two")
	before := store.State().(memory.StoreState).Writes

	first := allNotes(t, svc)
	second := allNotes(t, svc)
	assert.Equal(t, first, second)
	assert.Equal(t, before, store.State().(memory.StoreState).Writes)
}

func TestService_Snapshot(t *testing.T) {
	svc, _ := newService(t)
	seedNotes(t, svc, "a", "b", "c")

	snap, err := svc.Snapshot(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, snap, 2)
	assert.Equal(t, "b", snap[0].Text)

	empty, err := svc.Snapshot(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestService_GetNote(t *testing.T) {
	svc, _ := newService(t)
	added := seedNotes(t, svc, "a")

	got, err := svc.GetNote(context.Background(), added[0].ID)
	require.NoError(t, err)
	assert.Equal(t, added[0], got)

	_, err = svc.GetNote(context.Background(), "missing")
	assert.True(t, core.IsNotFound(err))
}

func TestService_UpdateNote(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := core.NewService(memory.New(), core.WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	added := seedNotes(t, svc, "draft")

	text := "  final  "
	done := core.StatusDone
	updated, err := svc.UpdateNote(context.Background(), added[0].ID, core.NoteUpdate{Text: &text, Status: &done})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Text)
	assert.Equal(t, core.StatusDone, updated.Status)
	assert.Equal(t, added[0].CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(added[0].UpdatedAt))

	t.Run("status only keeps text", func(t *testing.T) {
		todo := core.StatusTodo
		n, err := svc.UpdateNote(context.Background(), added[0].ID, core.NoteUpdate{Status: &todo})
		require.NoError(t, err)
		assert.Equal(t, "final", n.Text)
		assert.Equal(t, core.StatusTodo, n.Status)
	})

	t.Run("invalid status", func(t *testing.T) {
		bad := core.Status("LATER")
		_, err := svc.UpdateNote(context.Background(), added[0].ID, core.NoteUpdate{Status: &bad})
		assert.True(t, core.IsValidation(err))
	})
}

func TestService_UpdateNote_UnknownID(t *testing.T) {
	svc, store := newService(t)
	seedNotes(t, svc, "a", "b")
	before := allNotes(t, svc)
	writes := store.State().(memory.StoreState).Writes

	text := "x"
	_, err := svc.UpdateNote(context.Background(), "nope", core.NoteUpdate{Text: &text})
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))
	assert.Equal(t, "note not found: nope", err.Error())

	assert.Equal(t, before, allNotes(t, svc))
	assert.Equal(t, writes, store.State().(memory.StoreState).Writes)
}

func TestService_DeleteNote(t *testing.T) {
	svc, _ := newService(t)
	added := seedNotes(t, svc, "a", "b", "c")

	require.NoError(t, svc.DeleteNote(context.Background(), added[1].ID))

	notes := allNotes(t, svc)
	require.Len(t, notes, 2)
	assert.Equal(t, "a", notes[0].Text)
	assert.Equal(t, "c", notes[1].Text)

	assert.True(t, core.IsNotFound(svc.DeleteNote(context.Background(), added[1].ID)))
}

func TestService_DeleteNote_Concurrent(t *testing.T) {
	svc, _ := newService(t)
	added := seedNotes(t, svc, "a", "b")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.DeleteNote(context.Background(), added[0].ID)
		}(i)
	}
	wg.Wait()

	var ok, notFound int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case core.IsNotFound(err):
			notFound++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, notFound)
	assert.Len(t, allNotes(t, svc), 1)
}

func TestService_ConcurrentAdds(t *testing.T) {
	svc, _ := newService(t)

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.AddNote(context.Background(), fmt.Sprintf("note %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	notes := allNotes(t, svc)
	assert.Len(t, notes, writers)
	ids := map[string]bool{}
	for _, n := range notes {
		ids[n.ID] = true
	}
	assert.Len(t, ids, writers)
}

func TestService_StorageErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	svc := core.NewService(failingStore{err: boom})
	ctx := context.Background()

	_, err := svc.AddNote(ctx, "x")
	assert.ErrorIs(t, err, boom)
	_, err = svc.ListNotes(ctx, core.ListOptions{})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.DeleteNote(ctx, "x"), boom)
	assert.False(t, core.IsValidation(err))
}

func TestService_Subscribe(t *testing.T) {
	svc, _ := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	events := svc.Subscribe(ctx)

	added := seedNotes(t, svc, "a")
	require.NoError(t, svc.DeleteNote(context.Background(), added[0].ID))

	e := <-events
	assert.Equal(t, core.EventCreate, e.Type)
	assert.Equal(t, added[0].ID, e.ID)
	e = <-events
	assert.Equal(t, core.EventDelete, e.Type)

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-events
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestService_WatchUnsupported(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Watch(context.Background())
	assert.Error(t, err)
}

func TestService_State(t *testing.T) {
	svc, _ := newService(t)
	state, ok := svc.State().(core.ServiceState)
	require.True(t, ok)
	assert.Equal(t, "memory", state.StoreType)
	assert.Equal(t, "service", svc.ComponentType())
}
