package core

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultEventBuffer = 100

// ListOptions controls ListNotes. A zero Filter means "all"; Limit <= 0 means no cap.
type ListOptions struct {
	Filter Filter
	Limit  int
}

// NoteUpdate carries the optional fields of an update. Nil means "leave unchanged".
type NoteUpdate struct {
	Text   *string
	Status *Status
}

// Service handles the business logic for notes.
// Every operation is exactly one scoped access to the Store.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu              sync.RWMutex
	subscribers     map[chan Event]struct{}
	eventBufferSize int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger used by the service.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source (used by tests).
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithEventBuffer sets the per-subscriber event buffer. Zero keeps the default (100).
func WithEventBuffer(size int) ServiceOption {
	return func(s *Service) {
		if size > 0 {
			s.eventBufferSize = size
		}
	}
}

// NewService creates a new Service.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:           store,
		logger:          slog.Default(),
		now:             time.Now,
		subscribers:     make(map[chan Event]struct{}),
		eventBufferSize: defaultEventBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

// AddNote trims and truncates text and appends a new TODO note to the collection.
func (s *Service) AddNote(ctx context.Context, text string) (Note, error) {
	text = NormalizeText(text)
	if text == "" {
		return Note{}, &ValidationError{Field: "text", Reason: "note text cannot be empty"}
	}

	var created Note
	_, err := s.store.WithNotes(ctx, func(notes []Note) ([]Note, bool, error) {
		id := uuid.NewString()
		for indexOf(notes, id) >= 0 {
			id = uuid.NewString()
		}
		now := s.now().UTC()
		created = Note{
			ID:        id,
			Text:      text,
			Status:    StatusTodo,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return append(notes, created), true, nil
	})
	if err != nil {
		return Note{}, err
	}

	s.logger.Debug("note added", "id", created.ID)
	s.publish(newEvent(EventCreate, created.ID))
	return created, nil
}

// ListNotes returns the notes selected by the filter, capped by the limit.
// It never mutates the store.
func (s *Service) ListNotes(ctx context.Context, opts ListOptions) ([]Note, error) {
	var result []Note
	_, err := s.store.WithNotes(ctx, func(notes []Note) ([]Note, bool, error) {
		result = opts.Filter.Apply(notes)
		return nil, false, nil
	})
	if err != nil {
		return nil, err
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

// Snapshot returns at most the n most recent notes, in insertion order.
func (s *Service) Snapshot(ctx context.Context, n int) ([]Note, error) {
	if n <= 0 {
		return []Note{}, nil
	}
	return s.ListNotes(ctx, ListOptions{Filter: Filter{Kind: FilterRecent, Recent: n}})
}

// GetNote retrieves a single note by id.
func (s *Service) GetNote(ctx context.Context, id string) (Note, error) {
	var found Note
	_, err := s.store.WithNotes(ctx, func(notes []Note) ([]Note, bool, error) {
		i := indexOf(notes, id)
		if i < 0 {
			return nil, false, &NotFoundError{ID: id}
		}
		found = notes[i]
		return nil, false, nil
	})
	if err != nil {
		return Note{}, err
	}
	return found, nil
}

// UpdateNote changes the text and/or status of a note. UpdatedAt is always refreshed.
func (s *Service) UpdateNote(ctx context.Context, id string, upd NoteUpdate) (Note, error) {
	if upd.Status != nil && !upd.Status.Valid() {
		return Note{}, &ValidationError{Field: "status", Reason: "status must be TODO or DONE"}
	}

	var updated Note
	_, err := s.store.WithNotes(ctx, func(notes []Note) ([]Note, bool, error) {
		i := indexOf(notes, id)
		if i < 0 {
			return nil, false, &NotFoundError{ID: id}
		}
		if upd.Text != nil {
			notes[i].Text = NormalizeText(*upd.Text)
		}
		if upd.Status != nil {
			notes[i].Status = *upd.Status
		}
		notes[i].UpdatedAt = s.now().UTC()
		updated = notes[i]
		return notes, true, nil
	})
	if err != nil {
		return Note{}, err
	}

	s.logger.Debug("note updated", "id", id)
	s.publish(newEvent(EventModify, id))
	return updated, nil
}

// DeleteNote removes exactly one note. The remaining notes keep their order.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	_, err := s.store.WithNotes(ctx, func(notes []Note) ([]Note, bool, error) {
		i := indexOf(notes, id)
		if i < 0 {
			return nil, false, &NotFoundError{ID: id}
		}
		next := make([]Note, 0, len(notes)-1)
		next = append(next, notes[:i]...)
		next = append(next, notes[i+1:]...)
		return next, true, nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("note deleted", "id", id)
	s.publish(newEvent(EventDelete, id))
	return nil
}

// Subscribe returns a channel receiving events for mutations made through this service.
// Events are dropped for subscribers whose buffer is full. The channel is closed when ctx is done.
func (s *Service) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, s.eventBufferSize)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subscribers, ch)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Watch observes changes made outside the process if the store supports it.
func (s *Service) Watch(ctx context.Context) (<-chan Event, error) {
	w, ok := s.store.(Watchable)
	if !ok {
		return nil, errors.New("store does not support watching")
	}
	return w.Watch(ctx)
}

// Close releases store resources, if any.
func (s *Service) Close() error {
	if c, ok := s.store.(Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Service) publish(e Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for ch := range s.subscribers {
		select {
		case ch <- e:
		default:
			s.logger.Warn("event dropped, subscriber buffer full", "event", e.String())
		}
	}
}

func indexOf(notes []Note, id string) int {
	for i, n := range notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
