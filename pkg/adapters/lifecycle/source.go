// Package lifecycle exposes note collection events as a lifecycle.Source so
// they can be consumed by the same supervision loop as OS signals.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/tiller/pkg/core"
)

// Option narrows what a Source forwards.
type Option func(*eventSource)

// OnlyTypes forwards events of the given types and drops the rest.
func OnlyTypes(types ...core.EventType) Option {
	return func(s *eventSource) {
		s.allow = make(map[core.EventType]bool, len(types))
		for _, t := range types {
			s.allow[t] = true
		}
	}
}

type eventSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
	allow  map[core.EventType]bool
}

// NewSource wraps a core.Event channel (from Service.Subscribe or
// Service.Watch). The output channel closes when the input closes or the
// context passed to Start is cancelled.
func NewSource(events <-chan core.Event, opts ...Option) lifecycle.Source {
	s := &eventSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *eventSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *eventSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			var e core.Event
			select {
			case <-ctx.Done():
				return nil
			case next, ok := <-s.events:
				if !ok {
					return nil
				}
				e = next
			}
			if s.allow != nil && !s.allow[e.Type] {
				continue
			}
			select {
			case s.out <- e:
			case <-ctx.Done():
				return nil
			}
		}
	})
	return nil
}
