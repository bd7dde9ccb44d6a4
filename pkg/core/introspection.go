package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	EventBufferSize int    `json:"event_buffer_size"`
	Subscribers     int    `json:"subscribers"`
	StoreType       string `json:"store_type"`
	Store           any    `json:"store,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := ServiceState{
		EventBufferSize: s.eventBufferSize,
		Subscribers:     len(s.subscribers),
		StoreType:       "unknown",
	}
	if s.store != nil {
		state.StoreType = "store"
		if comp, ok := s.store.(introspection.Component); ok {
			state.StoreType = comp.ComponentType()
		}
		if in, ok := s.store.(introspection.Introspectable); ok {
			state.Store = in.State()
		}
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
