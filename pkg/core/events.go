package core

import (
	"fmt"
	"time"
)

// EventType represents the type of change in the collection.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change in the collection.
// ID is empty when the change is not attributable to one note (external edits of the backing file).
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer (and lifecycle.Event).
func (e Event) String() string {
	if e.ID == "" {
		return fmt.Sprintf("%s *", e.Type)
	}
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}

func newEvent(t EventType, id string) Event {
	return Event{Type: t, ID: id, Timestamp: time.Now().Unix()}
}
