// Package action defines the fixed vocabulary of commands a language model may emit
// and the validator that turns untrusted decoded JSON into one of them.
//
// Nothing outside this package should inspect a model decision directly: Validate
// is the only way to obtain an Action, and only an Action is executed.
package action

import (
	"github.com/aretw0/tiller/pkg/core"
)

// Tag names an action variant on the wire.
type Tag string

const (
	TagAddNote    Tag = "add_note"
	TagListNotes  Tag = "list_notes"
	TagUpdateNote Tag = "update_note"
	TagDeleteNote Tag = "delete_note"
	TagNoOp       Tag = "no_op"
)

// Tags lists every known tag in prompt order.
var Tags = []Tag{TagAddNote, TagListNotes, TagUpdateNote, TagDeleteNote, TagNoOp}

// Action is a validated command. The concrete type is one of the variants below.
type Action interface {
	Tag() Tag
}

// AddNote creates a note.
type AddNote struct {
	Text string
}

// ListNotes lists notes. Limit 0 means no cap.
type ListNotes struct {
	Filter core.Filter
	Limit  int
}

// UpdateNote changes the text and/or status of a note. Nil fields are left unchanged.
type UpdateNote struct {
	ID     string
	Text   *string
	Status *core.Status
}

// DeleteNote removes a note.
type DeleteNote struct {
	ID string
}

// NoOp carries an informational message and touches nothing.
type NoOp struct {
	Message string
}

func (AddNote) Tag() Tag    { return TagAddNote }
func (ListNotes) Tag() Tag  { return TagListNotes }
func (UpdateNote) Tag() Tag { return TagUpdateNote }
func (DeleteNote) Tag() Tag { return TagDeleteNote }
func (NoOp) Tag() Tag       { return TagNoOp }

// Update converts the action into the service's update argument.
func (u UpdateNote) Update() core.NoteUpdate {
	return core.NoteUpdate{Text: u.Text, Status: u.Status}
}

// ListOptions converts the action into the service's list argument.
func (l ListNotes) ListOptions() core.ListOptions {
	return core.ListOptions{Filter: l.Filter, Limit: l.Limit}
}
