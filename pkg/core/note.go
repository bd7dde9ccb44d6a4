package core

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTextLength is the maximum number of characters (code points) kept in a note.
const MaxTextLength = 4000

// Status is the completion state of a note.
type Status string

const (
	StatusTodo Status = "TODO"
	StatusDone Status = "DONE"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusTodo || s == StatusDone
}

// ParseStatus converts a raw string into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", &ValidationError{Field: "status", Reason: "status must be TODO or DONE"}
	}
	return s, nil
}

// Note is the central entity of the domain.
// The collection of notes is ordered by insertion, which is also the listing order.
type Note struct {
	ID        string    `json:"id" yaml:"id"`
	Text      string    `json:"text" yaml:"text"`
	Status    Status    `json:"status" yaml:"status"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// NormalizeText trims surrounding whitespace and truncates the result to MaxTextLength characters.
func NormalizeText(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= MaxTextLength {
		return text
	}

	n := 0
	for i := range text {
		if n == MaxTextLength {
			return text[:i]
		}
		n++
	}
	return text
}
