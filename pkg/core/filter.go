package core

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterKind selects which notes a listing keeps.
type FilterKind string

const (
	FilterAll    FilterKind = "all"
	FilterTodo   FilterKind = "TODO"
	FilterDone   FilterKind = "DONE"
	FilterRecent FilterKind = "recent"
)

// Filter is a parsed listing filter. Recent is only meaningful for FilterRecent.
type Filter struct {
	Kind   FilterKind
	Recent int
}

// ParseFilter parses "all", "TODO", "DONE" or "recent:N" (N a positive integer).
// An empty string is the same as "all".
func ParseFilter(raw string) (Filter, error) {
	switch raw {
	case "", string(FilterAll):
		return Filter{Kind: FilterAll}, nil
	case string(FilterTodo):
		return Filter{Kind: FilterTodo}, nil
	case string(FilterDone):
		return Filter{Kind: FilterDone}, nil
	}

	if rest, ok := strings.CutPrefix(raw, "recent:"); ok {
		n, err := strconv.Atoi(rest)
		if err == nil && n > 0 && rest[0] != '+' {
			return Filter{Kind: FilterRecent, Recent: n}, nil
		}
	}

	return Filter{}, &ValidationError{
		Field:  "filter",
		Reason: fmt.Sprintf("invalid filter %q: expected all, TODO, DONE or recent:N", raw),
	}
}

// String renders the filter in its wire form.
func (f Filter) String() string {
	switch f.Kind {
	case FilterRecent:
		return fmt.Sprintf("recent:%d", f.Recent)
	case "":
		return string(FilterAll)
	default:
		return string(f.Kind)
	}
}

// Apply returns the notes kept by the filter, preserving order.
func (f Filter) Apply(notes []Note) []Note {
	switch f.Kind {
	case FilterTodo, FilterDone:
		out := make([]Note, 0, len(notes))
		for _, n := range notes {
			if string(n.Status) == string(f.Kind) {
				out = append(out, n)
			}
		}
		return out
	case FilterRecent:
		if f.Recent < len(notes) {
			notes = notes[len(notes)-f.Recent:]
		}
	}
	out := make([]Note, len(notes))
	copy(out, notes)
	return out
}
