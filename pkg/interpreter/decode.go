package interpreter

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// FallbackMessage is the message of the no_op synthesized for unparseable replies.
const FallbackMessage = "I could not understand that request. Please rephrase it."

// Decode turns a raw model reply into a decoded JSON value. It tries the whole
// reply, then the first balanced {...} object embedded in it. When neither parses
// it returns a no_op decision carrying FallbackMessage. It never validates.
func Decode(reply string) any {
	body := stripFences(strings.TrimSpace(reply))

	if v, ok := parse(body); ok {
		return v
	}

	for start := strings.IndexByte(body, '{'); start >= 0; {
		if end := balancedEnd(body, start); end >= 0 {
			if v, ok := parse(body[start : end+1]); ok {
				return v
			}
		}
		next := strings.IndexByte(body[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	return Fallback()
}

// Fallback returns the no_op decision used when a reply cannot be decoded.
func Fallback() map[string]any {
	return map[string]any{
		"action": "no_op",
		"args":   map[string]any{"message": FallbackMessage},
	}
}

func parse(s string) (any, bool) {
	if s == "" || !gjson.Valid(s) {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

// balancedEnd returns the index of the brace closing the object that opens at
// start, skipping braces inside string literals. It returns -1 if unbalanced.
func balancedEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
