package action

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/aretw0/tiller/pkg/core"
)

// ErrMissingTextOrStatus is the rejection for an update that changes nothing.
var ErrMissingTextOrStatus = errors.New("update_note must provide text or status")

// Validate checks an arbitrary decoded value (typically the result of json.Unmarshal
// into any) against the action schema. It never panics; every malformed input yields
// a *core.ValidationError naming the first offending field.
func Validate(raw any) (Action, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, reject("", fmt.Errorf("decision must be a JSON object, got %s", kindOf(raw)))
	}

	tagValue, present := obj["action"]
	if !present {
		return nil, reject("action", errors.New("action is required"))
	}
	tag, ok := tagValue.(string)
	if !ok {
		return nil, reject("action", fmt.Errorf("action must be a string, got %s", kindOf(tagValue)))
	}

	argsValue, present := obj["args"]
	if !present {
		return nil, reject("args", errors.New("args is required"))
	}
	args, ok := argsValue.(map[string]any)
	if !ok {
		return nil, reject("args", fmt.Errorf("args must be an object, got %s", kindOf(argsValue)))
	}

	switch Tag(tag) {
	case TagAddNote:
		return validateAdd(args)
	case TagListNotes:
		return validateList(args)
	case TagUpdateNote:
		return validateUpdate(args)
	case TagDeleteNote:
		return validateDelete(args)
	case TagNoOp:
		return validateNoOp(args)
	default:
		return nil, reject("action", fmt.Errorf("unknown action %q", tag))
	}
}

func validateAdd(args map[string]any) (Action, error) {
	var a AddNote
	err := criterio.Run("args.text", args["text"], func(v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("text must be a string, got %s", kindOf(v))
		}
		if strings.TrimSpace(s) == "" {
			return errors.New("text must not be empty")
		}
		a.Text = s
		return nil
	})
	if err != nil {
		return nil, firstFieldError(err)
	}
	return a, nil
}

func validateList(args map[string]any) (Action, error) {
	a := ListNotes{Filter: core.Filter{Kind: core.FilterAll}}
	var errs criterio.FieldErrorsBuilder

	if v := args["filter"]; v != nil {
		s, ok := v.(string)
		if !ok {
			errs = errs.Append("args.filter", fmt.Errorf("filter must be a string, got %s", kindOf(v)))
		} else if f, err := core.ParseFilter(s); err != nil {
			errs = errs.Append("args.filter", err)
		} else {
			a.Filter = f
		}
	}

	if v := args["limit"]; v != nil {
		n, ok := positiveInt(v)
		if !ok {
			errs = errs.Append("args.limit", fmt.Errorf("limit must be a positive integer or null, got %v", v))
		} else {
			a.Limit = n
		}
	}

	if err := errs.ToError(); err != nil {
		return nil, firstFieldError(err)
	}
	return a, nil
}

func validateUpdate(args map[string]any) (Action, error) {
	var a UpdateNote
	var errs criterio.FieldErrorsBuilder

	if id, err := requireString(args, "id"); err != nil {
		errs = errs.Append("args.id", err)
	} else {
		a.ID = id
	}

	textValue, hasText := args["text"]
	statusValue, hasStatus := args["status"]
	if !hasText && !hasStatus {
		errs = errs.Append("args", ErrMissingTextOrStatus)
	}

	if hasText && textValue != nil {
		if s, ok := textValue.(string); ok {
			a.Text = &s
		} else {
			errs = errs.Append("args.text", fmt.Errorf("text must be a string or null, got %s", kindOf(textValue)))
		}
	}

	if hasStatus && statusValue != nil {
		raw, _ := statusValue.(string)
		if st, err := core.ParseStatus(raw); err != nil {
			errs = errs.Append("args.status", fmt.Errorf("status must be TODO, DONE or null, got %v", statusValue))
		} else {
			a.Status = &st
		}
	}

	if err := errs.ToError(); err != nil {
		return nil, firstFieldError(err)
	}
	return a, nil
}

func validateDelete(args map[string]any) (Action, error) {
	id, err := requireString(args, "id")
	if err != nil {
		return nil, reject("args.id", err)
	}
	return DeleteNote{ID: id}, nil
}

func validateNoOp(args map[string]any) (Action, error) {
	msg, err := requireString(args, "message")
	if err != nil {
		return nil, reject("args.message", err)
	}
	return NoOp{Message: msg}, nil
}

func requireString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %s", key, kindOf(v))
	}
	return s, nil
}

// positiveInt accepts the integer encodings produced by encoding/json
// (float64, or json.Number with UseNumber) as well as native ints.
func positiveInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || n < 1 || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case int:
		return n, n > 0
	case int64:
		return int(n), n > 0 && n <= math.MaxInt32
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return positiveInt(i)
	default:
		return 0, false
	}
}

func reject(field string, err error) error {
	return &core.ValidationError{Field: field, Reason: err.Error()}
}

func firstFieldError(err error) error {
	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return reject(fieldErrs[0].Field, fieldErrs[0].Err)
	}
	return reject("", err)
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
