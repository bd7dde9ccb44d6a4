package dispatch

import (
	"github.com/aretw0/tiller/pkg/core"
)

// Error codes of failure payloads.
const (
	CodeStorageError     = "storage_error"
	CodeLLMCallFailed    = "llm_call_failed"
	CodeInvalidLLMOutput = "invalid_llm_output"
	CodeUnknownAction    = "unknown_action"
	CodeExecutionError   = "execution_error"
)

// Response is the outcome of one command: an HTTP-style status and a JSON-serializable payload.
type Response struct {
	Status  int
	Payload any
}

// ErrorPayload is returned for every failure.
type ErrorPayload struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// InvalidOutputPayload is returned when the model decision fails validation.
// Raw is always serialized, null included.
type InvalidOutputPayload struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
	Raw    any    `json:"raw"`
}

// NotePayload is returned by add and update.
type NotePayload struct {
	Message string    `json:"message"`
	Note    core.Note `json:"note"`
}

// NotesPayload is returned by list.
type NotesPayload struct {
	Notes []core.Note `json:"notes"`
}

// DeletedPayload is returned by delete.
type DeletedPayload struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// MessagePayload is returned by no_op.
type MessagePayload struct {
	Message string `json:"message"`
}
