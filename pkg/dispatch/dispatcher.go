// Package dispatch runs one natural-language command end to end: snapshot,
// interpret, validate, execute, and shape the response.
package dispatch

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aretw0/tiller/pkg/action"
	"github.com/aretw0/tiller/pkg/core"
)

// DefaultContextSize is the number of recent notes shown to the model.
const DefaultContextSize = 50

// Interpreter produces an undecoded-but-parsed decision for a command.
type Interpreter interface {
	Interpret(ctx context.Context, text string, snapshot []core.Note) (any, error)
}

// Dispatcher wires the service and the interpreter together.
type Dispatcher struct {
	service     *core.Service
	interpreter Interpreter
	contextSize int
	logger      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithContextSize sets how many recent notes are sent to the model.
func WithContextSize(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.contextSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Dispatcher.
func New(service *core.Service, interp Interpreter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		service:     service,
		interpreter: interp,
		contextSize: DefaultContextSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle runs one command. It never returns an error; every failure is a Response.
func (d *Dispatcher) Handle(ctx context.Context, text string) Response {
	snapshot, err := d.service.Snapshot(ctx, d.contextSize)
	if err != nil {
		d.logger.Error("snapshot failed", "error", err)
		return failure(http.StatusInternalServerError, CodeStorageError, err)
	}

	decision, err := d.interpreter.Interpret(ctx, text, snapshot)
	if err != nil {
		d.logger.Error("command failed", "stage", "interpret", "error", err)
		return failure(http.StatusInternalServerError, CodeLLMCallFailed, err)
	}

	act, err := action.Validate(decision)
	if err != nil {
		d.logger.Warn("rejected model decision", "reason", err.Error())
		return Response{
			Status:  http.StatusBadRequest,
			Payload: InvalidOutputPayload{Error: CodeInvalidLLMOutput, Detail: err.Error(), Raw: decision},
		}
	}

	resp := d.Execute(ctx, act)
	d.logger.Info("command handled", "action", act.Tag(), "status", resp.Status)
	return resp
}

// Execute runs an already validated action against the service.
func (d *Dispatcher) Execute(ctx context.Context, act action.Action) Response {
	switch a := act.(type) {
	case action.AddNote:
		note, err := d.service.AddNote(ctx, a.Text)
		if err != nil {
			return executionFailure(err)
		}
		return ok(NotePayload{Message: "Note added", Note: note})

	case action.ListNotes:
		notes, err := d.service.ListNotes(ctx, a.ListOptions())
		if err != nil {
			return executionFailure(err)
		}
		if notes == nil {
			notes = []core.Note{}
		}
		return ok(NotesPayload{Notes: notes})

	case action.UpdateNote:
		note, err := d.service.UpdateNote(ctx, a.ID, a.Update())
		if err != nil {
			return executionFailure(err)
		}
		return ok(NotePayload{Message: "Note updated", Note: note})

	case action.DeleteNote:
		if err := d.service.DeleteNote(ctx, a.ID); err != nil {
			return executionFailure(err)
		}
		return ok(DeletedPayload{Message: "Note deleted", ID: a.ID})

	case action.NoOp:
		return ok(MessagePayload{Message: a.Message})

	default:
		return Response{Status: http.StatusBadRequest, Payload: ErrorPayload{Error: CodeUnknownAction}}
	}
}

func ok(payload any) Response {
	return Response{Status: http.StatusOK, Payload: payload}
}

func failure(status int, code string, err error) Response {
	return Response{Status: status, Payload: ErrorPayload{Error: code, Detail: err.Error()}}
}

// executionFailure maps client-caused errors to 400 and everything else to 500.
func executionFailure(err error) Response {
	if core.IsValidation(err) || core.IsNotFound(err) {
		return failure(http.StatusBadRequest, CodeExecutionError, err)
	}
	return failure(http.StatusInternalServerError, CodeStorageError, err)
}
