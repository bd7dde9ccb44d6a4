package dispatch_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tiller/pkg/action"
	"github.com/aretw0/tiller/pkg/adapters/memory"
	"github.com/aretw0/tiller/pkg/core"
	"github.com/aretw0/tiller/pkg/dispatch"
	"github.com/aretw0/tiller/pkg/interpreter"
	"github.com/aretw0/tiller/pkg/llm"
)

type brokenStore struct{}

func (brokenStore) WithNotes(context.Context, core.MutateFunc) ([]core.Note, error) {
	return nil, errors.New("disk unavailable")
}
func (brokenStore) Initialize(context.Context) error { return nil }

type otherAction struct{}

func (otherAction) Tag() action.Tag { return "format_disk" }

// scripted returns a dispatcher whose model always answers reply.
func scripted(t *testing.T, reply string, seed ...core.Note) (*dispatch.Dispatcher, *core.Service) {
	t.Helper()
	svc := core.NewService(memory.New(seed...))
	p := llm.ProviderFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return reply, nil
	})
	return dispatch.New(svc, interpreter.New(p)), svc
}

func payloadJSON(t *testing.T, resp dispatch.Response) map[string]any {
	t.Helper()
	data, err := json.Marshal(resp.Payload)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestHandle_AddNote(t *testing.T) {
	d, svc := scripted(t, `{"action":"add_note","args":{"text":"  Buy milk  "}}`)

	resp := d.Handle(context.Background(), "remind me to buy milk")
	require.Equal(t, http.StatusOK, resp.Status)

	p, ok := resp.Payload.(dispatch.NotePayload)
	require.True(t, ok)
	assert.Equal(t, "Note added", p.Message)
	assert.Equal(t, "Buy milk", p.Note.Text)
	assert.Equal(t, core.StatusTodo, p.Note.Status)

	notes, err := svc.ListNotes(context.Background(), core.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestHandle_ListNotes(t *testing.T) {
	seed := []core.Note{
		{ID: "1", Text: "a", Status: core.StatusTodo},
		{ID: "2", Text: "b", Status: core.StatusDone},
		{ID: "3", Text: "c", Status: core.StatusTodo},
	}
	d, _ := scripted(t, `{"action":"list_notes","args":{"filter":"TODO","limit":null}}`, seed...)

	resp := d.Handle(context.Background(), "what is left?")
	require.Equal(t, http.StatusOK, resp.Status)
	p := resp.Payload.(dispatch.NotesPayload)
	require.Len(t, p.Notes, 2)
	assert.Equal(t, "1", p.Notes[0].ID)
	assert.Equal(t, "3", p.Notes[1].ID)
}

func TestHandle_ListEmptyIsArray(t *testing.T) {
	d, _ := scripted(t, `{"action":"list_notes","args":{}}`)
	resp := d.Handle(context.Background(), "list")
	assert.Equal(t, []any{}, payloadJSON(t, resp)["notes"])
}

func TestHandle_UpdateAndDelete(t *testing.T) {
	seed := []core.Note{{ID: "n1", Text: "call mom", Status: core.StatusTodo}}

	d, _ := scripted(t, `{"action":"update_note","args":{"id":"n1","status":"DONE"}}`, seed...)
	resp := d.Handle(context.Background(), "I called mom")
	require.Equal(t, http.StatusOK, resp.Status)
	p := resp.Payload.(dispatch.NotePayload)
	assert.Equal(t, "Note updated", p.Message)
	assert.Equal(t, core.StatusDone, p.Note.Status)
	assert.Equal(t, "call mom", p.Note.Text)

	d, svc := scripted(t, `{"action":"delete_note","args":{"id":"n1"}}`, seed...)
	resp = d.Handle(context.Background(), "forget about mom")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, dispatch.DeletedPayload{Message: "Note deleted", ID: "n1"}, resp.Payload)

	notes, err := svc.ListNotes(context.Background(), core.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestHandle_NoOp(t *testing.T) {
	d, _ := scripted(t, `Sure. {"action":"no_op","args":{"message":"hi"}}`)
	resp := d.Handle(context.Background(), "hello")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, dispatch.MessagePayload{Message: "hi"}, resp.Payload)
}

func TestHandle_GarbageBecomesNoOp(t *testing.T) {
	d, _ := scripted(t, `no idea`)
	resp := d.Handle(context.Background(), "hello")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, dispatch.MessagePayload{Message: interpreter.FallbackMessage}, resp.Payload)
}

func TestHandle_InvalidDecision(t *testing.T) {
	d, svc := scripted(t, `{"action":"update_note","args":{"id":"x"}}`)

	resp := d.Handle(context.Background(), "change it")
	require.Equal(t, http.StatusBadRequest, resp.Status)

	body := payloadJSON(t, resp)
	assert.Equal(t, "invalid_llm_output", body["error"])
	assert.Equal(t, "update_note must provide text or status", body["detail"])
	assert.Equal(t, map[string]any{"action": "update_note", "args": map[string]any{"id": "x"}}, body["raw"])

	notes, err := svc.ListNotes(context.Background(), core.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestHandle_NullDecisionKeepsRaw(t *testing.T) {
	d, _ := scripted(t, `null`)

	resp := d.Handle(context.Background(), "hmm")
	require.Equal(t, http.StatusBadRequest, resp.Status)

	body := payloadJSON(t, resp)
	assert.Equal(t, "invalid_llm_output", body["error"])
	raw, ok := body["raw"]
	assert.True(t, ok, "raw must be present")
	assert.Nil(t, raw)
}

func TestHandle_ExecutionError(t *testing.T) {
	d, _ := scripted(t, `{"action":"delete_note","args":{"id":"ghost"}}`)
	resp := d.Handle(context.Background(), "delete ghost")
	require.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, dispatch.ErrorPayload{Error: "execution_error", Detail: "note not found: ghost"}, resp.Payload)
}

func TestHandle_ProviderFailure(t *testing.T) {
	svc := core.NewService(memory.New())
	p := llm.ProviderFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return "", errors.New("quota exceeded")
	})
	d := dispatch.New(svc, interpreter.New(p))

	resp := d.Handle(context.Background(), "add milk")
	require.Equal(t, http.StatusInternalServerError, resp.Status)
	body := payloadJSON(t, resp)
	assert.Equal(t, "llm_call_failed", body["error"])
	assert.Contains(t, body["detail"], "quota exceeded")
}

func TestHandle_StorageFailure(t *testing.T) {
	called := false
	p := llm.ProviderFunc(func(ctx context.Context, req llm.Request) (string, error) {
		called = true
		return `{}`, nil
	})
	d := dispatch.New(core.NewService(brokenStore{}), interpreter.New(p))

	resp := d.Handle(context.Background(), "add milk")
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, "storage_error", payloadJSON(t, resp)["error"])
	assert.False(t, called)
}

func TestHandle_ContextSize(t *testing.T) {
	var seed []core.Note
	for _, id := range []string{"1", "2", "3", "4"} {
		seed = append(seed, core.Note{ID: id, Text: "note " + id, Status: core.StatusTodo})
	}
	var user string
	p := llm.ProviderFunc(func(ctx context.Context, req llm.Request) (string, error) {
		user = req.User
		return `{"action":"no_op","args":{"message":"ok"}}`, nil
	})
	d := dispatch.New(core.NewService(memory.New(seed...)), interpreter.New(p), dispatch.WithContextSize(2))

	d.Handle(context.Background(), "anything")
	assert.NotContains(t, user, `"note 2"`)
	assert.Contains(t, user, `"note 3"`)
	assert.Contains(t, user, `"note 4"`)
}

func TestExecute_UnknownAction(t *testing.T) {
	d, _ := scripted(t, "")
	resp := d.Execute(context.Background(), otherAction{})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, dispatch.ErrorPayload{Error: "unknown_action"}, resp.Payload)
}
