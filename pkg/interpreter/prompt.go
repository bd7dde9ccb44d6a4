package interpreter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/tiller/pkg/core"
)

// SystemPrompt is the fixed instruction sent with every command.
const SystemPrompt = `You translate a user's request into exactly one note-management action.

Reply with a single JSON object and nothing else, shaped as {"action": <name>, "args": {...}}.

Actions:
- add_note: {"text": string}. Create a note. text must not be empty.
- list_notes: {"filter": "all" | "TODO" | "DONE" | "recent:N", "limit": integer or null}. Show notes. N is a positive integer.
- update_note: {"id": string, "text": string or null, "status": "TODO" | "DONE" | null}. Change a note. Provide text, status or both.
- delete_note: {"id": string}. Remove a note.
- no_op: {"message": string}. Use when the request is not about notes, is ambiguous, or refers to a note that is not listed.

Rules:
- Only use ids that appear in the provided notes. Never invent ids.
- Marking something as finished or completed means update_note with status "DONE".
- Keep the user's wording when adding a note; do not add commentary.
- Prefer no_op with a short clarifying question over guessing.`

type contextNote struct {
	ID     string      `json:"id"`
	Text   string      `json:"text"`
	Status core.Status `json:"status"`
}

// UserMessage renders the user text and the note snapshot. Only id, text and
// status are exposed to the model.
func UserMessage(text string, snapshot []core.Note) (string, error) {
	notes := make([]contextNote, 0, len(snapshot))
	for _, n := range snapshot {
		notes = append(notes, contextNote{ID: n.ID, Text: n.Text, Status: n.Status})
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	var b strings.Builder
	b.WriteString("Current notes (oldest first):\n")
	b.Write(data)
	b.WriteString("\n\nRequest:\n")
	b.WriteString(text)
	return b.String(), nil
}
