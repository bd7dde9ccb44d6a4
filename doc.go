// Package tiller is the composition root for Tiller, a note store driven by
// natural-language commands.
//
// A language model translates free-form text into one of a fixed set of actions
// (add, list, update, delete, no-op). Every decision is validated against the
// action schema before it reaches the store, and every store access is one
// serialized read-modify-write of the whole collection.
//
// Layers:
//
//   - core: notes, filters, typed errors and the Service (Note Operations).
//   - adapters: fs (JSON/YAML file, default), sqlite and memory stores.
//   - action: the tagged union of actions and its validator.
//   - llm, interpreter: provider backends and the prompt/decoding logic.
//   - dispatch, server: one command end to end, and its HTTP endpoint.
//
// Usage:
//
//	svc, err := tiller.New(".tiller/notes.json", tiller.WithLogger(logger))
//	provider, err := llm.New(llm.Config{APIKey: key}, nil)
//	d := tiller.NewDispatcher(svc, provider)
//	resp := d.Handle(ctx, "remind me to buy milk")
package tiller
