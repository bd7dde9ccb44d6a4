package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/aretw0/tiller/pkg/core"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusLabel(s core.Status) string {
	if s == core.StatusDone {
		return color.New(color.FgGreen).Sprint("DONE")
	}
	return color.New(color.FgYellow).Sprint("TODO")
}

func printNote(w io.Writer, n core.Note) {
	fmt.Fprintf(w, "%s  %s  %s\n", statusLabel(n.Status), color.New(color.FgHiBlack).Sprint(n.ID), n.Text)
}

func printNotes(w io.Writer, notes []core.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(w, color.New(color.FgHiBlack).Sprint("(no notes)"))
		return
	}
	for _, n := range notes {
		printNote(w, n)
	}
}
