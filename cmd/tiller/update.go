package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tiller/pkg/core"
)

var (
	updateText   string
	updateStatus string
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change the text and/or status of a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var upd core.NoteUpdate
		if cmd.Flags().Changed("text") {
			upd.Text = &updateText
		}
		if cmd.Flags().Changed("status") {
			status, err := core.ParseStatus(updateStatus)
			if err != nil {
				return err
			}
			upd.Status = &status
		}
		if upd.Text == nil && upd.Status == nil {
			return fmt.Errorf("nothing to update: pass --text and/or --status")
		}
		return updateNote(args[0], upd)
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a note as DONE",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := core.StatusDone
		return updateNote(args[0], core.NoteUpdate{Status: &status})
	},
}

func updateNote(id string, upd core.NoteUpdate) error {
	return withService(func(ctx context.Context, svc *core.Service) error {
		note, err := svc.UpdateNote(ctx, id, upd)
		if err != nil {
			return fmt.Errorf("failed to update note: %w", err)
		}
		printNote(os.Stdout, note)
		return nil
	})
}

func init() {
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(doneCmd)
	updateCmd.Flags().StringVar(&updateText, "text", "", "New text")
	updateCmd.Flags().StringVar(&updateStatus, "status", "", "New status (TODO or DONE)")
}
