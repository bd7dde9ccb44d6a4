package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tiller/pkg/core"
	"github.com/aretw0/tiller/pkg/dispatch"
)

var doCmd = &cobra.Command{
	Use:   "do <request...>",
	Short: "Run a natural-language command against the notes",
	Example: `  tiller do remind me to buy milk
  tiller do "what is still open?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		return withService(func(ctx context.Context, svc *core.Service) error {
			d, err := newDispatcher(svc)
			if err != nil {
				return err
			}

			resp := d.Handle(ctx, text)
			if err := renderResponse(resp); err != nil {
				return err
			}
			if resp.Status >= http.StatusBadRequest {
				return fmt.Errorf("command failed with status %d", resp.Status)
			}
			return nil
		})
	},
}

func renderResponse(resp dispatch.Response) error {
	switch p := resp.Payload.(type) {
	case dispatch.NotePayload:
		fmt.Println(p.Message)
		printNote(os.Stdout, p.Note)
	case dispatch.NotesPayload:
		printNotes(os.Stdout, p.Notes)
	case dispatch.DeletedPayload:
		fmt.Printf("%s: %s\n", p.Message, p.ID)
	case dispatch.MessagePayload:
		fmt.Println(p.Message)
	default:
		return printJSON(p)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(doCmd)
}
