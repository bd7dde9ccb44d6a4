package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tiller/pkg/core"
)

var (
	listJSON   bool
	listFilter string
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := core.ParseFilter(listFilter)
		if err != nil {
			return err
		}
		if listLimit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}

		return withService(func(ctx context.Context, svc *core.Service) error {
			notes, err := svc.ListNotes(ctx, core.ListOptions{Filter: filter, Limit: listLimit})
			if err != nil {
				return fmt.Errorf("failed to list notes: %w", err)
			}
			if listJSON {
				if notes == nil {
					notes = []core.Note{}
				}
				return printJSON(notes)
			}
			printNotes(os.Stdout, notes)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "all", "all, TODO, DONE or recent:N")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Maximum number of notes (0 = no limit)")
}
