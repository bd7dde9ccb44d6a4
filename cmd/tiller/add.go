package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tiller/pkg/core"
)

var addCmd = &cobra.Command{
	Use:   "add <text...>",
	Short: "Add a note directly, without the language model",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *core.Service) error {
			note, err := svc.AddNote(ctx, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("failed to add note: %w", err)
			}
			printNote(os.Stdout, note)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
