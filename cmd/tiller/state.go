package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aretw0/tiller/pkg/core"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the internal state of the service and its store as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *core.Service) error {
			return printJSON(svc.State())
		})
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
}
