package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	tl "github.com/aretw0/tiller/pkg/adapters/lifecycle"
	"github.com/aretw0/tiller/pkg/core"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print changes made to the notes file by other processes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *core.Service) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			events, err := svc.Watch(ctx)
			if err != nil {
				return fmt.Errorf("failed to watch store: %w", err)
			}

			src := tl.NewSource(events)
			if err := src.Start(ctx); err != nil {
				return err
			}

			fmt.Fprintln(os.Stderr, "watching for changes, press Ctrl+C to stop")
			for e := range src.Events() {
				fmt.Printf("%s  %s\n", time.Now().Format(time.TimeOnly), e)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
