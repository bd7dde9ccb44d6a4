package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/tiller/internal/config"
	"github.com/aretw0/tiller/internal/platform"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a .tiller directory and a default tiller.yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		if err := os.MkdirAll(filepath.Join(dir, platform.SystemDir), 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", platform.SystemDir, err)
		}

		path := filepath.Join(dir, config.FileName)
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("%s already exists, left untouched\n", path)
			return nil
		}

		data, err := yaml.Marshal(config.DefaultConfig())
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Printf("Initialized tiller in %s\n", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
