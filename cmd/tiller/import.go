package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/aretw0/tiller/pkg/core"
)

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <glob>...",
	Short: "Add one note per non-empty line of the matching files",
	Example: `  tiller import 'inbox/**/*.txt'
  tiller import todo.md --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		for _, pattern := range args {
			matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				return fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			files = append(files, matches...)
		}
		if len(files) == 0 {
			return fmt.Errorf("no files match %s", strings.Join(args, " "))
		}

		return withService(func(ctx context.Context, svc *core.Service) error {
			total := 0
			for _, file := range files {
				lines, err := readLines(file)
				if err != nil {
					return err
				}
				for _, line := range lines {
					if importDryRun {
						fmt.Printf("would add: %s\n", line)
						continue
					}
					if _, err := svc.AddNote(ctx, line); err != nil {
						return fmt.Errorf("failed to import %s: %w", file, err)
					}
				}
				slog.Debug("imported file", "file", file, "notes", len(lines))
				total += len(lines)
			}
			fmt.Printf("%d notes from %d files\n", total, len(files))
			return nil
		})
	},
}

// readLines returns the non-empty lines of a file, with list markers
// ("- ", "* ", "- [ ] ") removed.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		for _, marker := range []string{"- [ ] ", "- ", "* "} {
			line = strings.TrimPrefix(line, marker)
		}
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Print the notes instead of adding them")
}
