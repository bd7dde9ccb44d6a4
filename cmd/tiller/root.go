package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/tiller"
	"github.com/aretw0/tiller/internal/config"
	"github.com/aretw0/tiller/pkg/core"
	"github.com/aretw0/tiller/pkg/dispatch"
	"github.com/aretw0/tiller/pkg/interpreter"
	"github.com/aretw0/tiller/pkg/llm"
)

var (
	verbose    bool
	configPath string
	storePath  string
	adapter    string
	readOnly   bool

	cfg *config.Config
	// baseDir anchors relative store paths: the directory of the config file, or the working directory.
	baseDir string
)

var rootCmd = &cobra.Command{
	Use:   "tiller",
	Short: "Manage notes with natural-language commands",
	Long: `Tiller turns free-form requests ("remind me to buy milk", "what is left?")
into validated note actions using a language model, and applies them to a local note store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}

		level := slog.LevelInfo
		if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			level = slog.LevelInfo
		}
		if verbose {
			level = slog.LevelDebug
		}
		opts := &slog.HandlerOptions{Level: level}

		var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
		if cfg.Log.Format == "json" {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		}
		slog.SetDefault(slog.New(handler))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to tiller.yaml (default: nearest tiller root)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Override the store path")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "", "Override the store adapter (fs, sqlite, memory)")
	rootCmd.PersistentFlags().BoolVar(&readOnly, "read-only", false, "Open the store read-only")
}

// resolveConfigPath returns the explicit --config, or tiller.yaml in the nearest root.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		abs, err := filepath.Abs(configPath)
		if err != nil {
			return "", err
		}
		baseDir = filepath.Dir(abs)
		return abs, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	baseDir = wd
	if root, err := tiller.FindRoot(wd); err == nil {
		baseDir = root
	}
	return filepath.Join(baseDir, config.FileName), nil
}

func openService() (*core.Service, error) {
	path := cfg.Store.Path
	if storePath != "" {
		path = storePath
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	name := cfg.Store.Adapter
	if adapter != "" {
		name = adapter
	}

	return tiller.New(path,
		tiller.WithAdapter(name),
		tiller.WithReadOnly(readOnly || cfg.Store.ReadOnly),
		tiller.WithProcessLock(cfg.Store.ProcessLock, 0),
		tiller.WithLogger(slog.Default()),
	)
}

func newDispatcher(svc *core.Service) (*dispatch.Dispatcher, error) {
	provider, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		Endpoint: cfg.LLM.Endpoint,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.APIKey(),
	}, nil)
	if err != nil {
		return nil, err
	}

	interp := interpreter.New(provider,
		interpreter.WithTimeout(cfg.LLM.Timeout),
		interpreter.WithTemperature(cfg.LLM.Temperature),
		interpreter.WithMaxTokens(cfg.LLM.MaxTokens),
		interpreter.WithLogger(slog.Default()),
	)
	return dispatch.New(svc, interp,
		dispatch.WithContextSize(cfg.Interpreter.ContextNotes),
		dispatch.WithLogger(slog.Default()),
	), nil
}

// withService opens the service for the duration of fn.
func withService(fn func(ctx context.Context, svc *core.Service) error) error {
	svc, err := openService()
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer svc.Close()
	return fn(context.Background(), svc)
}
