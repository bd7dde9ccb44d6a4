// Package config loads tiller.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"
)

// FileName is the default configuration file name.
const FileName = "tiller.yaml"

// Config is the on-disk configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store"`
	LLM         LLMConfig         `yaml:"llm"`
	Interpreter InterpreterConfig `yaml:"interpreter"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

type StoreConfig struct {
	Adapter     string `yaml:"adapter"` // fs, sqlite or memory
	Path        string `yaml:"path"`
	ProcessLock bool   `yaml:"process_lock"`
	ReadOnly    bool   `yaml:"read_only"`
}

type LLMConfig struct {
	Provider    string        `yaml:"provider"` // openai or together
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

type InterpreterConfig struct {
	ContextNotes int `yaml:"context_notes"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Adapter: "fs",
			Path:    ".tiller/notes.json",
		},
		LLM: LLMConfig{
			Provider:  "openai",
			APIKeyEnv: "OPENAI_API_KEY",
			MaxTokens: 512,
			Timeout:   30 * time.Second,
		},
		Interpreter: InterpreterConfig{
			ContextNotes: 50,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyDefaults fills zero values left by a partial file.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Store.Adapter == "" {
		c.Store.Adapter = d.Store.Adapter
	}
	if c.Store.Path == "" {
		c.Store.Path = d.Store.Path
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = d.LLM.Provider
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = d.LLM.MaxTokens
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = d.LLM.Timeout
	}
	if c.Interpreter.ContextNotes == 0 {
		c.Interpreter.ContextNotes = d.Interpreter.ContextNotes
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Validate checks field values and reports every problem at once.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("store.adapter", c.Store.Adapter, oneOf("fs", "sqlite", "memory")),
		criterio.Run("llm.provider", c.LLM.Provider, oneOf("openai", "together")),
		criterio.Run("llm.temperature", c.LLM.Temperature, between(0, 2)),
		criterio.Run("llm.max_tokens", c.LLM.MaxTokens, positive),
		criterio.Run("llm.timeout", c.LLM.Timeout, positiveDuration),
		criterio.Run("interpreter.context_notes", c.Interpreter.ContextNotes, positive),
		criterio.Run("log.level", c.Log.Level, oneOf("debug", "info", "warn", "error")),
		criterio.Run("log.format", c.Log.Format, oneOf("text", "json")),
	)
}

// APIKey returns the provider key from the environment variable named by api_key_env.
func (c *Config) APIKey() string {
	if c.LLM.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.LLM.APIKeyEnv)
}

func oneOf(allowed ...string) func(string) error {
	return func(v string) error {
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return fmt.Errorf("must be one of %v, got %q", allowed, v)
	}
}

func between(lo, hi float64) func(float64) error {
	return func(v float64) error {
		if v < lo || v > hi {
			return fmt.Errorf("must be between %g and %g", lo, hi)
		}
		return nil
	}
}

func positive(v int) error {
	if v < 1 {
		return fmt.Errorf("must be at least 1")
	}
	return nil
}

func positiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}
