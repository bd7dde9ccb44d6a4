// Package interpreter turns free-form user text into a candidate action by asking
// a language model. It decodes the model's reply but never validates or executes it.
package interpreter

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/tiller/pkg/core"
	"github.com/aretw0/tiller/pkg/llm"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxTokens = 512
)

// Interpreter asks a Provider for one decision per command.
type Interpreter struct {
	provider    llm.Provider
	timeout     time.Duration
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithTimeout bounds each provider call. Zero or negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(i *Interpreter) { i.timeout = d }
}

// WithTemperature sets the sampling temperature (default 0).
func WithTemperature(t float64) Option {
	return func(i *Interpreter) { i.temperature = t }
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int) Option {
	return func(i *Interpreter) {
		if n > 0 {
			i.maxTokens = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// New creates an Interpreter backed by provider.
func New(provider llm.Provider, opts ...Option) *Interpreter {
	i := &Interpreter{
		provider:  provider,
		timeout:   DefaultTimeout,
		maxTokens: DefaultMaxTokens,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Interpret asks the provider to translate text into a decision, given the
// snapshot as context. A failed call (including a timeout) is a *core.ProviderError;
// an unparseable reply degrades to a no_op decision.
func (i *Interpreter) Interpret(ctx context.Context, text string, snapshot []core.Note) (any, error) {
	user, err := UserMessage(text, snapshot)
	if err != nil {
		return nil, err
	}

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := i.provider.Complete(ctx, llm.Request{
		System:      SystemPrompt,
		User:        user,
		Temperature: i.temperature,
		MaxTokens:   i.maxTokens,
		JSON:        true,
	})
	if err != nil {
		i.logger.Warn("llm call failed", "provider", i.provider.Name(), "error", err, "elapsed", time.Since(start))
		return nil, &core.ProviderError{Provider: i.provider.Name(), Err: err}
	}
	i.logger.Debug("llm reply", "provider", i.provider.Name(), "bytes", len(reply), "elapsed", time.Since(start))

	return Decode(reply), nil
}
