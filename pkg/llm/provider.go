// Package llm abstracts the language model behind a single capability: turn a
// system instruction and a user message into raw text.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Provider is one language model backend.
// Complete returns an error only when the call itself fails (transport, auth, quota,
// empty reply). Text that cannot be parsed is not an error at this level.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is a single completion request.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	// JSON asks the backend to constrain output to a JSON object when it supports it.
	JSON bool
}

// Config selects and configures a backend.
type Config struct {
	Provider string // "openai" (default) or "together"
	Endpoint string
	Model    string
	APIKey   string
}

const (
	ProviderOpenAI   = "openai"
	ProviderTogether = "together"

	DefaultOpenAIEndpoint   = "https://api.openai.com/v1"
	DefaultOpenAIModel      = "gpt-4o-mini"
	DefaultTogetherEndpoint = "https://api.together.xyz/v1/completions"
	DefaultTogetherModel    = "mistralai/Mixtral-8x7B-Instruct-v0.1"

	maxResponseBytes = 4 << 20
)

// New builds the provider named by cfg.Provider. A nil client gets a client with
// a generous transport timeout; callers bound individual calls with ctx.
func New(cfg Config, client *http.Client) (Provider, error) {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		return NewOpenAI(cfg, client), nil
	case ProviderTogether:
		return NewTogether(cfg, client), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned HTTP %d: %s", e.StatusCode, e.Message)
}

// ErrEmptyResponse is returned when the backend answers without any choice.
var ErrEmptyResponse = errors.New("provider returned no choices")

// postJSON sends body to url and returns the raw response body of a 2xx reply.
func postJSON(ctx context.Context, client *http.Client, url, apiKey string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(data, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(data))
			if len(msg) > 200 {
				msg = msg[:200]
			}
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}
	return data, nil
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, req Request) (string, error)

func (f ProviderFunc) Name() string { return "func" }

func (f ProviderFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
