package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	N              int             `json:"n"`
	Stream         bool            `json:"stream"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// OpenAI talks to any OpenAI-compatible chat completions API
// (OpenAI, Ollama, OpenRouter, vLLM).
type OpenAI struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

// NewOpenAI creates an OpenAI-compatible provider. Empty fields take the defaults.
func NewOpenAI(cfg Config, client *http.Client) *OpenAI {
	p := &OpenAI{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		client:   client,
	}
	if p.endpoint == "" {
		p.endpoint = DefaultOpenAIEndpoint
	}
	if p.model == "" {
		p.model = DefaultOpenAIModel
	}
	return p
}

func (p *OpenAI) Name() string { return ProviderOpenAI }

func (p *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	body := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		N:           1,
	}
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	data, err := postJSON(ctx, p.client, p.endpoint+"/chat/completions", p.apiKey, body)
	if err != nil {
		return "", err
	}

	choice := gjson.GetBytes(data, "choices.0.message.content")
	if !choice.Exists() {
		return "", ErrEmptyResponse
	}
	return choice.String(), nil
}
