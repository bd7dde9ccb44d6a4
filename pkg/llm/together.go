package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

type togetherRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
	MaxTokens   int     `json:"max_tokens"`
	Stop        string  `json:"stop"`
}

// Together calls the Together raw completions API with an instruction-style prompt.
type Together struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

// NewTogether creates a Together provider. Empty fields take the defaults.
func NewTogether(cfg Config, client *http.Client) *Together {
	p := &Together{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		client:   client,
	}
	if p.endpoint == "" {
		p.endpoint = DefaultTogetherEndpoint
	}
	if p.model == "" {
		p.model = DefaultTogetherModel
	}
	return p
}

func (p *Together) Name() string { return ProviderTogether }

func (p *Together) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	body := togetherRequest{
		Model:       p.model,
		Prompt:      rawPrompt(req),
		Temperature: req.Temperature,
		TopP:        0.9,
		TopK:        50,
		MaxTokens:   maxTokens,
		Stop:        "###",
	}

	data, err := postJSON(ctx, p.client, p.endpoint, p.apiKey, body)
	if err != nil {
		return "", err
	}

	// Newer deployments use the OpenAI shape, older ones output.choices.
	text := gjson.GetBytes(data, "choices.0.text")
	if !text.Exists() {
		text = gjson.GetBytes(data, "output.choices.0.text")
	}
	if !text.Exists() {
		return "", ErrEmptyResponse
	}
	return text.String(), nil
}

func rawPrompt(req Request) string {
	return fmt.Sprintf("### System:\n%s\n\n### User:\n%s\n\n### Assistant:\n", req.System, req.User)
}
