package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tiller/pkg/llm"
)

func TestNew(t *testing.T) {
	p, err := llm.New(llm.Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = llm.New(llm.Config{Provider: "Together"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "together", p.Name())

	_, err = llm.New(llm.Config{Provider: "carrier-pigeon"}, nil)
	assert.Error(t, err)
}

func TestOpenAI_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"{\"action\":\"no_op\",\"args\":{\"message\":\"hi\"}}"}}]}`)
	}))
	defer srv.Close()

	p := llm.NewOpenAI(llm.Config{Endpoint: srv.URL + "/v1/", Model: "test-model", APIKey: "secret"}, srv.Client())
	out, err := p.Complete(context.Background(), llm.Request{System: "sys", User: "hello", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"action":"no_op","args":{"message":"hi"}}`, out)

	assert.Equal(t, "test-model", got["model"])
	assert.Equal(t, float64(0), got["temperature"])
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "hello", msgs[1].(map[string]any)["content"])
}

func TestOpenAI_Failures(t *testing.T) {
	t.Run("http status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"message":"bad key"}}`)
		}))
		defer srv.Close()

		_, err := llm.NewOpenAI(llm.Config{Endpoint: srv.URL}, srv.Client()).Complete(context.Background(), llm.Request{})
		var statusErr *llm.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
		assert.Contains(t, err.Error(), "bad key")
	})

	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"choices":[]}`)
		}))
		defer srv.Close()

		_, err := llm.NewOpenAI(llm.Config{Endpoint: srv.URL}, srv.Client()).Complete(context.Background(), llm.Request{})
		assert.ErrorIs(t, err, llm.ErrEmptyResponse)
	})

	t.Run("context deadline", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := llm.NewOpenAI(llm.Config{Endpoint: srv.URL}, srv.Client()).Complete(ctx, llm.Request{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})
}

func TestTogether_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = io.WriteString(w, `{"output":{"choices":[{"text":" {\"action\":\"list_notes\",\"args\":{}}"}]}}`)
	}))
	defer srv.Close()

	p := llm.NewTogether(llm.Config{Endpoint: srv.URL}, srv.Client())
	out, err := p.Complete(context.Background(), llm.Request{System: "rules", User: "show notes"})
	require.NoError(t, err)
	assert.Equal(t, ` {"action":"list_notes","args":{}}`, out)

	assert.Equal(t, "###", got["stop"])
	prompt := got["prompt"].(string)
	assert.True(t, strings.HasPrefix(prompt, "### System:\nrules"))
	assert.True(t, strings.HasSuffix(prompt, "### Assistant:\n"))
	assert.Contains(t, prompt, "show notes")
}

func TestProviderFunc(t *testing.T) {
	p := llm.ProviderFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return req.User, nil
	})
	out, err := p.Complete(context.Background(), llm.Request{User: "echo"})
	require.NoError(t, err)
	assert.Equal(t, "echo", out)
}
