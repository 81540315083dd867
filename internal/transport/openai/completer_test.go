package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/discovery/internal/domain"
)

func TestCompleter_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "chat-model" || len(req.Messages) != 1 || req.Messages[0].Content != "explain" {
			t.Errorf("unexpected request: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "c1",
			"object": "chat.completion",
			"model":  "chat-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": `{"summary":"s"}`},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17},
		})
	}))
	defer server.Close()

	c := NewCompleter(&Config{APIKey: "test-key", BaseURL: server.URL, Model: "chat-model", Provider: "test"})

	res, err := c.Complete(context.Background(), "explain")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if res.Text != `{"summary":"s"}` {
		t.Errorf("Text = %q", res.Text)
	}
	if res.PromptTokens != 12 || res.CompletionTokens != 5 || res.TotalTokens != 17 {
		t.Errorf("unexpected usage: %+v", res)
	}
}

func TestCompleter_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "c1", "choices": []any{}})
	}))
	defer server.Close()

	c := NewCompleter(&Config{APIKey: "test-key", BaseURL: server.URL, Model: "chat-model", Provider: "test"})

	_, err := c.Complete(context.Background(), "explain")
	if !errors.Is(err, domain.ErrCompletionProviderError) {
		t.Fatalf("expected ErrCompletionProviderError, got %v", err)
	}
}

func TestCompleter_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"detail":"upstream overloaded"}`))
	}))
	defer server.Close()

	c := NewCompleter(&Config{APIKey: "test-key", BaseURL: server.URL, Model: "chat-model", Provider: "test"})

	_, err := c.Complete(context.Background(), "explain")
	if !errors.Is(err, domain.ErrCompletionProviderError) {
		t.Fatalf("expected ErrCompletionProviderError, got %v", err)
	}
}
