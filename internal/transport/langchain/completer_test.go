package langchain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/kailas-cloud/discovery/internal/domain"
)

type stubModel struct {
	resp   *llms.ContentResponse
	err    error
	prompt string
}

func (m *stubModel) GenerateContent(
	_ context.Context, msgs []llms.MessageContent, _ ...llms.CallOption,
) (*llms.ContentResponse, error) {
	if len(msgs) > 0 && len(msgs[0].Parts) > 0 {
		if tp, ok := msgs[0].Parts[0].(llms.TextContent); ok {
			m.prompt = tp.Text
		}
	}
	return m.resp, m.err
}

func (m *stubModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", errors.New("not used")
}

func TestCompleter_Complete(t *testing.T) {
	m := &stubModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:        `{"summary":"s"}`,
		GenerationInfo: map[string]any{"PromptTokens": 10, "CompletionTokens": 4, "TotalTokens": 14},
	}}}}
	c := NewCompleterWithModel(m, Config{Model: "m", Provider: "test"})

	res, err := c.Complete(context.Background(), "explain this")
	require.NoError(t, err)
	assert.Equal(t, "explain this", m.prompt)
	assert.Equal(t, `{"summary":"s"}`, res.Text)
	assert.Equal(t, 10, res.PromptTokens)
	assert.Equal(t, 4, res.CompletionTokens)
	assert.Equal(t, 14, res.TotalTokens)
}

func TestCompleter_Errors(t *testing.T) {
	c := NewCompleterWithModel(&stubModel{err: errors.New("dial tcp")}, Config{Model: "m"})
	_, err := c.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrCompletionProviderError)

	c = NewCompleterWithModel(&stubModel{resp: &llms.ContentResponse{}}, Config{Model: "m"})
	_, err = c.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrCompletionProviderError)
}

func TestCompleter_OpenAICompatibleServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "c1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "chat-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "hello"},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4},
		})
	}))
	defer server.Close()

	c, err := NewCompleter(Config{APIKey: "k", BaseURL: server.URL, Model: "chat-model", Provider: "test"})
	require.NoError(t, err)

	res, err := c.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, 4, res.TotalTokens)
}

func TestInfoInt(t *testing.T) {
	info := map[string]any{"a": 3, "b": int64(4), "c": float64(5), "d": "6"}
	assert.Equal(t, 3, infoInt(info, "a"))
	assert.Equal(t, 4, infoInt(info, "b"))
	assert.Equal(t, 5, infoInt(info, "c"))
	assert.Equal(t, 0, infoInt(info, "d"))
	assert.Equal(t, 0, infoInt(nil, "missing"))
}
