package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/discovery/internal/domain"
	"github.com/kailas-cloud/discovery/internal/metrics"
)

// Completer is a chat completion provider using the OpenAI-compatible API.
type Completer struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	user        string
	obs         observer
	logger      *zap.Logger
}

// NewCompleter creates an OpenAI-compatible chat completion provider.
func NewCompleter(cfg *Config) *Completer {
	return &Completer{
		client:      newClient(cfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		user:        cfg.User,
		obs:         observer{kind: metrics.KindCompletion, provider: cfg.Provider, model: cfg.Model},
		logger:      loggerOrNop(cfg.Logger),
	}
}

// Complete implements domain.Completer with a single user message.
func (c *Completer) Complete(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		User:        c.user,
	}
	if c.maxTokens > 0 {
		req.MaxTokens = c.maxTokens
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		c.obs.failure("api_error")
		return domain.CompletionResult{}, parseAPIError("completion", err, domain.ErrCompletionProviderError)
	}
	if len(resp.Choices) == 0 {
		c.obs.failure("empty_response")
		return domain.CompletionResult{}, fmt.Errorf("empty completion response: %w", domain.ErrCompletionProviderError)
	}

	c.obs.success(duration, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	c.logger.Debug("chat completion created",
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)

	return domain.CompletionResult{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels.
func (c *Completer) HealthCheck(ctx context.Context) error {
	return listModels(ctx, c.client)
}
