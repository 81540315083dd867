// Package langchain adapts langchaingo chat models to the domain completion contract.
// It is the alternative backend to the native OpenAI client for gateways that only
// speak through langchaingo's provider set.
package langchain

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/discovery/internal/domain"
	"github.com/kailas-cloud/discovery/internal/metrics"
)

// Config holds the langchaingo model settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Provider    string
	Temperature float64
	MaxTokens   int
	Logger      *zap.Logger
}

// Completer implements domain.Completer over any llms.Model.
type Completer struct {
	model       llms.Model
	name        string
	provider    string
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// NewCompleter creates a completer backed by langchaingo's OpenAI-compatible model.
func NewCompleter(cfg Config) (*Completer, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create langchain model: %w", err)
	}
	return NewCompleterWithModel(llm, cfg), nil
}

// NewCompleterWithModel wraps an existing model.
func NewCompleterWithModel(model llms.Model, cfg Config) *Completer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Completer{
		model:       model,
		name:        cfg.Model,
		provider:    cfg.Provider,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}
}

// Complete sends the prompt as a single human message.
func (c *Completer) Complete(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}
	opts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, content, opts...)
	duration := time.Since(start)

	if err != nil {
		c.failure("api_error")
		return domain.CompletionResult{}, fmt.Errorf("generate content: %v: %w", err, domain.ErrCompletionProviderError)
	}
	if resp == nil || len(resp.Choices) == 0 {
		c.failure("empty_response")
		return domain.CompletionResult{}, fmt.Errorf("no choices returned: %w", domain.ErrCompletionProviderError)
	}

	choice := resp.Choices[0]
	res := domain.CompletionResult{
		Text:             choice.Content,
		PromptTokens:     infoInt(choice.GenerationInfo, "PromptTokens"),
		CompletionTokens: infoInt(choice.GenerationInfo, "CompletionTokens"),
		TotalTokens:      infoInt(choice.GenerationInfo, "TotalTokens"),
	}

	metrics.ProviderRequestsTotal.WithLabelValues(metrics.KindCompletion, c.provider, c.name, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(metrics.KindCompletion, c.provider, c.name).Observe(duration.Seconds())
	if res.TotalTokens > 0 {
		metrics.ProviderTokensTotal.WithLabelValues(metrics.KindCompletion, c.provider, c.name, "total").
			Add(float64(res.TotalTokens))
	}
	c.logger.Debug("langchain completion",
		zap.String("model", c.name),
		zap.Duration("duration", duration),
		zap.String("stop_reason", choice.StopReason),
	)
	return res, nil
}

func (c *Completer) failure(errorType string) {
	metrics.ProviderRequestsTotal.WithLabelValues(metrics.KindCompletion, c.provider, c.name, "error").Inc()
	metrics.ProviderErrorsTotal.WithLabelValues(metrics.KindCompletion, c.provider, c.name, errorType).Inc()
}

// infoInt reads a token counter from GenerationInfo; providers differ in the numeric type.
func infoInt(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
