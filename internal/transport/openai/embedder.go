// Package openai adapts OpenAI-compatible HTTP APIs (OpenAI, Nebius, local gateways)
// to the domain embedding and completion contracts.
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

// Embedder is an embedding provider using the OpenAI-compatible API.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
	obs        observer
	logger     *zap.Logger
}

// Config holds the provider settings shared by the embedder and the completer.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	User       string
	Provider   string
	// Temperature and MaxTokens apply to chat completions only.
	Temperature float32
	MaxTokens   int
	Logger      *zap.Logger
}

func newClient(cfg *Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	return &Embedder{
		client:     newClient(cfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		obs:        observer{kind: metrics.KindEmbedding, provider: cfg.Provider, model: cfg.Model},
		logger:     loggerOrNop(cfg.Logger),
	}
}

// Embed implements domain.Embedder. Returns the vector and usage with transport-level metrics.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		e.obs.failure("api_error")
		return domain.EmbeddingResult{}, parseAPIError("embedding", err, domain.ErrEmbeddingProviderError)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		e.obs.failure("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}
	if e.dimensions > 0 && len(resp.Data[0].Embedding) != e.dimensions {
		e.obs.failure("dimension_mismatch")
		return domain.EmbeddingResult{}, fmt.Errorf("embedding has %d dimensions, want %d: %w",
			len(resp.Data[0].Embedding), e.dimensions, domain.ErrEmbeddingProviderError)
	}

	e.obs.success(duration, resp.Usage.PromptTokens, 0, resp.Usage.TotalTokens)
	e.logger.Debug("embedding created",
		zap.String("model", string(e.model)),
		zap.Duration("duration", duration),
		zap.Int("tokens", resp.Usage.TotalTokens),
	)

	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	return listModels(ctx, e.client)
}

func listModels(ctx context.Context, c *openai.Client) error {
	if _, err := c.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
