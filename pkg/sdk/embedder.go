package discovery

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/discovery/internal/domain"
)

// Embedder converts query text to a vector. Vectors must come from the same
// model that produced the catalog's stored embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Completer produces text from a generative model for a single prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (CompletionResult, error)
}

// CompletionResult carries the generated text and token counts.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// healthChecker is optionally implemented by an Embedder or Completer.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func (a *embedderAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(healthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// completerAdapter wraps public Completer to satisfy internal domain.Completer.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	r, err := a.inner.Complete(ctx, prompt)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("complete: %w", err)
	}
	return domain.CompletionResult{
		Text:             r.Text,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
		TotalTokens:      r.TotalTokens,
	}, nil
}

func (a *completerAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(healthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
