package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	openaiTransport "github.com/kailas-cloud/discovery/internal/transport/openai"
	discovery "github.com/kailas-cloud/discovery/pkg/sdk"
)

// openClient builds an SDK client from the global flags.
func openClient(ctx context.Context, c *cli.Command) (*discovery.Client, error) {
	var opts []discovery.Option

	switch {
	case c.String("dsn") != "":
		opts = append(opts, discovery.WithPostgres(c.String("dsn")))
	case c.String("fixture") != "":
		opts = append(opts, discovery.WithFixture(c.String("fixture")))
	default:
		return nil, fmt.Errorf("either --dsn or --fixture is required")
	}

	if c.Bool("debug") {
		opts = append(opts, discovery.WithLogger(
			slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})),
		))
	}

	if key := c.String("openai-key"); key != "" {
		tc := openaiTransport.Config{
			APIKey:   key,
			BaseURL:  c.String("openai-base-url"),
			Provider: "openai",
		}
		emb := tc
		emb.Model = c.String("embedding-model")
		opts = append(opts, discovery.WithEmbedder(embedder{inner: openaiTransport.NewEmbedder(&emb)}))

		chat := tc
		chat.Model = c.String("chat-model")
		opts = append(opts, discovery.WithCompleter(completer{inner: openaiTransport.NewCompleter(&chat)}))
	}

	client, err := discovery.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return client, nil
}

// embedder exposes the OpenAI transport through the SDK interface.
type embedder struct {
	inner *openaiTransport.Embedder
}

func (e embedder) Embed(ctx context.Context, text string) (discovery.EmbeddingResult, error) {
	r, err := e.inner.Embed(ctx, text)
	if err != nil {
		return discovery.EmbeddingResult{}, err
	}
	return discovery.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func (e embedder) HealthCheck(ctx context.Context) error { return e.inner.HealthCheck(ctx) }

type completer struct {
	inner *openaiTransport.Completer
}

func (cp completer) Complete(ctx context.Context, prompt string) (discovery.CompletionResult, error) {
	r, err := cp.inner.Complete(ctx, prompt)
	if err != nil {
		return discovery.CompletionResult{}, err
	}
	return discovery.CompletionResult{
		Text:             r.Text,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
		TotalTokens:      r.TotalTokens,
	}, nil
}

func (cp completer) HealthCheck(ctx context.Context) error { return cp.inner.HealthCheck(ctx) }
