package embedding

import (
	"context"

	"github.com/kailas-cloud/discovery/internal/breaker"
	"github.com/kailas-cloud/discovery/internal/domain"
)

// GuardedEmbedder runs every call through a circuit breaker with a per-call timeout.
// It is the outermost layer so an open breaker short-circuits before any budget or cache work.
type GuardedEmbedder struct {
	inner domain.Embedder
	cb    *breaker.Breaker
}

// NewGuardedEmbedder wraps inner with cb.
func NewGuardedEmbedder(inner domain.Embedder, cb *breaker.Breaker) *GuardedEmbedder {
	return &GuardedEmbedder{inner: inner, cb: cb}
}

// Embed implements domain.Embedder.
func (g *GuardedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return breaker.Do(ctx, g.cb, func(ctx context.Context) (domain.EmbeddingResult, error) {
		return g.inner.Embed(ctx, text)
	})
}

// HealthCheck reports the open breaker as unavailable, otherwise forwards.
func (g *GuardedEmbedder) HealthCheck(ctx context.Context) error {
	if g.cb.Open() {
		return domain.ErrProviderUnavailable
	}
	if hc, ok := g.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
