package completion

import (
	"context"

	"github.com/kailas-cloud/discovery/internal/breaker"
	"github.com/kailas-cloud/discovery/internal/domain"
)

// GuardedCompleter runs every call through a circuit breaker with a per-call timeout.
type GuardedCompleter struct {
	inner domain.Completer
	cb    *breaker.Breaker
}

// NewGuardedCompleter wraps inner with cb.
func NewGuardedCompleter(inner domain.Completer, cb *breaker.Breaker) *GuardedCompleter {
	return &GuardedCompleter{inner: inner, cb: cb}
}

// Complete implements domain.Completer.
func (g *GuardedCompleter) Complete(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	return breaker.Do(ctx, g.cb, func(ctx context.Context) (domain.CompletionResult, error) {
		return g.inner.Complete(ctx, prompt)
	})
}

// HealthCheck reports the open breaker as unavailable, otherwise forwards.
func (g *GuardedCompleter) HealthCheck(ctx context.Context) error {
	if g.cb.Open() {
		return domain.ErrProviderUnavailable
	}
	if hc, ok := g.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
