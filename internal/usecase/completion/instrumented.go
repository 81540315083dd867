// Package completion holds the generative model decorators used by enhancement.
package completion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/discovery/internal/domain"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
}

// InstrumentedCompleter wraps a Completer with budget enforcement, usage accounting and logging.
type InstrumentedCompleter struct {
	inner    domain.Completer
	provider string
	model    string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedCompleter wraps a completer. budget may be nil (unlimited).
func NewInstrumentedCompleter(
	inner domain.Completer, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedCompleter {
	return &InstrumentedCompleter{inner: inner, provider: provider, model: model, budget: budget, logger: logger}
}

// Complete checks budget, delegates, and records usage.
func (c *InstrumentedCompleter) Complete(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	if c.budget != nil {
		if err := c.budget.Check(ctx); err != nil {
			c.logger.Warn("Completion budget exceeded",
				zap.String("provider", c.provider),
				zap.String("model", c.model),
				zap.Error(err),
			)
			return domain.CompletionResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	result, err := c.inner.Complete(ctx, prompt)
	duration := time.Since(start)

	if err != nil {
		c.logger.Warn("Completion request failed",
			zap.String("provider", c.provider),
			zap.String("model", c.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.CompletionResult{}, fmt.Errorf("complete: %w", err)
	}

	domain.UsageFromContext(ctx).AddCompletionTokens(result.TotalTokens)
	if c.budget != nil {
		c.budget.Record(int64(result.TotalTokens))
	}

	c.logger.Debug("Completion request completed",
		zap.String("provider", c.provider),
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
	)
	return result, nil
}

// HealthCheck forwards to the inner completer.
func (c *InstrumentedCompleter) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
