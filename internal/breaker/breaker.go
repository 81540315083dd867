// Package breaker guards calls to remote model providers with a circuit breaker and a per-call timeout.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/kailas-cloud/discovery/internal/domain"
	"github.com/kailas-cloud/discovery/internal/metrics"
)

// Config describes one breaker.
type Config struct {
	Name         string
	MaxRequests  uint32        // probes allowed while half-open
	Interval     time.Duration // closed-state counter reset period
	OpenTimeout  time.Duration // how long the breaker stays open
	MinRequests  uint32        // requests observed before the ratio is evaluated
	FailureRatio float64
	CallTimeout  time.Duration // 0 = caller deadline only
}

// Breaker wraps gobreaker with a timeout and state logging.
type Breaker struct {
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// New creates a breaker. State transitions are logged and exported as a gauge.
func New(cfg Config, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	minRequests := cfg.MinRequests
	ratio := cfg.FailureRatio

	st := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < minRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= ratio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isSuccessful,
	}

	metrics.BreakerState.WithLabelValues(cfg.Name).Set(float64(gobreaker.StateClosed))
	return &Breaker{cb: gobreaker.NewCircuitBreaker(st), timeout: cfg.CallTimeout}
}

// isSuccessful keeps caller cancellations and quota rejections from tripping the breaker;
// neither says anything about provider health.
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, domain.ErrEmbeddingQuotaExceeded) ||
		errors.Is(err, domain.ErrCompletionQuotaExceeded)
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.cb.Name() }

// Open reports whether calls are currently rejected.
func (b *Breaker) Open() bool { return b.cb.State() == gobreaker.StateOpen }

// Do runs fn under the breaker with the configured timeout.
// A rejected call returns an error wrapping domain.ErrProviderUnavailable.
func Do[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%s: %w: %w", b.cb.Name(), domain.ErrProviderUnavailable, err)
		}
		return zero, err
	}
	v, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("%s: unexpected result type %T", b.cb.Name(), out)
	}
	return v, nil
}
