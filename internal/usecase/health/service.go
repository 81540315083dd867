package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing; search still answers.
	Degraded Status = "degraded"
	// Unhealthy indicates the catalog is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentCatalog    = "catalog"
	ComponentCache      = "cache"
	ComponentEmbedding  = "embedding"
	ComponentCompletion = "completion"
)

const defaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type check struct {
	name     string
	required bool
	fn       func(ctx context.Context) error
}

// Service coordinates health checks.
type Service struct {
	checks  []check
	timeout time.Duration
}

// Option adds an optional component to the report.
type Option func(*Service)

// WithCache checks the Redis cache.
func WithCache(p Pinger) Option {
	return func(s *Service) { s.add(ComponentCache, false, p.Ping) }
}

// WithEmbedding checks the embedding provider.
func WithEmbedding(c ProviderChecker) Option {
	return func(s *Service) { s.add(ComponentEmbedding, false, c.HealthCheck) }
}

// WithCompletion checks the completion provider.
func WithCompletion(c ProviderChecker) Option {
	return func(s *Service) { s.add(ComponentCompletion, false, c.HealthCheck) }
}

// WithTimeout bounds each individual check.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// New creates a Service. The catalog is the only required component.
func New(catalog Pinger, opts ...Option) *Service {
	s := &Service{timeout: defaultCheckTimeout}
	s.add(ComponentCatalog, true, catalog.Ping)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) add(name string, required bool, fn func(ctx context.Context) error) {
	s.checks = append(s.checks, check{name: name, required: required, fn: fn})
}

// Check runs all health checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		g      errgroup.Group
		checks = make(map[string]CheckResult, len(s.checks))
		status = Healthy
	)

	for _, c := range s.checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			result := CheckOK
			if err := c.fn(cctx); err != nil {
				result = CheckError
			}

			mu.Lock()
			defer mu.Unlock()
			checks[c.name] = result
			if result == CheckError {
				if c.required {
					status = Unhealthy
				} else if status == Healthy {
					status = Degraded
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	return Report{Status: status, Checks: checks}
}
