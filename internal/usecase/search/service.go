package search

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/discovery/internal/domain/category"
	"github.com/kailas-cloud/discovery/internal/domain/search/page"
	"github.com/kailas-cloud/discovery/internal/domain/search/query"
	"github.com/kailas-cloud/discovery/internal/metrics"
)

// Results maps every selected category to its page.
type Results map[category.Category]page.Page

// Service runs the per-category searches of one query concurrently.
type Service struct {
	adapters map[category.Category]adapter
	embedder Embedder
	cfg      Config
	logger   *zap.Logger
}

// New creates a search service. embedder may be nil, which disables the semantic signal.
func New(catalog Catalog, embedder Embedder, cfg Config, logger *zap.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("search config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		adapters: newAdapters(catalog, newFuser(cfg)),
		embedder: embedder,
		cfg:      cfg,
		logger:   logger.Named("search"),
	}, nil
}

// Search returns a page for every selected category. A failing category degrades to
// its empty page; only cancellation of ctx by the caller is reported as an error.
func (s *Service) Search(ctx context.Context, q query.Query) (res Results, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.SearchRequestsTotal.WithLabelValues("panic").Inc()
			s.logger.Error("search panicked", zap.Any("panic", rec), zap.Stack("stack"))
			res, err = blank(q), nil
		}
	}()

	q = s.clamp(q)
	if q.Blank() {
		metrics.SearchRequestsTotal.WithLabelValues("blank").Inc()
		return blank(q), nil
	}
	if err := ctx.Err(); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("canceled").Inc()
		return nil, fmt.Errorf("search: %w", err)
	}

	var embedder Embedder
	if q.UseSemantic() {
		embedder = s.embedder
	}
	r := newRequest(ctx, q, s.cfg, embedder, s.logger)

	cats := q.Categories()
	pages := make([]page.Page, len(cats))
	var g errgroup.Group
	for i, c := range cats {
		g.Go(func() error {
			pages[i] = s.run(ctx, c, r)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("canceled").Inc()
		return nil, fmt.Errorf("search: %w", err)
	}

	res = make(Results, len(cats))
	for i, c := range cats {
		res[c] = pages[i]
	}
	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	return res, nil
}

// Suggest is the typeahead variant: a small fixed page size, and nothing at all
// for queries shorter than the minimum length.
func (s *Service) Suggest(ctx context.Context, q query.Query) (Results, error) {
	q = q.WithPerPage(s.cfg.SuggestPerPage)
	if utf8.RuneCountInString(q.Text()) < s.cfg.SuggestMinLength {
		return blank(q), nil
	}
	return s.Search(ctx, q)
}

// run searches one category under its own deadline, never failing.
func (s *Service) run(ctx context.Context, c category.Category, r *request) page.Page {
	empty := page.Empty(r.q.Page(c), r.q.PerPage())
	a, ok := s.adapters[c]
	if !ok {
		return empty
	}

	mode := "lexical"
	if a.hybrid(r) {
		mode = "hybrid"
	}
	start := time.Now()
	defer func() {
		metrics.CategoryDuration.WithLabelValues(c.String(), mode).Observe(time.Since(start).Seconds())
	}()

	cctx, cancel := context.WithTimeout(ctx, s.cfg.CategoryTimeout)
	defer cancel()

	p, cause := isolate(empty, func() (page.Page, error) {
		return a.search(cctx, r)
	})
	if cause != nil {
		reason := failureReason(cause)
		metrics.CategoryFailuresTotal.WithLabelValues(c.String(), reason).Inc()
		s.logger.Warn("category degraded to empty page",
			zap.String("category", c.String()),
			zap.String("reason", reason),
			zap.Error(cause),
		)
	}
	return p
}

func (s *Service) clamp(q query.Query) query.Query {
	if q.PerPage() <= 0 {
		return q.WithPerPage(s.cfg.DefaultPerPage)
	}
	return q.WithPerPage(q.PerPage())
}

func failureReason(err error) string {
	var pe *panicError
	switch {
	case errors.As(err, &pe):
		return "panic"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "error"
}

// blank is the all-empty result: every selected category, no items, pagination kept.
func blank(q query.Query) Results {
	res := make(Results, len(q.Categories()))
	for _, c := range q.Categories() {
		res[c] = page.Empty(q.Page(c), q.PerPage())
	}
	return res
}
