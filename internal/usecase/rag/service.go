// Package rag attaches generated summaries and relevance explanations to ranked results.
// Generation is best-effort: entities and their order are never changed.
package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/discovery/internal/domain"
	"github.com/kailas-cloud/discovery/internal/domain/category"
	"github.com/kailas-cloud/discovery/internal/domain/enhance"
	"github.com/kailas-cloud/discovery/internal/domain/entity"
	"github.com/kailas-cloud/discovery/internal/metrics"
	"github.com/kailas-cloud/discovery/internal/usecase/search"
)

// DefaultTopK is how many leading entities form the context and get enhanced.
const DefaultTopK = 5

// Config configures the enhancement service.
type Config struct {
	TopK    int
	Workers int
	// Categories are enhanced by EnhanceCategories.
	Categories []category.Category
}

// Options tune a single Enhance call.
type Options struct {
	// TopK overrides Config.TopK when positive.
	TopK int
	// EnhanceAll generates for every entity instead of only the top K.
	EnhanceAll bool
}

// Service runs per-entity generation on a bounded worker pool.
type Service struct {
	completer domain.Completer
	cache     Cache
	pool      *ants.Pool
	cfg       Config
	logger    *zap.Logger
}

// New creates the enhancement service. cache may be nil.
func New(completer domain.Completer, cache Cache, cfg Config, logger *zap.Logger) (*Service, error) {
	if completer == nil {
		return nil, errors.New("rag: completer is required")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = []category.Category{category.Submissions}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("create rag pool: %w", err)
	}
	return &Service{
		completer: completer,
		cache:     cache,
		pool:      pool,
		cfg:       cfg,
		logger:    logger.Named("rag"),
	}, nil
}

// Close releases the worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// Enhance returns one result per entity, in input order. Entities beyond the top K
// (unless EnhanceAll) and entities whose generation failed carry nil fields.
func (s *Service) Enhance(ctx context.Context, query string, entities []entity.Entity, opts Options) []enhance.Result {
	results := make([]enhance.Result, len(entities))
	for i, e := range entities {
		results[i] = enhance.Plain(e)
	}
	if len(entities) == 0 || query == "" {
		return results
	}

	topK := s.cfg.TopK
	if opts.TopK > 0 {
		topK = opts.TopK
	}
	topK = min(topK, len(entities))
	n := topK
	if opts.EnhanceAll {
		n = len(entities)
	}
	shared := buildContext(entities[:topK])

	var wg sync.WaitGroup
	for i := range n {
		e := entities[i]
		key := enhance.Key{Query: query, Category: e.Category(), EntityID: e.EntityID()}
		if s.cache != nil {
			if f, ok := s.cache.Get(ctx, key); ok {
				results[i] = f.Apply(results[i])
				outcome(key, "cached")
				continue
			}
		}

		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					outcome(key, "panic")
					s.logger.Error("enhancement panicked", zap.Int64("entity_id", key.EntityID), zap.Any("panic", rec))
				}
			}()

			f, err := s.generate(ctx, query, shared, e)
			if err != nil {
				outcome(key, "error")
				s.logger.Warn("enhancement failed",
					zap.String("category", key.Category.String()),
					zap.Int64("entity_id", key.EntityID),
					zap.Error(err),
				)
				return
			}
			results[i] = f.Apply(results[i])
			outcome(key, "ok")
			if s.cache != nil {
				s.cache.Put(ctx, key, f)
			}
		})
		if err != nil {
			wg.Done()
			outcome(key, "rejected")
			s.logger.Warn("enhancement not scheduled", zap.Error(err))
		}
	}
	wg.Wait()
	return results
}

// EnhanceCategories enhances the configured categories of a search result in place
// and returns it. Other categories are untouched.
func (s *Service) EnhanceCategories(ctx context.Context, query string, res search.Results) search.Results {
	for _, c := range s.cfg.Categories {
		p, ok := res[c]
		if !ok || len(p.Items()) == 0 {
			continue
		}
		start := time.Now()
		res[c] = p.WithEnhanced(s.Enhance(ctx, query, p.Items(), Options{}))
		metrics.EnhanceDuration.WithLabelValues(c.String()).Observe(time.Since(start).Seconds())
	}
	return res
}

func outcome(key enhance.Key, result string) {
	metrics.EnhanceResultsTotal.WithLabelValues(key.Category.String(), result).Inc()
}

func (s *Service) generate(ctx context.Context, query, shared string, e entity.Entity) (enhance.Fields, error) {
	out, err := s.completer.Complete(ctx, buildPrompt(query, shared, e))
	if err != nil {
		return enhance.Fields{}, fmt.Errorf("complete: %w", err)
	}
	f, err := parseFields(out.Text)
	if err != nil {
		return enhance.Fields{}, err
	}
	if f == (enhance.Fields{}) {
		return enhance.Fields{}, errNoObject
	}
	return f, nil
}
