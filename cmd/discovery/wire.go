package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/discovery/internal/breaker"
	"github.com/kailas-cloud/discovery/internal/config"
	dbPostgres "github.com/kailas-cloud/discovery/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/discovery/internal/db/redis"
	"github.com/kailas-cloud/discovery/internal/domain"
	"github.com/kailas-cloud/discovery/internal/domain/category"
	"github.com/kailas-cloud/discovery/internal/metrics"
	budgetrepo "github.com/kailas-cloud/discovery/internal/repository/budget"
	"github.com/kailas-cloud/discovery/internal/repository/catalog"
	"github.com/kailas-cloud/discovery/internal/repository/embcache"
	"github.com/kailas-cloud/discovery/internal/repository/enhcache"
	chiTransport "github.com/kailas-cloud/discovery/internal/transport/chi"
	lcTransport "github.com/kailas-cloud/discovery/internal/transport/langchain"
	openaiTransport "github.com/kailas-cloud/discovery/internal/transport/openai"
	budgetuc "github.com/kailas-cloud/discovery/internal/usecase/budget"
	completionuc "github.com/kailas-cloud/discovery/internal/usecase/completion"
	embeddinguc "github.com/kailas-cloud/discovery/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/discovery/internal/usecase/health"
	raguc "github.com/kailas-cloud/discovery/internal/usecase/rag"
	searchuc "github.com/kailas-cloud/discovery/internal/usecase/search"
	usageuc "github.com/kailas-cloud/discovery/internal/usecase/usage"
)

// catalogStore is what the composition root needs from a catalog backend.
type catalogStore interface {
	searchuc.Catalog
	healthuc.Pinger
}

type dependencies struct {
	search   *searchuc.Service
	enhancer chiTransport.Enhancer // nil when RAG is disabled
	health   *healthuc.Service
	usage    *usageuc.Service
	closers  []func()
}

func (d *dependencies) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// wire is the composition root: config in, services out.
func wire(ctx context.Context, cfg config.Config, logger *zap.Logger) (deps *dependencies, err error) {
	deps = &dependencies{}
	defer func() {
		if err != nil {
			deps.close()
		}
	}()

	cat, pinger, err := openCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		return deps, err
	}
	if c, ok := pinger.(interface{ Close() }); ok {
		deps.closers = append(deps.closers, c.Close)
	}
	healthOpts := []healthuc.Option{}
	var budgets []usageuc.BudgetReader

	var cache *dbRedis.Store
	if cfg.Cache.Enabled {
		cache, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			return deps, fmt.Errorf("cache store: %w", err)
		}
		deps.closers = append(deps.closers, cache.Close)
		if err := cache.WaitForReady(ctx, config.Seconds(cfg.Cache.ReadinessTimeout)); err != nil {
			return deps, fmt.Errorf("cache not ready: %w", err)
		}
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))
		healthOpts = append(healthOpts, healthuc.WithCache(cache))
	}

	// Pass a nil interface (not a typed nil pointer) when embedding is off.
	var embedder searchuc.Embedder
	if cfg.Embedding.Enabled {
		e, tracker := buildEmbedder(ctx, cfg, cache, logger)
		embedder = e
		if tracker != nil {
			budgets = append(budgets, tracker)
		}
		healthOpts = append(healthOpts, healthuc.WithEmbedding(e))
		logger.Info("Embedder created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	}

	deps.search, err = searchuc.New(cat, embedder, searchConfig(cfg.Search), logger)
	if err != nil {
		return deps, fmt.Errorf("search service: %w", err)
	}

	if cfg.RAG.Enabled {
		completer, tracker, err := buildCompleter(ctx, cfg, cache, logger)
		if err != nil {
			return deps, err
		}
		if tracker != nil {
			budgets = append(budgets, tracker)
		}
		healthOpts = append(healthOpts, healthuc.WithCompletion(completer))

		var enhCache raguc.Cache
		if cache != nil {
			enhCache = enhcache.New(cache, config.Seconds(cfg.RAG.CacheTTLSec), metrics.EnhanceCacheTotal, logger)
		}
		ragSvc, err := raguc.New(completer, enhCache, ragConfig(cfg.RAG), logger)
		if err != nil {
			return deps, fmt.Errorf("rag service: %w", err)
		}
		deps.closers = append(deps.closers, ragSvc.Close)
		deps.enhancer = ragSvc
		logger.Info("Enhancement enabled",
			zap.String("backend", cfg.Completion.Backend),
			zap.String("model", cfg.Completion.Model),
			zap.Strings("categories", cfg.RAG.Categories),
		)
	}

	deps.health = healthuc.New(pinger, healthOpts...)
	deps.usage = usageuc.New(budgets...)
	return deps, nil
}

func openCatalog(ctx context.Context, cfg config.CatalogConfig, logger *zap.Logger) (catalogStore, healthuc.Pinger, error) {
	switch cfg.Driver {
	case config.CatalogPostgres:
		store, err := dbPostgres.NewStore(dbPostgres.Config{
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: config.Seconds(cfg.ConnMaxLifetimeSec),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("catalog store: %w", err)
		}
		if err := store.WaitForReady(ctx, config.Seconds(cfg.ReadinessTimeout)); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("catalog not ready: %w", err)
		}
		logger.Info("Connected to catalog database")
		return postgresCatalog{Repo: catalog.New(store), store: store}, store, nil
	default:
		fixture, err := catalog.LoadFixture(cfg.FixturePath)
		if err != nil {
			return nil, nil, fmt.Errorf("catalog fixture: %w", err)
		}
		logger.Info("Loaded catalog fixture",
			zap.String("path", cfg.FixturePath),
			zap.Int("tools", len(fixture.Tools)),
			zap.Int("submissions", len(fixture.Submissions)),
		)
		mem := catalog.NewMemory(fixture)
		return mem, mem, nil
	}
}

// postgresCatalog pairs the query repo with the pool it runs on.
type postgresCatalog struct {
	*catalog.Repo
	store *dbPostgres.Store
}

func (p postgresCatalog) Ping(ctx context.Context) error { return p.store.Ping(ctx) }

func newBreaker(name string, cfg config.BreakerConfig, timeoutSec int, logger *zap.Logger) *breaker.Breaker {
	return breaker.New(breaker.Config{
		Name:         name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     config.Seconds(cfg.IntervalSec),
		OpenTimeout:  config.Seconds(cfg.OpenTimeoutSec),
		MinRequests:  cfg.MinRequests,
		FailureRatio: cfg.FailureRatio,
		CallTimeout:  config.Seconds(timeoutSec),
	}, logger)
}

// newBudget returns nil when no limits are configured. Counters persist only when a cache is available.
func newBudget(
	ctx context.Context, kind, provider string, cfg config.BudgetConfig, exceeded error,
	cache *dbRedis.Store, logger *zap.Logger,
) *budgetuc.Tracker {
	if cfg.DailyTokenLimit <= 0 && cfg.MonthlyTokenLimit <= 0 {
		return nil
	}
	t := budgetuc.NewTracker(budgetuc.Settings{
		Kind:         kind,
		Provider:     provider,
		DailyLimit:   cfg.DailyTokenLimit,
		MonthlyLimit: cfg.MonthlyTokenLimit,
		Action:       budgetuc.ParseAction(cfg.Action),
		Exceeded:     exceeded,
	}, logger)
	if cache != nil {
		t.WithStore(ctx, budgetrepo.New(cache, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
	}
	return t
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction -> Guarded.
// The tracker is nil when no limits are configured.
func buildEmbedder(
	ctx context.Context, cfg config.Config, cache *dbRedis.Store, logger *zap.Logger,
) (*embeddinguc.GuardedEmbedder, *budgetuc.Tracker) {
	ec := cfg.Embedding
	var embedder domain.Embedder = openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   ec.Provider,
		Logger:     logger,
	})

	if cache != nil {
		embedder = embcache.New(
			embedder, cache, ec.Model, config.Seconds(cfg.Cache.EmbeddingTTLSec), metrics.EmbeddingCacheTotal, logger,
		)
	}

	// Go gotcha: a typed nil *Tracker inside the interface is not nil.
	var budget embeddinguc.BudgetChecker
	tracker := newBudget(ctx, metrics.KindEmbedding, ec.Provider, ec.Budget,
		domain.ErrEmbeddingQuotaExceeded, cache, logger)
	if tracker != nil {
		budget = tracker
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, budget, logger)

	// Instruction prefix sits outside the cache, so cache keys include it.
	if ec.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, ec.QueryInstruction)
	}

	guarded := embeddinguc.NewGuardedEmbedder(embedder, newBreaker(metrics.KindEmbedding, cfg.Breaker, ec.TimeoutSec, logger))
	return guarded, tracker
}

// buildCompleter assembles: backend -> Instrumented -> Guarded.
func buildCompleter(
	ctx context.Context, cfg config.Config, cache *dbRedis.Store, logger *zap.Logger,
) (*completionuc.GuardedCompleter, *budgetuc.Tracker, error) {
	cc := cfg.Completion

	var completer domain.Completer
	switch cc.Backend {
	case config.BackendLangchain:
		lc, err := lcTransport.NewCompleter(lcTransport.Config{
			APIKey:      cc.APIKey,
			BaseURL:     cc.BaseURL,
			Model:       cc.Model,
			Provider:    cc.Provider,
			Temperature: float64(cc.Temperature),
			MaxTokens:   cc.MaxTokens,
			Logger:      logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("langchain completer: %w", err)
		}
		completer = lc
	default:
		completer = openaiTransport.NewCompleter(&openaiTransport.Config{
			APIKey:      cc.APIKey,
			BaseURL:     cc.BaseURL,
			Model:       cc.Model,
			Provider:    cc.Provider,
			Temperature: cc.Temperature,
			MaxTokens:   cc.MaxTokens,
			Logger:      logger,
		})
	}

	var budget completionuc.BudgetChecker
	tracker := newBudget(ctx, metrics.KindCompletion, cc.Provider, cc.Budget,
		domain.ErrCompletionQuotaExceeded, cache, logger)
	if tracker != nil {
		budget = tracker
	}
	completer = completionuc.NewInstrumentedCompleter(completer, cc.Provider, cc.Model, budget, logger)

	guarded := completionuc.NewGuardedCompleter(completer, newBreaker(metrics.KindCompletion, cfg.Breaker, cc.TimeoutSec, logger))
	return guarded, tracker, nil
}

func searchConfig(s config.SearchConfig) searchuc.Config {
	return searchuc.Config{
		LexicalWeight:    s.LexicalWeight,
		SemanticWeight:   s.SemanticWeight,
		BufferMultiplier: s.BufferMultiplier,
		MaxBuffer:        s.MaxBuffer,
		MaxDistance:      s.MaxDistance,
		DefaultPerPage:   s.DefaultPerPage,
		CategoryTimeout:  config.Seconds(s.CategoryTimeoutSec),
		SuggestMinLength: s.SuggestMinLength,
		SuggestPerPage:   s.SuggestPerPage,
	}
}

func ragConfig(r config.RAGConfig) raguc.Config {
	cats := make([]category.Category, 0, len(r.Categories))
	for _, name := range r.Categories {
		// Validated at config load.
		if c, err := category.Parse(name); err == nil {
			cats = append(cats, c)
		}
	}
	return raguc.Config{TopK: r.TopK, Workers: r.Workers, Categories: cats}
}
