package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbPostgres "github.com/kailas-cloud/discovery/internal/db/postgres"
	"github.com/kailas-cloud/discovery/internal/domain/enhance"
	"github.com/kailas-cloud/discovery/internal/domain/entity"
	"github.com/kailas-cloud/discovery/internal/domain/search/query"
	"github.com/kailas-cloud/discovery/internal/repository/catalog"
	healthuc "github.com/kailas-cloud/discovery/internal/usecase/health"
	raguc "github.com/kailas-cloud/discovery/internal/usecase/rag"
	searchuc "github.com/kailas-cloud/discovery/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// searchUseCase is the internal interface for multi-category search.
type searchUseCase interface {
	Search(ctx context.Context, q query.Query) (searchuc.Results, error)
	Suggest(ctx context.Context, q query.Query) (searchuc.Results, error)
}

// enhanceUseCase is the internal interface for result enhancement.
type enhanceUseCase interface {
	Enhance(ctx context.Context, query string, entities []entity.Entity, opts raguc.Options) []enhance.Result
	EnhanceCategories(ctx context.Context, query string, res searchuc.Results) searchuc.Results
	Close()
}

// Client is the discovery SDK entry point.
type Client struct {
	searchSvc searchUseCase
	ragSvc    enhanceUseCase // nil without a completer
	healthSvc healthUseCase
	closers   []func()
	obs       *observer
}

// catalogBackend bundles what the client needs from a catalog source.
type catalogBackend struct {
	catalog searchuc.Catalog
	pinger  healthuc.Pinger
	close   func()
}

// New creates a Client. The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	backend, err := openCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		backend.close()
		return nil, err
	}

	c, err := wireClient(backend, cfg, obs)
	if err != nil {
		backend.close()
		return nil, err
	}
	return c, nil
}

func openCatalog(ctx context.Context, cfg *clientConfig) (catalogBackend, error) {
	hasFixture := cfg.fixturePath != "" || cfg.fixtureData != nil
	switch {
	case cfg.dsn != "" && hasFixture:
		return catalogBackend{}, errors.New("discovery: WithPostgres and WithFixture are mutually exclusive")
	case cfg.dsn != "":
		store, err := dbPostgres.NewStore(dbPostgres.Config{DSN: cfg.dsn})
		if err != nil {
			return catalogBackend{}, fmt.Errorf("discovery: create postgres store: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return catalogBackend{}, fmt.Errorf("discovery: catalog not ready: %w", err)
		}
		return catalogBackend{catalog: catalog.New(store), pinger: store, close: store.Close}, nil
	case hasFixture:
		var (
			fx  catalog.Fixture
			err error
		)
		if cfg.fixtureData != nil {
			fx, err = catalog.ParseFixture(cfg.fixtureData)
		} else {
			fx, err = catalog.LoadFixture(cfg.fixturePath)
		}
		if err != nil {
			return catalogBackend{}, fmt.Errorf("discovery: %w", err)
		}
		mem := catalog.NewMemory(fx)
		return catalogBackend{catalog: mem, pinger: mem, close: func() {}}, nil
	default:
		return catalogBackend{}, errors.New("discovery: catalog required (use WithPostgres or WithFixture)")
	}
}

func wireClient(backend catalogBackend, cfg *clientConfig, obs *observer) (*Client, error) {
	// Internal services log through zap; the SDK reports through its observer.
	logger := zap.NewNop()

	searchCfg := searchuc.DefaultConfig()
	if cfg.categoryTimeout > 0 {
		searchCfg.CategoryTimeout = cfg.categoryTimeout
	}

	var healthOpts []healthuc.Option

	// Nil interface (not a typed nil pointer) keeps the semantic signal off.
	var embedder searchuc.Embedder
	if cfg.embedder != nil {
		a := &embedderAdapter{inner: cfg.embedder}
		embedder = a
		healthOpts = append(healthOpts, healthuc.WithEmbedding(a))
	}

	searchSvc, err := searchuc.New(backend.catalog, embedder, searchCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}

	c := &Client{
		searchSvc: searchSvc,
		closers:   []func(){backend.close},
		obs:       obs,
	}

	if cfg.completer != nil {
		a := &completerAdapter{inner: cfg.completer}
		ragSvc, err := raguc.New(a, nil, raguc.Config{TopK: cfg.ragTopK, Workers: cfg.ragWorkers}, logger)
		if err != nil {
			return nil, fmt.Errorf("discovery: %w", err)
		}
		c.ragSvc = ragSvc
		c.closers = append(c.closers, ragSvc.Close)
		healthOpts = append(healthOpts, healthuc.WithCompletion(a))
	}

	c.healthSvc = healthuc.New(backend.pinger, healthOpts...)
	return c, nil
}

// Close releases all resources.
func (c *Client) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Search runs one query across the requested categories.
// A failing category comes back as an empty page; only caller cancellation
// and invalid input are returned as errors.
func (c *Client) Search(ctx context.Context, req SearchRequest) (resp SearchResponse, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err, "query", req.Query, "enhance", req.Enhance) }()

	if req.Enhance && c.ragSvc == nil {
		return SearchResponse{}, ErrCompleterNotConfigured
	}

	q, err := toQuery(req)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search: %w", err)
	}

	res, err := c.searchSvc.Search(ctx, q)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search: %w", err)
	}
	if req.Enhance {
		res = c.ragSvc.EnhanceCategories(ctx, q.Text(), res)
	}
	return fromResults(q, res), nil
}

// Suggest returns a short type-ahead result set. Queries below the minimum
// length yield empty pages without touching the catalog.
func (c *Client) Suggest(ctx context.Context, text string, categories ...Category) (resp SearchResponse, err error) {
	start := time.Now()
	defer func() { c.obs.observe("suggest", start, err, "query", text) }()

	q, err := toQuery(SearchRequest{Query: text, Categories: categories})
	if err != nil {
		return SearchResponse{}, fmt.Errorf("suggest: %w", err)
	}

	res, err := c.searchSvc.Suggest(ctx, q)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("suggest: %w", err)
	}
	return fromResults(q, res), nil
}

// EnhanceOptions tunes a direct Enhance call.
type EnhanceOptions struct {
	// TopK is how many leading items form the shared context and get generated text. Default: 5.
	TopK int
	// All generates text for every item, not only the top K.
	All bool
}

// Enhance attaches generated summaries to items, typically taken from a previous
// SearchResponse. Order is preserved; items whose generation fails come back unchanged.
func (c *Client) Enhance(ctx context.Context, query string, items []Item, opts EnhanceOptions) (out []Item, err error) {
	start := time.Now()
	defer func() { c.obs.observe("enhance", start, err, "query", query, "items", len(items)) }()

	if c.ragSvc == nil {
		return nil, ErrCompleterNotConfigured
	}

	entities := make([]entity.Entity, len(items))
	for i, it := range items {
		if entities[i], err = itemToEntity(it); err != nil {
			return nil, fmt.Errorf("enhance: %w", err)
		}
	}

	results := c.ragSvc.Enhance(ctx, query, entities, raguc.Options{TopK: opts.TopK, EnhanceAll: opts.All})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}
	out = make([]Item, len(results))
	for i, r := range results {
		out[i] = itemFromResult(r)
	}
	return out, nil
}
