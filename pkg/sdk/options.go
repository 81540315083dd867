package discovery

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	dsn         string
	fixturePath string
	fixtureData []byte

	embedder  Embedder
	completer Completer

	categoryTimeout time.Duration
	ragTopK         int
	ragWorkers      int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithPostgres reads the catalog from a Postgres database.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dsn = dsn
	})
}

// WithFixture serves the catalog from a YAML snapshot on disk.
func WithFixture(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.fixturePath = path
	})
}

// WithFixtureData serves the catalog from an in-memory YAML snapshot.
func WithFixtureData(data []byte) Option {
	return optionFunc(func(c *clientConfig) {
		c.fixtureData = data
	})
}

// WithEmbedder sets the query embedding provider.
// Without one, search runs on the lexical signal only.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithCompleter sets the generative model used for result enhancement.
// Required for SearchRequest.Enhance.
func WithCompleter(cp Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = cp
	})
}

// WithCategoryTimeout bounds each category search and the shared query embedding. Default: 8s.
func WithCategoryTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.categoryTimeout = d
	})
}

// WithEnhancement tunes result enhancement: topK results form the shared context,
// workers bounds concurrent model calls. Defaults: 5 and 4.
func WithEnhancement(topK, workers int) Option {
	return optionFunc(func(c *clientConfig) {
		c.ragTopK = topK
		c.ragWorkers = workers
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
