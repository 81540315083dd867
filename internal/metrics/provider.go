package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "discovery"

// Provider kinds used as the "kind" label.
const (
	KindEmbedding  = "embedding"
	KindCompletion = "completion"
)

// Model provider Prometheus metrics, shared by embedding and completion clients.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of model provider requests",
		},
		[]string{"kind", "provider", "model", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Model provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind", "provider", "model"},
	)

	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_tokens_total",
			Help:      "Total model provider tokens consumed",
		},
		[]string{"kind", "provider", "model", "type"},
	)

	ProviderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Total model provider errors",
		},
		[]string{"kind", "provider", "model", "error_type"},
	)

	BudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "budget_tokens_remaining",
			Help:      "Remaining token budget",
		},
		[]string{"kind", "provider", "period"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	EnhanceCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enhance_cache_total",
			Help:      "Generated summary cache hits and misses",
		},
		[]string{"result"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

var providerMetricsRegistered bool

// RegisterProviderMetrics registers model provider metrics. Must be called once from main.
func RegisterProviderMetrics() {
	if providerMetricsRegistered {
		return
	}
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(ProviderTokensTotal)
	prometheus.MustRegister(ProviderErrorsTotal)
	prometheus.MustRegister(BudgetTokensRemaining)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(EnhanceCacheTotal)
	prometheus.MustRegister(BreakerState)
	providerMetricsRegistered = true
}
