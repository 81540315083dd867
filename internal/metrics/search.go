package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search engine Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total search requests by outcome",
		},
		[]string{"outcome"}, // "ok" / "blank" / "canceled" / "panic"
	)

	CategoryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_category_duration_seconds",
			Help:      "Per-category search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"category", "mode"}, // mode: "lexical" / "hybrid"
	)

	CategoryFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_category_failures_total",
			Help:      "Categories degraded to an empty page",
		},
		[]string{"category", "reason"}, // "error" / "timeout" / "panic"
	)

	SignalFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_signal_failures_total",
			Help:      "Retrieval signals that failed open",
		},
		[]string{"category", "signal"}, // "lexical" / "semantic"
	)

	EnhanceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enhance_duration_seconds",
			Help:      "Generation duration per category page",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"category"},
	)

	EnhanceResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enhance_results_total",
			Help:      "Per-entity enhancement outcomes",
		},
		[]string{"category", "outcome"}, // "ok" / "cached" / "error" / "panic" / "rejected"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search engine metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(CategoryDuration)
	prometheus.MustRegister(CategoryFailuresTotal)
	prometheus.MustRegister(SignalFailuresTotal)
	prometheus.MustRegister(EnhanceDuration)
	prometheus.MustRegister(EnhanceResultsTotal)
	searchMetricsRegistered = true
}
