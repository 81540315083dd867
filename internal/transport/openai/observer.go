package openai

import (
	"time"

	"github.com/kailas-cloud/discovery/internal/metrics"
)

// observer records transport-level provider metrics for one kind/provider/model.
type observer struct {
	kind     string
	provider string
	model    string
}

func (o observer) failure(errorType string) {
	metrics.ProviderRequestsTotal.WithLabelValues(o.kind, o.provider, o.model, "error").Inc()
	metrics.ProviderErrorsTotal.WithLabelValues(o.kind, o.provider, o.model, errorType).Inc()
}

func (o observer) success(d time.Duration, prompt, completion, total int) {
	metrics.ProviderRequestsTotal.WithLabelValues(o.kind, o.provider, o.model, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(o.kind, o.provider, o.model).Observe(d.Seconds())
	if total <= 0 {
		return
	}
	metrics.ProviderTokensTotal.WithLabelValues(o.kind, o.provider, o.model, "prompt").Add(float64(prompt))
	if completion > 0 {
		metrics.ProviderTokensTotal.WithLabelValues(o.kind, o.provider, o.model, "completion").Add(float64(completion))
	}
	metrics.ProviderTokensTotal.WithLabelValues(o.kind, o.provider, o.model, "total").Add(float64(total))
}
