package search

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/discovery/internal/domain/category"
	"github.com/kailas-cloud/discovery/internal/domain/search/candidate"
	"github.com/kailas-cloud/discovery/internal/domain/search/query"
	"github.com/kailas-cloud/discovery/internal/domain/search/scope"
	"github.com/kailas-cloud/discovery/internal/metrics"
)

// request is the per-search state shared by all category adapters.
type request struct {
	q      query.Query
	cfg    Config
	logger *zap.Logger

	// embedding is computed at most once per request, under the request context
	// so one category's timeout cannot poison it for the others. It gets its own
	// CategoryTimeout deadline; a slow provider means no semantic signal.
	ctx       context.Context
	embedder  Embedder
	embedOnce sync.Once
	vector    []float32
}

func newRequest(ctx context.Context, q query.Query, cfg Config, embedder Embedder, logger *zap.Logger) *request {
	return &request{q: q, cfg: cfg, logger: logger, ctx: ctx, embedder: embedder}
}

// queryVector returns the query embedding, or false when embedding is off or failed.
func (r *request) queryVector() ([]float32, bool) {
	r.embedOnce.Do(func() {
		if r.embedder == nil {
			return
		}
		ctx, cancel := context.WithTimeout(r.ctx, r.cfg.CategoryTimeout)
		defer cancel()
		res, err := r.embedder.Embed(ctx, r.q.Text())
		if err != nil {
			r.logger.Warn("query embedding failed, continuing lexical-only", zap.Error(err))
			return
		}
		r.vector = res.Embedding
	})
	return r.vector, len(r.vector) > 0
}

type lexicalFetch func(ctx context.Context, s scope.Text) ([]candidate.Ranked, error)

type semanticFetch func(ctx context.Context, v scope.Vector) ([]candidate.Near, error)

// lexical runs a lexical fetch, failing open to no candidates.
func (r *request) lexical(ctx context.Context, c category.Category, fetch lexicalFetch, s scope.Text) []candidate.Ranked {
	hits, err := fetch(ctx, s)
	if err != nil {
		metrics.SignalFailuresTotal.WithLabelValues(c.String(), "lexical").Inc()
		r.logger.Warn("lexical signal failed",
			zap.String("category", c.String()),
			zap.Error(err),
		)
		return nil
	}
	return hits
}

// semantic returns up to limit*2 neighbours strictly closer than MaxDistance, nearest first.
// Any failure, including a missing embedding, yields no candidates.
func (r *request) semantic(ctx context.Context, c category.Category, fetch semanticFetch, typ string, limit int) []candidate.Near {
	vec, ok := r.queryVector()
	if !ok {
		return nil
	}
	limit *= 2
	hits, err := fetch(ctx, scope.Vector{
		Embedding:   vec,
		Type:        typ,
		MaxDistance: r.cfg.MaxDistance,
		Limit:       limit,
	})
	if err != nil {
		metrics.SignalFailuresTotal.WithLabelValues(c.String(), "semantic").Inc()
		r.logger.Warn("semantic signal failed",
			zap.String("category", c.String()),
			zap.Error(err),
		)
		return nil
	}

	kept := make([]candidate.Near, 0, len(hits))
	for _, h := range hits {
		if h.Distance < r.cfg.MaxDistance {
			kept = append(kept, h)
		}
	}
	slices.SortStableFunc(kept, func(a, b candidate.Near) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}
