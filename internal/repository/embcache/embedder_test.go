package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/discovery/internal/db"
	"github.com/kailas-cloud/discovery/internal/domain"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner, 0)
	ctx := context.Background()

	// GET → ErrKeyNotFound (cache miss)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, db.ErrKeyNotFound
	}

	// SET → OK (cache put)
	var setKey string
	ms.setFn = func(_ context.Context, key string, _ []byte) error {
		setKey = key
		return nil
	}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if !strings.HasPrefix(setKey, "discovery:emb_cache:") {
		t.Fatalf("expected SET under the cache prefix, got %q", setKey)
	}
}

func TestEmbed_CacheMissWithTTL(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	ce, ms := newTestCachedEmbedder(t, inner, time.Hour)

	var gotTTL time.Duration
	ms.setWithTTLFn = func(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
		gotTTL = ttl
		return nil
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		t.Fatal("plain SET must not be used when a TTL is configured")
		return nil
	}

	if _, err := ce.Embed(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTTL != time.Hour {
		t.Fatalf("expected ttl 1h, got %v", gotTTL)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.1, 0.2, 0.3},
	}}
	ce, ms := newTestCachedEmbedder(t, inner, 0)
	ctx := context.Background()

	cached := vectorToCacheBytes([]float32{0.4, 0.5, 0.6})

	// GET → cached bytes
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Fatalf("expected no inner calls on hit, got %d", inner.calls)
	}
}

func TestEmbed_CorruptEntryFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.7}}}
	ce, ms := newTestCachedEmbedder(t, inner, 0)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{1, 2, 3}, nil
	}

	result, err := ce.Embed(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 || result.Embedding[0] != 0.7 {
		t.Fatalf("expected inner result after corrupt cache entry, got %v", result.Embedding)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce, ms := newTestCachedEmbedder(t, inner, 0)
	ctx := context.Background()

	// GET → ErrKeyNotFound (cache miss)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, db.ErrKeyNotFound
	}

	_, err := ce.Embed(ctx, "test text")
	if err == nil {
		t.Fatal("expected error from inner embedder")
	}
}

func TestCacheKey_ScopedByModel(t *testing.T) {
	inner := &mockEmbedder{}
	a := New(inner, &mockKVStore{}, "model-a", 0, nil, zap.NewNop())
	b := New(inner, &mockKVStore{}, "model-b", 0, nil, zap.NewNop())

	if a.cacheKey("q") == b.cacheKey("q") {
		t.Fatal("expected different keys for different models")
	}
	if a.cacheKey("q") != a.cacheKey("q") {
		t.Fatal("expected stable keys")
	}
}

func TestEmbed_CacheCounter(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	ms := &mockKVStore{}
	ce := New(inner, ms, "m", 0, counter, zap.NewNop())

	_, _ = ce.Embed(context.Background(), "q")
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return vectorToCacheBytes([]float32{0.1}), nil
	}
	_, _ = ce.Embed(context.Background(), "q")

	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Fatalf("expected 1 miss, got %v", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 1 {
		t.Fatalf("expected 1 hit, got %v", got)
	}
}
