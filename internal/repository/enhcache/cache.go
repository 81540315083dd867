// Package enhcache caches generated summaries per (query, category, entity) with a TTL.
package enhcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/discovery/internal/db"
	"github.com/kailas-cloud/discovery/internal/domain"
	"github.com/kailas-cloud/discovery/internal/domain/enhance"
)

var cacheKeyPrefix = domain.KeyPrefix + "enh_cache:"

// store is the consumer interface for the enhancement cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache implements usecase/rag.Cache. All failures read as a miss.
type Cache struct {
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates an enhancement cache. cacheTotal has label "result" ("hit"/"miss") and may be nil.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{store: s, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Get returns cached fields for key.
func (c *Cache) Get(ctx context.Context, key enhance.Key) (enhance.Fields, bool) {
	k := cacheKey(key)
	data, err := c.store.Get(ctx, k)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached enhancement", zap.String("key", k), zap.Error(err))
		}
		c.inc("miss")
		return enhance.Fields{}, false
	}

	var f enhance.Fields
	if err := json.Unmarshal(data, &f); err != nil {
		c.logger.Warn("Failed to parse cached enhancement", zap.String("key", k), zap.Error(err))
		c.inc("miss")
		return enhance.Fields{}, false
	}
	c.inc("hit")
	return f, true
}

// Put stores fields for key. Empty results are not cached so a later request can retry generation.
func (c *Cache) Put(ctx context.Context, key enhance.Key, f enhance.Fields) {
	if f.Summary == "" && f.RelevanceExplanation == "" {
		return
	}
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	k := cacheKey(key)
	if err := c.store.SetWithTTL(ctx, k, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache enhancement", zap.String("key", k), zap.Error(err))
	}
}

func (c *Cache) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(key enhance.Key) string {
	h := sha256.New()
	h.Write([]byte(key.Query))
	h.Write([]byte{0})
	h.Write([]byte(key.Category.String()))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(key.EntityID, 10)))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
