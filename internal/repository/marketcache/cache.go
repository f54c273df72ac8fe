// Package marketcache keeps market analyses in a process-local LRU backed by
// the shared KV store.
package marketcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/katalog/internal/db"
	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/domain/market"
)

var cacheKeyPrefix = domain.KeyPrefix + "market:"

// store is the consumer interface for the shared layer (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache is a two-level cache: memory first, then KV.
type Cache struct {
	hot        *expirable.LRU[string, *market.Data]
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a market cache. s may be nil to run memory-only.
func New(s store, size int, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{
		hot:        expirable.NewLRU[string, *market.Data](size, nil, ttl),
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Get returns a cached analysis for the query.
func (c *Cache) Get(ctx context.Context, query string) (*market.Data, bool) {
	k := Key(query)
	if d, ok := c.hot.Get(k); ok {
		c.inc("memory", "hit")
		return d, true
	}
	c.inc("memory", "miss")

	if c.store == nil {
		return nil, false
	}
	data, err := c.store.Get(ctx, k)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read market cache", zap.String("key", k), zap.Error(err))
		}
		c.inc("kv", "miss")
		return nil, false
	}
	var d market.Data
	if err := json.Unmarshal(data, &d); err != nil {
		c.logger.Warn("Failed to decode market cache", zap.String("key", k), zap.Error(err))
		c.inc("kv", "miss")
		return nil, false
	}
	c.inc("kv", "hit")
	c.hot.Add(k, &d)
	return &d, true
}

// Put stores an analysis in both layers. KV failures are logged, not returned.
func (c *Cache) Put(ctx context.Context, query string, d *market.Data) {
	if d == nil {
		return
	}
	k := Key(query)
	c.hot.Add(k, d)

	if c.store == nil {
		return
	}
	data, err := json.Marshal(d)
	if err != nil {
		return
	}
	if err := c.store.SetWithTTL(ctx, k, data, c.ttl); err != nil {
		c.logger.Warn("Failed to write market cache", zap.String("key", k), zap.Error(err))
	}
}

// Len reports entries in the memory layer.
func (c *Cache) Len() int { return c.hot.Len() }

func (c *Cache) inc(layer, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(layer, result).Inc()
	}
}

// Key normalizes the query (case, whitespace) and hashes it.
func Key(query string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(query), " "))
	h := sha256.Sum256([]byte(norm))
	return cacheKeyPrefix + hex.EncodeToString(h[:16])
}
