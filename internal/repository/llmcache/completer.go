// Package llmcache caches completions in a process-local LRU backed by the
// shared KV store.
package llmcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/katalog/internal/db"
	"github.com/kailas-cloud/katalog/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "llm_cache:"

// store is the consumer interface for the completion cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedCompleter caches completions for identical requests: memory first, then KV.
type CachedCompleter struct {
	inner      domain.Completer
	hot        *expirable.LRU[string, cachedResult]
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator holding at most size answers in memory.
// cacheTotal is a counter vec with labels "layer" and "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Completer,
	s store,
	size int,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedCompleter {
	return &CachedCompleter{
		inner:      inner,
		hot:        expirable.NewLRU[string, cachedResult](size, nil, ttl),
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

type cachedResult struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// Complete returns a cached answer or calls the inner completer.
// Cache hit: zero tokens (nothing was consumed). Cache miss: full result from inner.
func (c *CachedCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	key := cacheKey(req)

	if cr, ok := c.hot.Get(key); ok {
		c.incCache("memory", "hit")
		return domain.CompletionResult{Text: cr.Text, Model: cr.Model}, nil
	}
	c.incCache("memory", "miss")

	if res, ok := c.getFromCache(ctx, key); ok {
		c.incCache("kv", "hit")
		return res, nil
	}
	c.incCache("kv", "miss")

	result, err := c.inner.Complete(ctx, req)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("complete: %w", err)
	}

	c.putToCache(ctx, key, result)
	return result, nil
}

func (c *CachedCompleter) incCache(layer, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(layer, result).Inc()
	}
}

// Len reports answers in the memory layer.
func (c *CachedCompleter) Len() int { return c.hot.Len() }

// cacheKey hashes every field that changes the answer.
func cacheKey(req domain.CompletionRequest) string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(strconv.Itoa(len(s))))
		h.Write([]byte{':'})
		h.Write([]byte(s))
	}
	write(req.Model)
	write(req.System)
	write(strconv.Itoa(req.MaxTokens))
	write(strconv.FormatFloat(req.Temperature, 'f', -1, 64))
	for _, m := range req.Messages {
		write(string(m.Role))
		write(m.Content)
	}
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedCompleter) getFromCache(ctx context.Context, key string) (domain.CompletionResult, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached completion", zap.String("key", key), zap.Error(err))
		}
		return domain.CompletionResult{}, false
	}
	if len(data) == 0 {
		return domain.CompletionResult{}, false
	}

	var cr cachedResult
	if err := json.Unmarshal(data, &cr); err != nil {
		c.logger.Warn("Failed to parse cached completion", zap.String("key", key), zap.Error(err))
		return domain.CompletionResult{}, false
	}
	c.hot.Add(key, cr)
	return domain.CompletionResult{Text: cr.Text, Model: cr.Model}, true
}

func (c *CachedCompleter) putToCache(ctx context.Context, key string, res domain.CompletionResult) {
	if res.Text == "" {
		return
	}
	cr := cachedResult{Text: res.Text, Model: res.Model}
	c.hot.Add(key, cr)
	data, err := json.Marshal(cr)
	if err != nil {
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache completion", zap.String("key", key), zap.Error(err))
	}
}
