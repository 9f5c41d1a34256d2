// Package cache memoizes search envelopes and fetch results in the key-value store.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dpla/platform-search/internal/db"
	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/search/params"
	"github.com/dpla/platform-search/internal/domain/search/result"
)

// ignored keys never change the response body.
var ignored = map[string]struct{}{
	params.Callback: {},
	params.Control:  {},
	params.Action:   {},
	"api_key":       {},
	"_":             {},
}

// searcher is the decorated search surface.
type searcher interface {
	Search(ctx context.Context, res resource.Resource, p params.Params) (result.Envelope, error)
	Fetch(ctx context.Context, res resource.Resource, ids string) (result.Fetch, error)
}

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedSearcher caches successful search envelopes and fetch results for a
// fixed TTL. Failures always reach the inner searcher.
type CachedSearcher struct {
	inner      searcher
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner searcher,
	s store,
	keys resource.Keyspace,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedSearcher {
	return &CachedSearcher{
		inner:      inner,
		store:      s,
		prefix:     keys.Prefix() + "cache:",
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Search returns a cached envelope or calls the inner searcher.
func (c *CachedSearcher) Search(ctx context.Context, res resource.Resource, p params.Params) (result.Envelope, error) {
	key := c.cacheKey(res, p)

	if env, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return env, nil
	}

	c.incCache("miss")

	env, err := c.inner.Search(ctx, res, p)
	if err != nil {
		return result.Envelope{}, err
	}

	c.put(ctx, key, env)
	return env, nil
}

// Fetch returns a cached fetch result or calls the inner searcher.
// The same ids in any order share one entry; documents come back in request order.
func (c *CachedSearcher) Fetch(ctx context.Context, res resource.Resource, ids string) (result.Fetch, error) {
	list := result.ParseIDs(ids)
	key := c.fetchKey(res, list)

	if found, ok := c.getFetchFromCache(ctx, key); ok {
		c.incCache("hit")
		return result.NewFetch(list, found), nil
	}

	c.incCache("miss")

	out, err := c.inner.Fetch(ctx, res, ids)
	if err != nil {
		return result.Fetch{}, fmt.Errorf("fetch: %w", err)
	}

	c.put(ctx, key, out.Documents())
	return out, nil
}

func (c *CachedSearcher) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey hashes the resource and the sorted parameters that affect the result.
func (c *CachedSearcher) cacheKey(res resource.Resource, p params.Params) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		if _, skip := ignored[k]; !skip {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(res.String())
	for _, k := range keys {
		b.WriteByte('\n')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(p[k])
	}

	h := sha256.Sum256([]byte(b.String()))
	return c.prefix + hex.EncodeToString(h[:])
}

// fetchKey hashes the resource and the sorted id list.
func (c *CachedSearcher) fetchKey(res resource.Resource, ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	h := sha256.Sum256([]byte(res.String() + "\n" + strings.Join(sorted, "\n")))
	return c.prefix + "fetch:" + hex.EncodeToString(h[:])
}

func (c *CachedSearcher) getFetchFromCache(ctx context.Context, key string) (map[string]map[string]any, bool) {
	data, ok := c.load(ctx, key)
	if !ok {
		return nil, false
	}
	var found map[string]map[string]any
	if err := json.Unmarshal(data, &found); err != nil || len(found) == 0 {
		c.logger.Warn("Failed to parse cached fetch", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return found, true
}

func (c *CachedSearcher) load(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached result", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return data, len(data) > 0
}

func (c *CachedSearcher) getFromCache(ctx context.Context, key string) (result.Envelope, bool) {
	data, ok := c.load(ctx, key)
	if !ok {
		return result.Envelope{}, false
	}

	var env result.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.Warn("Failed to parse cached result", zap.String("key", key), zap.Error(err))
		return result.Envelope{}, false
	}
	return env, true
}

func (c *CachedSearcher) put(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode result", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache result", zap.String("key", key), zap.Error(err))
	}
}
