// internal/contentcache/cache.go
//
// Time-boxed, tag-invalidated cache for rendered content payloads.
//
// Context
// -------
// Every content fetch (site bundle, page, service, project) runs through
// GetOrCompute.  Three layers keep upstream traffic down:
//
//  1. Request scope.  A memo stored in the request context guarantees that
//     one render pass computes each key at most once, even when several
//     templates or handlers ask for the same data.
//  2. Shared store.  A bounded LRU keeps successful results until their TTL
//     elapses or one of their tags is invalidated.
//  3. Singleflight.  Concurrent misses for the same key share a single
//     upstream call.
//
// Invalidation bumps a generation counter.  Keys are folded with the
// generation before entering singleflight, and results computed under an
// older generation are returned to their callers but never stored.  After
// InvalidateTags returns, the next request therefore recomputes.
//
// Notes
// -----
//   - Errors are never cached.
//   - Returned slices are shared; callers must treat them as read-only.
//   - Remote instances learn about invalidations through a Bus, see bus.go.
package contentcache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/sitewerk/internal/cache"
	"github.com/yanizio/sitewerk/internal/metrics"
)

// Compute produces the value for a cache miss.
type Compute func(ctx context.Context) ([]byte, error)

type entry struct {
	val  []byte
	exp  time.Time
	tags []string
}

// Cache is safe for concurrent use.  Zero value is unusable; call New.
type Cache struct {
	mu   sync.Mutex
	lru  *cache.LRU[string, entry]
	tags map[string]map[string]struct{} // tag → keys
	gen  uint64

	sfg   singleflight.Group
	now   func() time.Time
	bus   Bus
	hooks []func(tags []string)
}

// Option customises a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

// WithBus fans invalidations out to other instances.
func WithBus(b Bus) Option { return func(c *Cache) { c.bus = b } }

// New returns a cache bounded to maxEntries items.
func New(maxEntries int, opts ...Option) *Cache {
	c := &Cache{
		tags: make(map[string]map[string]struct{}),
		now:  time.Now,
	}
	c.lru = cache.New[string, entry](maxEntries, c.unindex)
	for _, o := range opts {
		o(c)
	}
	return c
}

// OnInvalidate registers fn to run after every invalidation, local or
// remote.  Used to keep sibling caches (tenant host cache) in step.
func (c *Cache) OnInvalidate(fn func(tags []string)) {
	c.mu.Lock()
	c.hooks = append(c.hooks, fn)
	c.mu.Unlock()
}

// GetOrCompute returns the cached value for key or runs fn.  ttl <= 0
// disables cross-request storage but keeps request-scope memoisation.
func (c *Cache) GetOrCompute(ctx context.Context, key string, fn Compute, ttl time.Duration, tags []string) ([]byte, error) {
	if s := scopeFrom(ctx); s != nil {
		return s.do(key, func() ([]byte, error) {
			return c.shared(ctx, key, fn, ttl, tags)
		})
	}
	return c.shared(ctx, key, fn, ttl, tags)
}

func (c *Cache) shared(ctx context.Context, key string, fn Compute, ttl time.Duration, tags []string) ([]byte, error) {
	c.mu.Lock()
	if e, ok := c.lru.Get(key); ok {
		if c.now().Before(e.exp) {
			c.mu.Unlock()
			metrics.ContentCacheTotal.WithLabelValues("hit").Inc()
			return e.val, nil
		}
		c.lru.Remove(key)
	}
	gen := c.gen
	c.mu.Unlock()

	metrics.ContentCacheTotal.WithLabelValues("miss").Inc()

	v, err, _ := c.sfg.Do(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		val, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if ttl > 0 {
			c.store(key, val, ttl, tags, gen)
		}
		return val, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) store(key string, val []byte, ttl time.Duration, tags []string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return // invalidated while computing
	}
	c.lru.Remove(key)
	c.lru.Add(key, entry{val: val, exp: c.now().Add(ttl), tags: tags})
	for _, t := range tags {
		set, ok := c.tags[t]
		if !ok {
			set = make(map[string]struct{})
			c.tags[t] = set
		}
		set[key] = struct{}{}
	}
}

// unindex runs under c.mu whenever the LRU drops an entry.
func (c *Cache) unindex(key string, e entry) {
	for _, t := range e.tags {
		if set, ok := c.tags[t]; ok {
			delete(set, key)
			if len(set) == 0 {
				delete(c.tags, t)
			}
		}
	}
}

// InvalidateTags drops every entry carrying any of tags, then publishes the
// tags on the bus.  It returns the number of local entries removed.  A bus
// failure is logged; the local drop has already happened.
func (c *Cache) InvalidateTags(ctx context.Context, tags ...string) int {
	n := c.drop(tags)
	if c.bus != nil && len(tags) > 0 {
		if err := c.bus.Publish(ctx, tags); err != nil {
			zap.L().Warn("cache invalidation publish failed",
				zap.Strings("tags", tags), zap.Error(err))
		}
	}
	return n
}

// drop removes local entries only; remote messages land here.
func (c *Cache) drop(tags []string) int {
	c.mu.Lock()
	c.gen++
	var n int
	for _, t := range tags {
		for key := range c.tags[t] {
			if c.lru.Remove(key) {
				n++
			}
		}
	}
	hooks := append([]func([]string){}, c.hooks...)
	c.mu.Unlock()

	metrics.ContentCacheInvalidatedTotal.Add(float64(n))
	zap.L().Info("content cache invalidated",
		zap.Strings("tags", tags), zap.Int("entries", n))

	for _, h := range hooks {
		h(tags)
	}
	return n
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
