package tenant

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yanizio/sitewerk/internal/metrics"
)

// Static defaults.  Override through the tenancy config section.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 500
	EvictInterval = 5 * time.Minute
)

// Lookup is the read side of the cache, consumed by middleware and the
// content service.
type Lookup interface {
	Get(ctx context.Context, host string) (*Tenant, error)
}

// Cache lazily resolves tenants, stores them in a sync.Map keyed by
// normalised host (or "id:"+tenantID), and evicts them on idle TTL or LRU
// pressure.  Misses are never stored, so a newly added domain resolves on
// the next request.
//
// gen moves on every Forget.  A resolve that started before the move is
// returned to its callers but never stored.
type Cache struct {
	resolver    *Resolver
	sfg         singleflight.Group
	m           sync.Map
	gen         atomic.Uint64
	evictTicker *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
	idleTTL     time.Duration
	maxEntries  int
}

// NewCache constructs a Cache and starts the background evictor.
func NewCache(r *Resolver, idleTTL time.Duration, maxEntries int) *Cache {
	if idleTTL <= 0 {
		idleTTL = IdleTTL
	}
	c := &Cache{
		resolver:   r,
		idleTTL:    idleTTL,
		maxEntries: maxEntries,
		done:       make(chan struct{}),
	}
	c.evictTicker = time.NewTicker(EvictInterval)
	go c.evictLoop()
	return c
}

// Get returns the Tenant for host, resolving it on demand.
func (c *Cache) Get(ctx context.Context, host string) (*Tenant, error) {
	key := lookupHost(NormalizeHost(host), c.resolver.LocalhostAlias)
	return c.load(key, func() (*Tenant, error) {
		// Shared by every caller waiting on key; one caller going away
		// must not fail the others.
		return c.resolver.Resolve(context.WithoutCancel(ctx), key)
	})
}

// GetByID returns the Tenant with id.
func (c *Cache) GetByID(ctx context.Context, id string) (*Tenant, error) {
	return c.load("id:"+id, func() (*Tenant, error) {
		return c.resolver.ResolveID(context.WithoutCancel(ctx), id)
	})
}

func (c *Cache) load(key string, resolve func() (*Tenant, error)) (*Tenant, error) {
	if v, ok := c.m.Load(key); ok {
		ent := v.(*entry)
		atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
		return ent.tenant, nil
	}

	g := c.gen.Load()
	v, err, _ := c.sfg.Do(key+"#"+strconv.FormatUint(g, 10), func() (any, error) {
		// Double-check after singleflight barrier.
		if v, ok := c.m.Load(key); ok {
			return v.(*entry).tenant, nil
		}
		ten, err := resolve()
		if err != nil {
			return nil, err
		}
		if c.gen.Load() != g {
			return ten, nil
		}
		ent := &entry{tenant: ten, lastSeen: time.Now().UnixNano()}
		if _, loaded := c.m.LoadOrStore(key, ent); loaded {
			return ten, nil
		}
		metrics.ActiveTenants.Inc()
		// A Forget that landed between the check and the store may have
		// ranged before the entry existed.
		if c.gen.Load() != g && c.m.CompareAndDelete(key, ent) {
			metrics.ActiveTenants.Dec()
		}
		return ten, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Tenant), nil
}

// Forget drops every cached key that maps to tenantID and discards any
// resolve still in flight.  Wired to `tenant:<id>` invalidations so domain
// changes apply without a restart.
func (c *Cache) Forget(tenantID string) int {
	c.gen.Add(1)

	var keys []any
	c.m.Range(func(key, value any) bool {
		if value.(*entry).tenant.ID == tenantID {
			keys = append(keys, key)
		}
		return true
	})
	var n int
	for _, k := range keys {
		if _, ok := c.m.LoadAndDelete(k); ok {
			metrics.ActiveTenants.Dec()
			n++
		}
	}
	return n
}

// Len reports the number of cached keys.
func (c *Cache) Len() int {
	var n int
	c.m.Range(func(any, any) bool { n++; return true })
	return n
}

// Close stops the evictor.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		c.evictTicker.Stop()
		close(c.done)
	})
}
