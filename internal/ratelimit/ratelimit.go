// Package ratelimit throttles abuse-prone endpoints (contact form, GDPR
// token requests) per tenant and client IP.
//
// The counter store is chosen by configuration: process memory for a single
// instance, Redis when several instances share the load.  Responses carry the
// X-RateLimit-* headers; rejections are answered with 429.
package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"

	"github.com/yanizio/sitewerk/internal/httpapi"
	"github.com/yanizio/sitewerk/internal/metrics"
	"github.com/yanizio/sitewerk/internal/requestinfo"
	"github.com/yanizio/sitewerk/internal/tenant"
)

// NewStore returns a memory store, or a Redis store when client is non-nil.
func NewStore(client *redis.Client, prefix string) (limiter.Store, error) {
	opts := limiter.StoreOptions{Prefix: prefix, CleanUpInterval: time.Minute}
	if client == nil {
		return memory.NewStoreWithOptions(opts), nil
	}
	st, err := sredis.NewStoreWithOptions(client, opts)
	if err != nil {
		return nil, fmt.Errorf("ratelimit redis store: %w", err)
	}
	return st, nil
}

// Limiter builds throttling middleware over one store.
type Limiter struct {
	store      limiter.Store
	trustProxy bool
}

func New(store limiter.Store, trustProxy bool) *Limiter {
	return &Limiter{store: store, trustProxy: trustProxy}
}

// Middleware limits requests to rate (ulule format, e.g. "5-M").  scope
// separates budgets of different endpoints sharing the store.  A failing
// store lets the request through; contact forms matter more than
// throttling.
func (l *Limiter) Middleware(scope, rate string) (func(http.Handler) http.Handler, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("ratelimit %s: %w", scope, err)
	}
	lim := limiter.New(l.store, r)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			lc, err := lim.Get(req.Context(), l.key(scope, req))
			if err != nil {
				zap.L().Warn("rate limit store failed", zap.String("scope", scope), zap.Error(err))
				next.ServeHTTP(w, req)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(lc.Reset, 10))

			if lc.Reached {
				metrics.RateLimitedTotal.Inc()
				zap.L().Info("rate limited", zap.String("scope", scope), zap.String("host", req.Host))
				_ = httpapi.WriteStatus(w, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, req)
		})
	}, nil
}

// key is scope|tenant|ip.  Requests before tenant resolution use "-".
func (l *Limiter) key(scope string, r *http.Request) string {
	tid := "-"
	if t := tenant.FromContext(r.Context()); t != nil {
		tid = t.ID
	}
	var ip string
	if info := requestinfo.FromContext(r.Context()); info != nil && info.Geo.IP != nil {
		ip = info.Geo.IP.String()
	} else if addr := requestinfo.ClientIP(r, l.trustProxy); addr != nil {
		ip = addr.String()
	}
	return scope + "|" + tid + "|" + ip
}
