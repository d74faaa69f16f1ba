// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// mounting promhttp.Handler() in main.go is enough to expose them on
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TenantResolveTotal counts host lookups by the source that answered
	// (cms, directory, none) and outcome (hit, miss, error).
	TenantResolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_resolve_total",
			Help: "Tenant resolution attempts by source and outcome.",
		}, []string{"source", "outcome"})

	ActiveTenants = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_tenants",
			Help: "Number of resolved tenants currently held in memory.",
		})

	TenantEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_evict_total",
			Help: "Cumulative number of tenants evicted from the host cache.",
		})

	// ContentSourceTotal counts fallback chain attempts by source (cms,
	// static) and outcome (hit, miss).
	ContentSourceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_source_total",
			Help: "Content source attempts by source and outcome.",
		}, []string{"source", "outcome"})

	ContentCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_cache_total",
			Help: "Content cache lookups by result (hit, miss, memo).",
		}, []string{"result"})

	ContentCacheInvalidatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "content_cache_invalidated_total",
			Help: "Cumulative number of cache entries dropped by tag invalidation.",
		})

	WebhookTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revalidate_webhook_total",
			Help: "Revalidation webhook calls by outcome.",
		}, []string{"outcome"})

	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		})
)

func init() {
	prometheus.MustRegister(
		TenantResolveTotal,
		ActiveTenants,
		TenantEvictTotal,
		ContentSourceTotal,
		ContentCacheTotal,
		ContentCacheInvalidatedTotal,
		WebhookTotal,
		RateLimitedTotal,
	)
}
