package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yanizio/sitewerk/internal/cms"
	"github.com/yanizio/sitewerk/internal/metrics"
)

// ErrNotFound is returned when no source knows the host or id.
var ErrNotFound = errors.New("tenant not found")

// Resolver turns a host (or tenant id) into a *Tenant.  Steps:
//
//  1. CMS domain-membership query.  Errors are logged and count as a miss.
//  2. Static directory.
//  3. ErrNotFound.
//
// Either source may be nil.
type Resolver struct {
	CMS            cms.Querier
	Directory      *Directory
	LocalhostAlias string
}

// Resolve looks up the tenant serving host.  host is normalised here, so
// raw Host header values are accepted.
func (r *Resolver) Resolve(ctx context.Context, host string) (*Tenant, error) {
	h := lookupHost(NormalizeHost(host), r.LocalhostAlias)
	if h == "" {
		return nil, ErrNotFound
	}
	return r.resolve(ctx, cms.QueryTenantByDomain, cms.Params{"domain": h},
		func(d *Directory) (*Tenant, bool) { return d.ByHost(h) })
}

// ResolveID looks up a tenant by id, for path-based tenancy and the
// dashboard.
func (r *Resolver) ResolveID(ctx context.Context, id string) (*Tenant, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	return r.resolve(ctx, cms.QueryTenantByID, cms.Params{"id": id},
		func(d *Directory) (*Tenant, bool) { return d.ByID(id) })
}

func (r *Resolver) resolve(ctx context.Context, q cms.Query, p cms.Params,
	dir func(*Directory) (*Tenant, bool)) (*Tenant, error) {

	if r.CMS != nil {
		t, err := r.fromCMS(ctx, q, p)
		switch {
		case err != nil:
			metrics.TenantResolveTotal.WithLabelValues("cms", "error").Inc()
			zap.L().Warn("tenant cms lookup failed",
				zap.String("query", string(q)), zap.Any("params", p), zap.Error(err))
		case t != nil:
			metrics.TenantResolveTotal.WithLabelValues("cms", "hit").Inc()
			return t, nil
		default:
			metrics.TenantResolveTotal.WithLabelValues("cms", "miss").Inc()
		}
	}

	if r.Directory != nil {
		if t, ok := dir(r.Directory); ok {
			metrics.TenantResolveTotal.WithLabelValues("directory", "hit").Inc()
			return t, nil
		}
	}

	metrics.TenantResolveTotal.WithLabelValues("none", "miss").Inc()
	return nil, ErrNotFound
}

func (r *Resolver) fromCMS(ctx context.Context, q cms.Query, p cms.Params) (*Tenant, error) {
	raw, err := r.CMS.FetchByQuery(ctx, q, p)
	if err != nil || len(raw) == 0 {
		return nil, err
	}
	var t Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode tenant: %w", err)
	}
	t.normalize()
	if t.ID == "" {
		return nil, nil
	}
	return &t, nil
}
