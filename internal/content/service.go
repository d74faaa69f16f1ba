package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yanizio/sitewerk/internal/cms"
	"github.com/yanizio/sitewerk/internal/contentcache"
	"github.com/yanizio/sitewerk/internal/tenant"
)

var (
	// ErrHostNotFound means no tenant serves the host.
	ErrHostNotFound = errors.New("content: host not found")
	// ErrNotFound means every source came up empty for the request.
	ErrNotFound = errors.New("content: not found")
)

// Service resolves tenants and fetches their content through the cache
// and the fallback chain.  CMS may be nil for static-only deployments.
type Service struct {
	Tenants     tenant.Lookup
	CMS         cms.Querier
	Static      StaticReader
	Cache       *contentcache.Cache
	TTL         time.Duration
	DefaultFile string
}

// SiteData returns the full bundle for host.
func (s *Service) SiteData(ctx context.Context, host string) (*SiteData, error) {
	var d SiteData
	if err := s.fetch(ctx, host, KindSite, "", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Page returns the page with slug.
func (s *Service) Page(ctx context.Context, host, slug string) (*Page, error) {
	var p Page
	if err := s.fetch(ctx, host, KindPage, slug, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Service returns the service offering with slug.
func (s *Service) Service(ctx context.Context, host, slug string) (*ServiceItem, error) {
	var it ServiceItem
	if err := s.fetch(ctx, host, KindService, slug, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// Project returns the reference project with slug.
func (s *Service) Project(ctx context.Context, host, slug string) (*Project, error) {
	var p Project
	if err := s.fetch(ctx, host, KindProject, slug, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Services returns every service offering.
func (s *Service) Services(ctx context.Context, host string) ([]ServiceItem, error) {
	var out []ServiceItem
	if err := s.fetch(ctx, host, KindServices, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Projects returns every reference project.
func (s *Service) Projects(ctx context.Context, host string) ([]Project, error) {
	var out []Project
	if err := s.fetch(ctx, host, KindProjects, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Raw returns the cached JSON document for a request without decoding it.
// The JSON API serves these bytes as is.
func (s *Service) Raw(ctx context.Context, host string, kind Kind, slug string) (json.RawMessage, error) {
	t, err := s.tenant(ctx, host)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, Request{Tenant: t, Host: tenant.NormalizeHost(host), Kind: kind, Slug: slug})
}

func (s *Service) fetch(ctx context.Context, host string, kind Kind, slug string, dst any) error {
	raw, err := s.Raw(ctx, host, kind, slug)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("content: decode %s: %w", kind, err)
	}
	return nil
}

// tenant prefers the tenant attached by the middleware; the host lookup
// covers calls made outside an HTTP request.
func (s *Service) tenant(ctx context.Context, host string) (*tenant.Tenant, error) {
	if t := tenant.FromContext(ctx); t != nil {
		return t, nil
	}
	if s.Tenants == nil {
		return nil, ErrHostNotFound
	}
	t, err := s.Tenants.Get(ctx, host)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return nil, ErrHostNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrHostNotFound, err)
	}
	return t, nil
}

// Chain returns the sources consulted for t, in order.
func (s *Service) Chain(t *tenant.Tenant) Chain {
	c := make(Chain, 0, 2)
	if s.CMS != nil && !t.IsStatic() {
		c = append(c, CMSSource(s.CMS))
	}
	if s.Static != nil {
		c = append(c, StaticSource(s.Static, s.DefaultFile))
	}
	return c
}

func (s *Service) load(ctx context.Context, req Request) (json.RawMessage, error) {
	compute := func(ctx context.Context) ([]byte, error) {
		raw, _, ok := s.Chain(req.Tenant).First(ctx, req)
		if !ok {
			return nil, ErrNotFound
		}
		return raw, nil
	}
	if s.Cache == nil {
		return compute(ctx)
	}
	return s.Cache.GetOrCompute(ctx, CacheKey(req), compute, s.TTL, Tags(req))
}

// CacheKey is host|tenant|kind|slug.  The host is part of the key so a
// tenant re-assigned to another domain never serves stale entries under
// the old one.
func CacheKey(req Request) string {
	return strings.Join([]string{req.Host, req.Tenant.ID, string(req.Kind), req.Slug}, "|")
}

// Tags returns the invalidation tags of a cached request.
func Tags(req Request) []string {
	id := req.Tenant.ID
	tags := []string{"tenant:" + id}
	switch req.Kind {
	case KindSite:
		tags = append(tags, "site:"+id)
	case KindPage, KindService, KindProject:
		k := string(req.Kind)
		tags = append(tags, k+":"+id, k+":"+id+":"+req.Slug)
	case KindServices:
		tags = append(tags, "service:"+id)
	case KindProjects:
		tags = append(tags, "project:"+id)
	}
	return tags
}

// TagsFor maps a published document type to the tags that must be
// dropped for tenantID.  Unknown types drop the whole tenant.
func TagsFor(docType, tenantID string) []string {
	switch docType {
	case cms.TypePage:
		return []string{"page:" + tenantID, "site:" + tenantID}
	case cms.TypeService:
		return []string{"service:" + tenantID, "site:" + tenantID}
	case cms.TypeProject:
		return []string{"project:" + tenantID, "site:" + tenantID}
	case cms.TypeSiteSettings, cms.TypeTeamMember, cms.TypeTestimonial,
		cms.TypeFAQ, cms.TypeCertification:
		return []string{"site:" + tenantID}
	}
	return []string{"tenant:" + tenantID}
}
