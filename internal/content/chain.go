// internal/content/chain.go
//
// Content fallback chain.
//
// Context
// -------
// A Chain is an ordered list of sources.  First asks each source once, in
// order, and returns the first non-empty answer.  Sources never return
// errors: an upstream failure is logged by the source and reported as a
// miss, which lets the next source answer.  No retries, no backoff, no
// memory of earlier failures.
//
// Two sources exist: the CMS (named point queries, filtered by tenant id)
// and the tenant's static JSON file.  Tenants in static mode get a chain
// without the CMS.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/sitewerk/internal/cms"
	"github.com/yanizio/sitewerk/internal/metrics"
	"github.com/yanizio/sitewerk/internal/tenant"
)

// Kind names what a request asks for.
type Kind string

const (
	KindSite     Kind = "site"
	KindPage     Kind = "page"
	KindService  Kind = "service"
	KindProject  Kind = "project"
	KindServices Kind = "services"
	KindProjects Kind = "projects"
)

// Request is the input of every source.
type Request struct {
	Tenant *tenant.Tenant
	Host   string
	Kind   Kind
	Slug   string
}

// SourceFunc answers a request.  ok is false on absence or failure.
type SourceFunc func(ctx context.Context, req Request) (raw json.RawMessage, ok bool)

// Source is a named SourceFunc; the name labels logs and metrics.
type Source struct {
	Name  string
	Fetch SourceFunc
}

// Chain evaluates sources left to right.
type Chain []Source

// First returns the first non-empty answer and the name of the source
// that gave it.
func (c Chain) First(ctx context.Context, req Request) (json.RawMessage, string, bool) {
	for _, s := range c {
		raw, ok := s.Fetch(ctx, req)
		if ok && !empty(raw) {
			metrics.ContentSourceTotal.WithLabelValues(s.Name, "hit").Inc()
			return raw, s.Name, true
		}
		metrics.ContentSourceTotal.WithLabelValues(s.Name, "miss").Inc()
	}
	return nil, "", false
}

// empty treats absent, null, and empty containers as "no answer".
func empty(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	switch string(b) {
	case "", "null", "[]", "{}":
		return true
	}
	return false
}

//
// CMS source
//

// listTypes maps bundle fields to CMS document types.
var listTypes = []struct {
	field, docType string
}{
	{"services", cms.TypeService},
	{"projects", cms.TypeProject},
	{"team", cms.TypeTeamMember},
	{"testimonials", cms.TypeTestimonial},
	{"faqs", cms.TypeFAQ},
	{"certifications", cms.TypeCertification},
	{"pages", cms.TypePage},
}

// CMSSource queries q.  Every query carries the tenant id.
func CMSSource(q cms.Querier) Source {
	return Source{Name: "cms", Fetch: func(ctx context.Context, req Request) (json.RawMessage, bool) {
		raw, err := fetchCMS(ctx, q, req)
		if err != nil {
			zap.L().Warn("cms fetch failed",
				zap.String("tenant", req.Tenant.ID), zap.String("kind", string(req.Kind)),
				zap.String("slug", req.Slug), zap.Error(err))
			return nil, false
		}
		return raw, raw != nil
	}}
}

func fetchCMS(ctx context.Context, q cms.Querier, req Request) (json.RawMessage, error) {
	id := req.Tenant.ID
	switch req.Kind {
	case KindPage:
		return q.FetchByQuery(ctx, cms.QueryPageBySlug, cms.Params{"tenantId": id, "slug": req.Slug})
	case KindService:
		return q.FetchByQuery(ctx, cms.QueryServiceBySlug, cms.Params{"tenantId": id, "slug": req.Slug})
	case KindProject:
		return q.FetchByQuery(ctx, cms.QueryProjectBySlug, cms.Params{"tenantId": id, "slug": req.Slug})
	case KindServices:
		return q.FetchByQuery(ctx, cms.QueryListByType, cms.Params{"tenantId": id, "type": cms.TypeService})
	case KindProjects:
		return q.FetchByQuery(ctx, cms.QueryListByType, cms.Params{"tenantId": id, "type": cms.TypeProject})
	case KindSite:
		return fetchBundle(ctx, q, id)
	}
	return nil, nil
}

// fetchBundle assembles a SiteData document from the settings document and
// the per-type lists, fetched concurrently.  Missing settings mean the
// tenant has no CMS content; any list failure fails the bundle so the
// static file can answer with a complete one.
func fetchBundle(ctx context.Context, q cms.Querier, tenantID string) (json.RawMessage, error) {
	settings, err := q.FetchByQuery(ctx, cms.QuerySiteSettings, cms.Params{"tenantId": tenantID})
	if err != nil || empty(settings) {
		return nil, err
	}

	var bundle map[string]json.RawMessage
	if err := json.Unmarshal(settings, &bundle); err != nil {
		return nil, err
	}
	if bundle == nil {
		bundle = make(map[string]json.RawMessage, len(listTypes))
	}

	lists := make([]json.RawMessage, len(listTypes))
	g, gctx := errgroup.WithContext(ctx)
	for i, lt := range listTypes {
		g.Go(func() error {
			raw, err := q.FetchByQuery(gctx, cms.QueryListByType, cms.Params{"tenantId": tenantID, "type": lt.docType})
			lists[i] = raw
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, lt := range listTypes {
		if !empty(lists[i]) {
			bundle[lt.field] = lists[i]
		}
	}
	return json.Marshal(bundle)
}

//
// Static source
//

// StaticReader returns a tenant's static content document.
type StaticReader interface {
	ReadJSON(name string) (json.RawMessage, error)
}

// StaticSource reads the tenant's static file, or defaultFile when the
// tenant names none, and extracts the requested sub-record verbatim.
func StaticSource(r StaticReader, defaultFile string) Source {
	return Source{Name: "static", Fetch: func(_ context.Context, req Request) (json.RawMessage, bool) {
		name := req.Tenant.StaticFile
		if name == "" {
			name = defaultFile
		}
		if name == "" {
			return nil, false
		}
		doc, err := r.ReadJSON(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				zap.L().Debug("static file missing", zap.String("tenant", req.Tenant.ID), zap.String("file", name))
			} else {
				zap.L().Warn("static file unreadable",
					zap.String("tenant", req.Tenant.ID), zap.String("file", name), zap.Error(err))
			}
			return nil, false
		}
		raw, err := extract(doc, req)
		if err != nil {
			zap.L().Warn("static file malformed",
				zap.String("tenant", req.Tenant.ID), zap.String("file", name), zap.Error(err))
			return nil, false
		}
		return raw, raw != nil
	}}
}

func extract(doc json.RawMessage, req Request) (json.RawMessage, error) {
	if req.Kind == KindSite {
		return doc, nil
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(doc, &top); err != nil {
		return nil, err
	}
	switch req.Kind {
	case KindServices:
		return top["services"], nil
	case KindProjects:
		return top["projects"], nil
	case KindPage:
		return bySlug(top["pages"], req.Slug)
	case KindService:
		return bySlug(top["services"], req.Slug)
	case KindProject:
		return bySlug(top["projects"], req.Slug)
	}
	return nil, nil
}

// bySlug returns the element of a JSON array whose "slug" equals slug.
func bySlug(list json.RawMessage, slug string) (json.RawMessage, error) {
	if empty(list) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, err
	}
	for _, it := range items {
		var head struct {
			Slug string `json:"slug"`
		}
		if json.Unmarshal(it, &head) == nil && head.Slug == slug {
			return it, nil
		}
	}
	return nil, nil
}
