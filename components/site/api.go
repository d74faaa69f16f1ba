package site

import (
	"encoding/xml"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/sitewerk/internal/content"
	"github.com/yanizio/sitewerk/internal/httpapi"
	"github.com/yanizio/sitewerk/internal/imageurl"
	"github.com/yanizio/sitewerk/internal/routing"
	"github.com/yanizio/sitewerk/internal/tenant"
)

var (
	imageOG   = imageurl.Opts{Width: 1200, Height: 630, Fit: "crop", Format: "jpg"}
	imageLogo = imageurl.Opts{Width: 512}
)

// handleAPI serves the cached JSON document of kind.
func (c *Component) handleAPI(kind content.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := c.d.Content.Raw(r.Context(), r.Host, kind, chi.URLParam(r, "slug"))
		if err != nil {
			if !errors.Is(err, content.ErrNotFound) && !errors.Is(err, content.ErrHostNotFound) {
				zap.L().Warn("content api unavailable", zap.String("host", r.Host), zap.Error(err))
			}
			_ = httpapi.WriteError(w, http.StatusNotFound, "not_found", "no content for this path")
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=60")
		_, _ = w.Write(raw)
	}
}

/*──────────────────────────── sitemap ──────────────────────────────────────*/

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	NS      string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

// handleSitemap lists the home page, every indexable page, and the
// service and project pages.
func (c *Component) handleSitemap(w http.ResponseWriter, r *http.Request) {
	site, err := c.d.Content.SiteData(r.Context(), r.Host)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	t := tenant.FromContext(r.Context())
	base := baseURL(r, t, c.d.Config.HTTP.ForceHTTPS, c.d.Config.HTTP.TrustProxy)

	set := urlset{NS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	add := func(path string) { set.URLs = append(set.URLs, sitemapURL{Loc: base + path}) }

	add("/")
	for _, p := range site.Pages {
		if p.SEO.NoIndex || p.Slug == HomeSlug || p.Slug == "" {
			continue
		}
		add(routing.BuildPath("", p.Slug))
	}
	if len(site.Services) > 0 {
		add("/leistungen")
		for _, s := range site.Services {
			if !s.SEO.NoIndex {
				add(routing.BuildPath("leistungen", s.Slug))
			}
		}
	}
	if len(site.Projects) > 0 {
		add("/projekte")
		for _, p := range site.Projects {
			if !p.SEO.NoIndex {
				add(routing.BuildPath("projekte", p.Slug))
			}
		}
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		zap.L().Error("encode sitemap", zap.String("tenant", t.ID), zap.Error(err))
	}
}

func (c *Component) handleRobots(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromContext(r.Context())
	base := baseURL(r, t, c.d.Config.HTTP.ForceHTTPS, c.d.Config.HTTP.TrustProxy)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("User-agent: *\nDisallow: /api/\nDisallow: /dashboard/\nSitemap: " + base + "/sitemap.xml\n"))
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// baseURL is scheme://domain for absolute links.  The tenant's primary
// domain wins over the request host so preview hosts never become
// canonical.
func baseURL(r *http.Request, t *tenant.Tenant, forceAll, trustProxy bool) string {
	host := tenant.NormalizeHost(r.Host)
	if t != nil && len(t.Domains) > 0 {
		host = t.Domains[0]
	}
	scheme := "http"
	switch {
	case r.TLS != nil, forceAll, t != nil && t.ForceHTTPS:
		scheme = "https"
	case trustProxy && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https"):
		scheme = "https"
	}
	return scheme + "://" + host
}
