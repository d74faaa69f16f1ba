// components/site/site.go
//
// Public website of a tenant: HTML pages, the JSON content API, and the
// sitemap.
//
// Routes (tenant scope)
// ---------------------
//
//	GET /                        page "home"
//	GET /leistungen              service index
//	GET /leistungen/{slug}       service detail
//	GET /projekte                project index
//	GET /projekte/{slug}         project detail
//	GET /{slug}                  page
//	GET /sitemap.xml             every URL above
//	GET /robots.txt              points crawlers at the sitemap
//	GET /api/site[/...]          cached JSON documents, served verbatim
//
// Content failures never surface as 5xx: whatever the chain cannot
// deliver renders the neutral not-found page.
//
//------------------------------------------------------------------------------

package site

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/sitewerk/internal/component"
	"github.com/yanizio/sitewerk/internal/content"
	"github.com/yanizio/sitewerk/internal/head"
	"github.com/yanizio/sitewerk/internal/section"
	"github.com/yanizio/sitewerk/internal/tenant"
	"github.com/yanizio/sitewerk/internal/view"
)

// HomeSlug is the page rendered at "/".
const HomeSlug = "home"

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves tenant websites.
type Component struct {
	d        *component.Deps
	notFound http.Handler
}

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string           { return "site" }
func (c *Component) Scope() component.Scope { return component.ScopeTenant }

func (c *Component) Init(d *component.Deps) error {
	if d.Content == nil || d.View == nil {
		return component.ErrUnavailable
	}
	c.d = d
	c.notFound = d.View.NotFound()
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Get("/sitemap.xml", c.handleSitemap)
	r.Get("/robots.txt", c.handleRobots)

	r.Route("/api/site", func(api chi.Router) {
		api.Get("/", c.handleAPI(content.KindSite))
		api.Get("/pages/{slug}", c.handleAPI(content.KindPage))
		api.Get("/services", c.handleAPI(content.KindServices))
		api.Get("/services/{slug}", c.handleAPI(content.KindService))
		api.Get("/projects", c.handleAPI(content.KindProjects))
		api.Get("/projects/{slug}", c.handleAPI(content.KindProject))
	})

	r.Get("/", c.handlePage)
	r.Get("/leistungen", c.handleServices)
	r.Get("/leistungen/{slug}", c.handleService)
	r.Get("/projekte", c.handleProjects)
	r.Get("/projekte/{slug}", c.handleProject)
	r.Get("/{slug}", c.handlePage)
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handlePage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		slug = HomeSlug
	}
	p, err := c.d.Content.Page(r.Context(), r.Host, slug)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	c.render(w, r, "page", pageView{
		title:    p.Title,
		seo:      p.SEO,
		sections: p.Sections,
		home:     slug == HomeSlug,
	})
}

func (c *Component) handleServices(w http.ResponseWriter, r *http.Request) {
	list, err := c.d.Content.Services(r.Context(), r.Host)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	c.render(w, r, "services", pageView{title: "Leistungen", services: list})
}

func (c *Component) handleService(w http.ResponseWriter, r *http.Request) {
	s, err := c.d.Content.Service(r.Context(), r.Host, chi.URLParam(r, "slug"))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	c.render(w, r, "service", pageView{
		title:    s.Title,
		seo:      withDescription(s.SEO, s.Summary),
		sections: s.Sections,
		image:    s.Image,
		service:  s,
	})
}

func (c *Component) handleProjects(w http.ResponseWriter, r *http.Request) {
	list, err := c.d.Content.Projects(r.Context(), r.Host)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	c.render(w, r, "projects", pageView{title: "Referenzen", projects: list})
}

func (c *Component) handleProject(w http.ResponseWriter, r *http.Request) {
	p, err := c.d.Content.Project(r.Context(), r.Host, chi.URLParam(r, "slug"))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	pv := pageView{
		title:    p.Title,
		seo:      withDescription(p.SEO, p.Description),
		sections: p.Sections,
		project:  p,
	}
	if len(p.Images) > 0 {
		pv.image = p.Images[0]
	}
	c.render(w, r, "project", pv)
}

/*──────────────────────────── rendering ────────────────────────────────────*/

// pageView is what a handler hands to render.
type pageView struct {
	title    string
	seo      content.SEO
	sections section.List
	image    section.Image
	home     bool
	service  *content.ServiceItem
	project  *content.Project
	services []content.ServiceItem // index pages only
	projects []content.Project
}

func withDescription(seo content.SEO, fallback string) content.SEO {
	if seo.Description == "" {
		seo.Description = fallback
	}
	return seo
}

// render loads the site bundle for the chrome (menu, company, footer),
// composes sections under the tenant's allow-list, and executes name.
func (c *Component) render(w http.ResponseWriter, r *http.Request, name string, pv pageView) {
	ctx := r.Context()
	t := tenant.FromContext(ctx)

	site, err := c.d.Content.SiteData(ctx, r.Host)
	if err != nil {
		if !errors.Is(err, content.ErrNotFound) {
			zap.L().Warn("site bundle unavailable", zap.String("host", r.Host), zap.Error(err))
		}
		site = &content.SiteData{}
	}
	if pv.services != nil {
		site.Services = pv.services
	}
	if pv.projects != nil {
		site.Projects = pv.projects
	}

	img := pv.image
	if img.URL == "" {
		img = pv.seo.Image
	}
	base := baseURL(r, t, c.d.Config.HTTP.ForceHTTPS, c.d.Config.HTTP.TrustProxy)
	hb, err := head.ForPage(site, head.Page{
		Title:     pv.title,
		SEO:       pv.seo,
		Canonical: base + r.URL.Path,
		ImageURL:  c.d.Images.URL(img, imageOG),
		LogoURL:   c.d.Images.URL(site.Company.Logo, imageLogo),
		SiteURL:   base + "/",
		Home:      pv.home,
	})
	if err != nil {
		zap.L().Error("build head", zap.String("tenant", t.ID), zap.Error(err))
		hb = head.New()
	}

	data := view.Data{
		Head:     hb.All(),
		Site:     site,
		Tenant:   t,
		Title:    pv.title,
		Sections: section.Compose(pv.sections, t.Sections),
		Service:  pv.service,
		Project:  pv.project,
		Year:     time.Now().Year(),
	}
	if c.d.FormTokens != nil {
		if tok, err := c.d.FormTokens.Issue(t.ID); err == nil {
			data.FormToken = tok
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.d.View.Render(w, t.ID, name, data); err != nil {
		zap.L().Error("render page", zap.String("tenant", t.ID), zap.String("template", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// fail answers a content error with the neutral not-found page.
func (c *Component) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, content.ErrNotFound) && !errors.Is(err, content.ErrHostNotFound) {
		zap.L().Warn("content unavailable", zap.String("host", r.Host), zap.String("path", r.URL.Path), zap.Error(err))
	}
	c.notFound.ServeHTTP(w, r)
}
