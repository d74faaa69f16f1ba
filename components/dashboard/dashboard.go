// components/dashboard/dashboard.go
//
// Editor dashboard API.
//
// Routes (global scope, bearer token required)
// --------------------------------------------
//
//	GET    /dashboard/api/overview          document and inquiry counts
//	POST   /dashboard/api/revalidate        purge the actor's tenant
//	GET    /dashboard/api/documents         list (?type=page)
//	POST   /dashboard/api/documents         create
//	GET    /dashboard/api/documents/{id}    read
//	PUT    /dashboard/api/documents/{id}    update
//	DELETE /dashboard/api/documents/{id}    delete
//
// The tenant is always the actor's.  A document id belonging to another
// tenant answers 403 with the bare status body; nothing about the
// document is returned.
//
//------------------------------------------------------------------------------

package dashboard

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/sitewerk/internal/acl"
	"github.com/yanizio/sitewerk/internal/auth"
	"github.com/yanizio/sitewerk/internal/cms"
	"github.com/yanizio/sitewerk/internal/component"
	"github.com/yanizio/sitewerk/internal/contentcache"
	"github.com/yanizio/sitewerk/internal/httpapi"
	"github.com/yanizio/sitewerk/internal/inquiry"
)

// ACL component names checked against role_acl.
const (
	aclDocuments = "documents"
	aclCache     = "cache"
	aclDashboard = "dashboard"
)

var errForbidden = errors.New("dashboard: document belongs to another tenant")

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves the dashboard API.
type Component struct {
	docs      *cms.Store
	inquiries *inquiry.Store
	cache     *contentcache.Cache
	auth      *auth.Manager
	db        *sql.DB
}

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string           { return "dashboard" }
func (c *Component) Scope() component.Scope { return component.ScopeGlobal }

// Init needs the CMS database and the token manager; static-only
// deployments run without a dashboard.
func (c *Component) Init(d *component.Deps) error {
	if d.CMS == nil || d.Auth == nil {
		return component.ErrUnavailable
	}
	c.docs = d.CMS
	c.inquiries = d.Inquiries
	c.cache = d.Cache
	c.auth = d.Auth
	c.db = d.CMS.DB().DB
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Route("/dashboard/api", func(r chi.Router) {
		r.Use(auth.Middleware(c.auth))

		r.With(acl.RequirePermission(c.db, aclDashboard, "read")).Get("/overview", c.handleOverview)
		r.With(acl.RequirePermission(c.db, aclCache, "purge")).Post("/revalidate", c.handleRevalidate)

		r.Route("/documents", func(r chi.Router) {
			r.With(acl.RequirePermission(c.db, aclDocuments, "read")).Get("/", c.handleList)
			r.With(acl.RequirePermission(c.db, aclDocuments, "write")).Post("/", c.handleCreate)
			r.With(acl.RequirePermission(c.db, aclDocuments, "read")).Get("/{id}", c.handleGet)
			r.With(acl.RequirePermission(c.db, aclDocuments, "write")).Put("/{id}", c.handleUpdate)
			r.With(acl.RequirePermission(c.db, aclDocuments, "delete")).Delete("/{id}", c.handleDelete)
		})
	})
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

type overview struct {
	TenantID        string         `json:"tenantId"`
	Documents       map[string]int `json:"documents"`
	ContactRequests int            `json:"contactRequests"`
}

// handleOverview runs one count per document type plus the inquiry count
// concurrently.  Any failure fails the whole answer.
func (c *Component) handleOverview(w http.ResponseWriter, r *http.Request) {
	a := actor(r)
	counts := make([]int, len(cms.DocumentTypes))
	out := overview{TenantID: a.TenantID, Documents: make(map[string]int, len(counts))}

	g, ctx := errgroup.WithContext(r.Context())
	for i, typ := range cms.DocumentTypes {
		g.Go(func() error {
			n, err := c.docs.CountByType(ctx, a.TenantID, typ)
			counts[i] = n
			return err
		})
	}
	if c.inquiries != nil {
		g.Go(func() error {
			n, err := c.inquiries.CountByTenant(ctx, a.TenantID)
			out.ContactRequests = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		c.internal(w, r, "overview", err)
		return
	}
	for i, typ := range cms.DocumentTypes {
		out.Documents[typ] = counts[i]
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *Component) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	a := actor(r)
	n := 0
	if c.cache != nil {
		n = c.cache.InvalidateTags(r.Context(), "tenant:"+a.TenantID)
	}
	zap.L().Info("dashboard revalidate",
		zap.String("tenant", a.TenantID), zap.String("user", a.UserID), zap.Int("entries", n))
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"revalidated": true, "entries": n})
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// actor is set by auth.Middleware on every dashboard route.
func actor(r *http.Request) *auth.Actor {
	a, _ := auth.ActorFrom(r.Context())
	return a
}

func (c *Component) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	zap.L().Error("dashboard "+op, zap.String("path", r.URL.Path), zap.Error(err))
	_ = httpapi.WriteStatus(w, http.StatusInternalServerError)
}
