// components/gdpr/gdpr.go
//
// Data export and erasure for tenant owners.
//
// Routes (global scope, owner role required)
// ------------------------------------------
//
//	GET  /dashboard/api/gdpr/export          everything the tenant owns, as JSON
//	POST /dashboard/api/gdpr/forget/token    issue a one-time confirmation token
//	POST /dashboard/api/gdpr/forget          {"token": "..."} erases the tenant's data
//
// Token requests are rate limited per client IP.
//
//------------------------------------------------------------------------------

package gdpr

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/sitewerk/internal/acl"
	"github.com/yanizio/sitewerk/internal/auth"
	"github.com/yanizio/sitewerk/internal/component"
	"github.com/yanizio/sitewerk/internal/gdpr"
	"github.com/yanizio/sitewerk/internal/httpapi"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves the GDPR endpoints.
type Component struct {
	svc     *gdpr.Service
	auth    *auth.Manager
	db      *sql.DB
	limited func(http.Handler) http.Handler
}

type forgetInput struct {
	Token string `json:"token" validate:"required"`
}

type tokenOutput struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string           { return "gdpr" }
func (c *Component) Scope() component.Scope { return component.ScopeGlobal }

func (c *Component) Init(d *component.Deps) error {
	if d.GDPR == nil || d.Auth == nil || d.CMS == nil {
		return component.ErrUnavailable
	}
	c.svc = d.GDPR
	c.auth = d.Auth
	c.db = d.CMS.DB().DB

	c.limited = func(next http.Handler) http.Handler { return next }
	if d.Limiter != nil && d.Config != nil {
		mw, err := d.Limiter.Middleware("gdpr", d.Config.RateLimit.Rate)
		if err != nil {
			return err
		}
		c.limited = mw
	}
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Route("/dashboard/api/gdpr", func(r chi.Router) {
		r.Use(auth.Middleware(c.auth))
		r.Use(acl.RequireRole(c.db, acl.Owner))

		r.Get("/export", c.handleExport)
		r.With(c.limited).Post("/forget/token", c.handleToken)
		r.Post("/forget", c.handleForget)
	})
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleExport(w http.ResponseWriter, r *http.Request) {
	a, _ := auth.ActorFrom(r.Context())
	exp, err := c.svc.Export(r.Context(), a.TenantID)
	if err != nil {
		zap.L().Error("gdpr export", zap.String("tenant", a.TenantID), zap.Error(err))
		_ = httpapi.WriteStatus(w, http.StatusInternalServerError)
		return
	}
	zap.L().Info("gdpr export",
		zap.String("tenant", a.TenantID), zap.String("user", a.UserID),
		zap.Int("documents", len(exp.Documents)), zap.Int("contact_requests", len(exp.ContactRequests)))

	w.Header().Set("Content-Disposition", `attachment; filename="sitewerk-export-`+a.TenantID+`.json"`)
	_ = httpapi.WriteJSON(w, http.StatusOK, exp)
}

func (c *Component) handleToken(w http.ResponseWriter, r *http.Request) {
	a, _ := auth.ActorFrom(r.Context())
	tok, exp, err := c.svc.IssueToken(r.Context(), a.TenantID)
	if err != nil {
		zap.L().Error("gdpr token", zap.String("tenant", a.TenantID), zap.Error(err))
		_ = httpapi.WriteStatus(w, http.StatusInternalServerError)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, tokenOutput{Token: tok, ExpiresAt: exp.UTC()})
}

func (c *Component) handleForget(w http.ResponseWriter, r *http.Request) {
	var in forgetInput
	if err := httpapi.Decode(r, &in); httpapi.Respond(w, err) {
		return
	}
	a, _ := auth.ActorFrom(r.Context())
	res, err := c.svc.Forget(r.Context(), a.TenantID, in.Token)
	switch {
	case errors.Is(err, gdpr.ErrTokenInvalid):
		_ = httpapi.WriteError(w, http.StatusForbidden, "token_invalid", "confirmation token invalid or expired")
	case err != nil:
		zap.L().Error("gdpr forget", zap.String("tenant", a.TenantID), zap.Error(err))
		_ = httpapi.WriteStatus(w, http.StatusInternalServerError)
	default:
		_ = httpapi.WriteJSON(w, http.StatusOK, res)
	}
}
