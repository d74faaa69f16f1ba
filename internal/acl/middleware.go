// internal/acl/middleware.go
//
// Chi middleware helpers that enforce RBAC on the dashboard API.  Both
// expect auth.Middleware to have attached the actor.

package acl

import (
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/sitewerk/internal/auth"
	"github.com/yanizio/sitewerk/internal/httpapi"
)

// Owner is the built-in role that bypasses the role_acl table.
const Owner = "owner"

// roles merges the token roles with the tenant-scoped database roles.
func roles(r *http.Request, db *sql.DB, a *auth.Actor) ([]string, error) {
	out := append([]string(nil), a.Roles...)
	if db == nil {
		return out, nil
	}
	dbRoles, err := UserRoles(r.Context(), db, a.UserID, a.TenantID)
	if err != nil {
		return nil, err
	}
	return append(out, dbRoles...), nil
}

// RequireRole ensures the current actor possesses ANY of the supplied roles.
func RequireRole(db *sql.DB, names ...string) func(http.Handler) http.Handler {
	if len(names) == 0 {
		panic("acl.RequireRole: at least one role name must be supplied")
	}
	allowSet := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowSet[n] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := auth.ActorFrom(r.Context())
			if !ok {
				_ = httpapi.WriteStatus(w, http.StatusUnauthorized)
				return
			}
			have, err := roles(r, db, a)
			if err != nil {
				zap.L().Error("acl user roles", zap.Error(err))
				_ = httpapi.WriteStatus(w, http.StatusInternalServerError)
				return
			}
			for _, rname := range have {
				if _, ok := allowSet[rname]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}
			_ = httpapi.WriteStatus(w, http.StatusForbidden)
		})
	}
}

// RequirePermission verifies that the actor's roles allow component/action.
// Owners pass without a role_acl lookup.
func RequirePermission(db *sql.DB, component, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := auth.ActorFrom(r.Context())
			if !ok {
				_ = httpapi.WriteStatus(w, http.StatusUnauthorized)
				return
			}
			have, err := roles(r, db, a)
			if err != nil {
				zap.L().Error("acl user roles", zap.Error(err))
				_ = httpapi.WriteStatus(w, http.StatusInternalServerError)
				return
			}
			for _, rn := range have {
				if rn == Owner {
					next.ServeHTTP(w, r)
					return
				}
			}
			if db == nil {
				_ = httpapi.WriteStatus(w, http.StatusForbidden)
				return
			}

			allowed, err := RoleAllowed(r.Context(), db, have, component, action)
			if err != nil {
				zap.L().Error("acl role allowed", zap.Error(err))
				_ = httpapi.WriteStatus(w, http.StatusInternalServerError)
				return
			}
			if !allowed {
				_ = httpapi.WriteStatus(w, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
