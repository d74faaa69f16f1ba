// internal/tenant/router.go
//
// Request-side tenant resolution.
//
// Middleware resolves the Host header through the cache and attaches the
// Tenant to the request context.  When path-based tenancy is enabled a
// request such as `/sites/mueller/leistungen/dach` on a host that is not a
// tenant domain resolves tenant `mueller` by id and continues with the
// path rewritten to `/leistungen/dach`.  Anything else is answered by the
// not-found handler, which must render no tenant content.
package tenant

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Middleware returns the resolution wrapper.  pathPrefix "" disables
// path-based tenancy.  notFound nil defaults to http.NotFound.
func Middleware(c *Cache, pathPrefix string, notFound http.Handler) func(http.Handler) http.Handler {
	if notFound == nil {
		notFound = http.HandlerFunc(http.NotFound)
	}
	pathPrefix = strings.TrimSuffix(pathPrefix, "/")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if t, err := c.Get(ctx, r.Host); err == nil {
				next.ServeHTTP(w, r.WithContext(WithTenant(ctx, t)))
				return
			}

			if pathPrefix != "" {
				if id, rest, ok := splitTenantPath(r.URL.Path, pathPrefix); ok {
					if t, err := c.GetByID(ctx, id); err == nil {
						r2 := r.WithContext(WithTenant(ctx, t))
						u := *r.URL
						u.Path, u.RawPath = rest, ""
						r2.URL = &u
						// A mounted chi router routes on RoutePath, not URL.Path.
						if rc := chi.RouteContext(ctx); rc != nil {
							rc.RoutePath = rest
						}
						next.ServeHTTP(w, r2)
						return
					}
				}
			}

			zap.L().Debug("host not found", zap.String("host", r.Host), zap.String("path", r.URL.Path))
			notFound.ServeHTTP(w, r)
		})
	}
}

// splitTenantPath parses "<prefix>/<id>/rest".  rest always starts with "/".
func splitTenantPath(path, prefix string) (id, rest string, ok bool) {
	tail, found := strings.CutPrefix(path, prefix+"/")
	if !found {
		return "", "", false
	}
	id, rest, _ = strings.Cut(tail, "/")
	if id == "" {
		return "", "", false
	}
	return id, "/" + rest, true
}
