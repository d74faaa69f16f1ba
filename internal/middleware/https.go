// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/yanizio/sitewerk/internal/tenant"
)

// TenantLookup is the slice of *tenant.Cache that ForceHTTPS needs.
type TenantLookup interface {
	Get(ctx context.Context, host string) (*tenant.Tenant, error)
}

// ForceHTTPS wraps h.  If the request is plain HTTP, the host is not
// "localhost", and the lookup confirms the site exists with HTTPS enforced
// (globally via all, or per tenant), the wrapper issues a 308 Permanent
// Redirect to the HTTPS version of the same URL.  Otherwise it calls the
// next handler unchanged.  Unknown hosts are never redirected.
func ForceHTTPS(sites TenantLookup, all, trustProxy bool) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := tenant.NormalizeHost(r.Host)
			if isHTTPS(r, trustProxy) || host == "localhost" {
				h.ServeHTTP(w, r)
				return
			}

			if t, err := sites.Get(r.Context(), r.Host); err == nil && (all || t.ForceHTTPS) {
				target := "https://" + host + r.URL.RequestURI()
				http.Redirect(w, r, target, http.StatusPermanentRedirect)
				return
			}

			h.ServeHTTP(w, r)
		})
	}
}

func isHTTPS(r *http.Request, trustProxy bool) bool {
	if r.TLS != nil {
		return true
	}
	return trustProxy && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
