package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/sitewerk/internal/httpapi"
)

// Verifier is the token check used by Middleware.
type Verifier interface {
	Verify(raw string) (*Actor, error)
}

// Middleware requires `Authorization: Bearer <token>` and attaches the
// actor.  Every failure is a bare 401.
func Middleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, raw, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
				_ = httpapi.WriteStatus(w, http.StatusUnauthorized)
				return
			}
			a, err := v.Verify(strings.TrimSpace(raw))
			if err != nil {
				zap.L().Debug("bearer rejected", zap.String("path", r.URL.Path), zap.Error(err))
				_ = httpapi.WriteStatus(w, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), a)))
		})
	}
}
