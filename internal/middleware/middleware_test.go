package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yanizio/sitewerk/internal/tenant"
)

type sites map[string]*tenant.Tenant

func (s sites) Get(_ context.Context, host string) (*tenant.Tenant, error) {
	if t, ok := s[tenant.NormalizeHost(host)]; ok {
		return t, nil
	}
	return nil, tenant.ErrNotFound
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func TestForceHTTPS(t *testing.T) {
	s := sites{
		"muellerbau.de":  {ID: "mueller", ForceHTTPS: true},
		"schulz-dach.de": {ID: "schulz"},
	}
	h := ForceHTTPS(s, false, true)(okHandler)

	cases := []struct {
		name, host, proto string
		want              int
	}{
		{"enforced tenant", "muellerbau.de:80", "", http.StatusPermanentRedirect},
		{"already https via proxy", "muellerbau.de", "https", http.StatusOK},
		{"tenant without flag", "schulz-dach.de", "", http.StatusOK},
		{"unknown host", "evil.example", "", http.StatusOK},
		{"localhost", "localhost:8080", "", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/leistungen?x=1", nil)
			r.Host = tc.host
			if tc.proto != "" {
				r.Header.Set("X-Forwarded-Proto", tc.proto)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusPermanentRedirect {
				assert.Equal(t, "https://muellerbau.de/leistungen?x=1", rec.Header().Get("Location"))
			}
		})
	}

	all := ForceHTTPS(s, true, false)(okHandler)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Host = "schulz-dach.de"
	rec := httptest.NewRecorder()
	all.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
}

func TestSecurity_SetsHeadersBeforeBody(t *testing.T) {
	h := Security("https://cdn.sitewerk.de/img")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("body"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "img-src 'self' data: https://cdn.sitewerk.de;")
}

func TestAccessLog_RecordsStatusAndTenant(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	inner := Probe(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	withTenant := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner.ServeHTTP(w, r.WithContext(tenant.WithTenant(r.Context(), &tenant.Tenant{ID: "mueller"})))
	})
	h := AccessLog(zap.New(core))(withTenant)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nix", nil))

	require.Equal(t, 1, logs.Len())
	e := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, e.Level)
	fields := e.ContextMap()
	assert.Equal(t, int64(404), fields["status"])
	assert.Equal(t, "mueller", fields["tenant"])
}
