package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/sitewerk/internal/component"
	"github.com/yanizio/sitewerk/internal/config"
	"github.com/yanizio/sitewerk/internal/contentcache"
)

const secret = "0123456789abcdef"

func setup(t *testing.T) (http.Handler, *contentcache.Cache) {
	t.Helper()
	cc := contentcache.New(16)
	fill := func(key string, tags ...string) {
		_, err := cc.GetOrCompute(context.Background(), key, func(context.Context) ([]byte, error) {
			return []byte(`{}`), nil
		}, time.Hour, tags)
		require.NoError(t, err)
	}
	fill("mueller-home", "tenant:mueller", "page:mueller", "page:mueller:home")
	fill("mueller-site", "tenant:mueller", "site:mueller")
	fill("schmidt-home", "tenant:schmidt", "page:schmidt", "page:schmidt:home")

	cfg := &config.Config{}
	cfg.Webhook.Secret = secret

	c := &Component{}
	require.NoError(t, c.Init(&component.Deps{Config: cfg, Cache: cc}))
	r := chi.NewRouter()
	c.Routes(r)
	return r, cc
}

func post(h http.Handler, hdr, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/revalidate", strings.NewReader(body))
	if hdr != "" {
		req.Header.Set(SecretHeader, hdr)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRevalidate_WrongSecretHasNoEffect(t *testing.T) {
	h, cc := setup(t)
	for _, hdr := range []string{"", "nope", secret + "x"} {
		rec := post(h, hdr, `{"_type":"page","tenantId":"mueller"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", hdr)
	}
	assert.Equal(t, 3, cc.Len())
}

func TestRevalidate_MalformedBody(t *testing.T) {
	h, cc := setup(t)
	for _, body := range []string{`{`, `{"_type":"page"}`, `{"tenantId":"mueller"}`, `[]`} {
		rec := post(h, secret, body)
		assert.Contains(t, []int{http.StatusBadRequest, http.StatusUnprocessableEntity}, rec.Code, "body %s", body)
	}
	assert.Equal(t, 3, cc.Len())
}

func TestRevalidate_DropsTenantTags(t *testing.T) {
	h, cc := setup(t)
	rec := post(h, secret, `{"_type":"page","tenantId":"mueller","_id":"doc-1","slug":"home"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.True(t, out.Revalidated)
	assert.Equal(t, []string{"page:mueller", "site:mueller"}, out.Tags)
	assert.Equal(t, 2, out.Entries)
	assert.Equal(t, 1, cc.Len(), "other tenant untouched")
}

func TestRevalidate_UnknownTypeDropsTenant(t *testing.T) {
	h, cc := setup(t)
	rec := post(h, secret, `{"_type":"tenant","tenantId":"schmidt"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, cc.Len())
}

func TestInit_NeedsSecret(t *testing.T) {
	c := &Component{}
	err := c.Init(&component.Deps{Config: &config.Config{}, Cache: contentcache.New(1)})
	assert.ErrorIs(t, err, component.ErrUnavailable)
}
