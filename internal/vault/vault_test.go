package vault

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRef(t *testing.T) {
	path, key, err := SplitRef("kv/sitewerk/prod#webhook_secret")
	require.NoError(t, err)
	assert.Equal(t, "kv/sitewerk/prod", path)
	assert.Equal(t, "webhook_secret", key)

	for _, bad := range []string{"", "kv/sitewerk", "kv#key", "#key", "kv/x#"} {
		_, _, err := SplitRef(bad)
		assert.Error(t, err, "ref %q", bad)
	}
}

func TestSplitMount(t *testing.T) {
	m, rel := splitMount("kv/sitewerk/prod")
	assert.Equal(t, "kv", m)
	assert.Equal(t, "sitewerk/prod", rel)
}

// kvServer answers KV-v2 reads of kv/sitewerk/prod and counts them.
func kvServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/kv/data/sitewerk/prod" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "test-token", r.Header.Get("X-Vault-Token"))
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{
		  "data":{"webhook":"s3cr3t-webhook","jwt_secret":"0123456789abcdef0123456789abcdef","port":8080},
		  "metadata":{"created_time":"2026-01-02T10:00:00Z","deletion_time":"","destroyed":false,"version":3}}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, addr string) *Client {
	t.Helper()
	cfg := vault.DefaultConfig()
	cfg.Address = addr
	cfg.MaxRetries = 0
	c, err := NewWithConfig(cfg, "test-token")
	require.NoError(t, err)
	return c
}

func TestResolve_ReadsKVAndCachesWholeSecret(t *testing.T) {
	var hits atomic.Int32
	c := newClient(t, kvServer(t, &hits).URL)
	ctx := context.Background()

	v, err := c.Resolve(ctx, "kv/sitewerk/prod#webhook")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t-webhook", v)

	v, err = c.Resolve(ctx, "kv/sitewerk/prod#jwt_secret")
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", v)
	assert.EqualValues(t, 1, hits.Load(), "second key served from the cached secret")

	_, err = c.Resolve(ctx, "kv/sitewerk/prod#missing")
	assert.ErrorContains(t, err, `key "missing" not found`)

	_, err = c.Resolve(ctx, "kv/sitewerk/prod#port")
	assert.ErrorContains(t, err, "is not a string")
}

func TestResolve_RefetchesAfterTTL(t *testing.T) {
	var hits atomic.Int32
	c := newClient(t, kvServer(t, &hits).URL)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.Resolve(context.Background(), "kv/sitewerk/prod#webhook")
	require.NoError(t, err)

	now = now.Add(SecretTTL + time.Second)
	_, err = c.Resolve(context.Background(), "kv/sitewerk/prod#webhook")
	require.NoError(t, err)
	assert.EqualValues(t, 2, hits.Load())
}

func TestResolve_MissingSecret(t *testing.T) {
	var hits atomic.Int32
	c := newClient(t, kvServer(t, &hits).URL)
	_, err := c.Resolve(context.Background(), "kv/other/path#key")
	assert.Error(t, err)
}
