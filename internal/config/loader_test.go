package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapResolver map[string]string

func (m mapResolver) Resolve(_ context.Context, ref string) (string, error) {
	if v, ok := m[ref]; ok {
		return v, nil
	}
	return "", errors.New("no such secret")
}

func writeRoot(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o600))
	t.Setenv(EnvPrefix+"ROOT", root)
	return root
}

const baseYAML = `
http:
  listen_addr: ":8080"
webhook:
  secret: vault:kv/sitewerk#webhook
auth:
  jwt_secret: 0123456789abcdef0123456789abcdef
cms:
  timeout: 2s
`

func TestLoad_LayersDefaultsAndSecrets(t *testing.T) {
	root := writeRoot(t, baseYAML)
	t.Setenv(EnvPrefix+"HTTP__LISTEN_ADDR", "127.0.0.1:9090")
	t.Setenv(EnvPrefix+"TENANCY__PATH_PREFIX", "/sites")

	cfg, err := Load(context.Background(), mapResolver{"kv/sitewerk#webhook": "s3cr3t-webhook-value"})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.HTTP.ListenAddr, "env beats yaml")
	assert.Equal(t, "/sites", cfg.Tenancy.PathPrefix)
	assert.Equal(t, "s3cr3t-webhook-value", cfg.Webhook.Secret)
	assert.Equal(t, 2*time.Second, cfg.CMS.Timeout)

	assert.Equal(t, 60*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 4096, cfg.Cache.MaxEntries)
	assert.Equal(t, "5-M", cfg.RateLimit.Rate)
	assert.Equal(t, 15*time.Minute, cfg.GDPR.TokenTTL)
	assert.Equal(t, "default.json", cfg.Static.DefaultFile)

	assert.Equal(t, root, cfg.Paths.Root)
	assert.Equal(t, filepath.Join(root, "data/static"), cfg.Abs(cfg.Static.Dir))
	assert.Same(t, cfg, Get())
}

func TestLoad_VaultWithoutResolver(t *testing.T) {
	writeRoot(t, baseYAML)
	_, err := Load(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoResolver)
}

func TestLoad_ValidationNamesKoanfKeys(t *testing.T) {
	writeRoot(t, `
webhook:
  secret: short
auth:
  jwt_secret: 0123456789abcdef0123456789abcdef
`)
	_, err := Load(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook.secret")
}

func TestLoad_RedisStoreNeedsAddr(t *testing.T) {
	writeRoot(t, `
webhook:
  secret: 0123456789abcdef
auth:
  jwt_secret: 0123456789abcdef0123456789abcdef
ratelimit:
  store: redis
`)
	_, err := Load(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.addr")
}
