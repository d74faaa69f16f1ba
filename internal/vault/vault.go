// internal/vault/vault.go
//
// Vault secret source for Sitewerk.
//
// Context
// -------
// Sitewerk reads three secrets at boot: the CMS database password, the
// revalidation webhook secret, and the dashboard JWT signing key.  Config
// values of the form `vault:<mount>/<path>#<key>` are handed to Resolve,
// which reads the KV-v2 secret at <mount>/<path> and returns <key>.
//
// Whole secrets are cached, not single keys, so the three lookups above
// cost one round trip when they share a path.  Concurrent lookups of the
// same path are collapsed with singleflight.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx)                  // only if VAULT_ADDR is set.
//  2. cfg, err := config.Load(ctx, cli)           // resolves vault: refs.
//
// Notes
// -----
//   - The token is kept alive by a LifetimeWatcher until ctx ends.
//   - Oxford commas, two spaces after periods.
package vault

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/sitewerk/internal/cache"
)

const (
	// SecretTTL is how long a fetched secret is served from memory.
	SecretTTL = 10 * time.Minute

	maxSecrets   = 64
	renewRetry   = 30 * time.Second
	renewIdle    = time.Hour
	renewRewatch = 15 * time.Second
)

// Client is safe for concurrent use.
type Client struct {
	api *vault.Client
	log *zap.SugaredLogger
	now func() time.Time

	flight singleflight.Group

	mu      sync.Mutex
	secrets *cache.LRU[string, secret]
}

type secret struct {
	data map[string]any
	exp  time.Time
}

// New builds a client from VAULT_ADDR and VAULT_TOKEN and keeps the token
// renewed until ctx is cancelled.
func New(ctx context.Context) (*Client, error) {
	cfg := vault.DefaultConfig()
	if cfg.Error != nil {
		return nil, fmt.Errorf("vault env cfg: %w", cfg.Error)
	}
	c, err := NewWithConfig(cfg, os.Getenv("VAULT_TOKEN"))
	if err != nil {
		return nil, err
	}
	go c.keepAlive(ctx)
	return c, nil
}

// NewWithConfig builds a client without token renewal.
func NewWithConfig(cfg *vault.Config, token string) (*Client, error) {
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if token != "" {
		api.SetToken(token)
	}
	return &Client{
		api:     api,
		log:     zap.S().Named("vault"),
		now:     time.Now,
		secrets: cache.New[string, secret](maxSecrets, nil),
	}, nil
}

// Resolve returns the value named by ref ("mount/path#key").  It
// implements config.SecretResolver.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	path, key, err := SplitRef(ref)
	if err != nil {
		return "", err
	}
	data, err := c.read(ctx, path)
	if err != nil {
		return "", err
	}
	raw, ok := data[key]
	if !ok {
		return "", fmt.Errorf("vault: key %q not found in %s", key, path)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("vault: %s#%s is not a string", path, key)
	}
	return s, nil
}

// read returns the KV-v2 data at path, from memory while fresh.
func (c *Client) read(ctx context.Context, path string) (map[string]any, error) {
	c.mu.Lock()
	if s, ok := c.secrets.Get(path); ok && c.now().Before(s.exp) {
		c.mu.Unlock()
		return s.data, nil
	}
	c.mu.Unlock()

	v, err, _ := c.flight.Do(path, func() (any, error) {
		mount, rel := splitMount(path)
		kv, err := c.api.KVv2(mount).Get(ctx, rel)
		if err != nil {
			return nil, fmt.Errorf("vault get %s: %w", path, err)
		}
		c.mu.Lock()
		c.secrets.Add(path, secret{data: kv.Data, exp: c.now().Add(SecretTTL)})
		c.mu.Unlock()
		return kv.Data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

//
// Token renewal
//

func (c *Client) keepAlive(ctx context.Context) {
	for ctx.Err() == nil {
		sleep(ctx, c.watchToken(ctx))
	}
}

// watchToken renews the token until the watcher stops and returns how long
// to wait before trying again.
func (c *Client) watchToken(ctx context.Context) time.Duration {
	sec, err := c.api.Auth().Token().RenewSelfWithContext(ctx, 0)
	if err != nil {
		c.log.Warnw("token renew failed", "err", err)
		return renewRetry
	}
	if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
		c.log.Infow("token is not renewable")
		return renewIdle
	}

	w, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{Secret: sec})
	if err != nil {
		c.log.Warnw("lifetime watcher", "err", err)
		return renewRetry
	}
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0
		case err := <-w.DoneCh():
			if err != nil {
				c.log.Warnw("token renewal stopped", "err", err)
			}
			return renewRewatch
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.log.Debugw("token renewed", "ttl_s", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

//
// Helpers
//

// SplitRef parses "mount/path#key".
func SplitRef(ref string) (path, key string, err error) {
	path, key, ok := strings.Cut(ref, "#")
	if !ok || path == "" || key == "" || !strings.Contains(path, "/") {
		return "", "", fmt.Errorf("vault: malformed reference %q, want mount/path#key", ref)
	}
	return path, key, nil
}

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return mount, rel
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
