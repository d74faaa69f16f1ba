// internal/config/model.go
//
// Typed configuration model for Sitewerk.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   - optional `.env`                            – dotenv values,
//   - `conf/global.yaml`                         – primary static file,
//   - `SITEWERK_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client before unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Defaults are applied after unmarshal, then the struct is validated; the
// app fails fast if required fields are missing.
//
// Notes
// -----
//   - Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml`
//     tags unless configured otherwise.
//   - Durations are written as Go duration strings ("3s", "15m").
//   - The `Paths` block is filled at runtime; YAML must not try to set it.
//   - Oxford commas, two spaces after periods.  No em-dash.
package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr        string        `koanf:"listen_addr"         validate:"required,hostname_port"`
	ForceHTTPS        bool          `koanf:"force_https"`
	TrustProxy        bool          `koanf:"trust_proxy"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
}

//
// Log section
//

type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `koanf:"dir"`
}

//
// Database section
//

// Database holds the CMS database DSN and its secret.
//
// The DSN (user, host, schema, flags) is kept in YAML so operators can
// tweak it without touching Vault.  The password is stored in Vault and
// injected at runtime, keeping credentials out of flat files and git
// history.  An empty DSN runs the service in static-only mode: no CMS, no
// dashboard, no contact storage.
type Database struct {
	DSN             string        `koanf:"dsn"`
	Password        string        `koanf:"password"`
	MaxOpenConns    int           `koanf:"max_open_conns"    validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	Retries         int           `koanf:"retries"           validate:"gte=0,lte=10"`
	RetryBackoff    time.Duration `koanf:"retry_backoff"`
}

//
// Content sections
//

type CMS struct {
	Timeout time.Duration `koanf:"timeout"`
}

type Static struct {
	Dir         string `koanf:"dir"          validate:"required"`
	DefaultFile string `koanf:"default_file"`
}

type Tenancy struct {
	DirectoryFile  string        `koanf:"directory_file"`
	LocalhostAlias string        `koanf:"localhost_alias"`
	PathPrefix     string        `koanf:"path_prefix"     validate:"omitempty,startswith=/"`
	IdleTTL        time.Duration `koanf:"idle_ttl"`
	MaxEntries     int           `koanf:"max_entries"     validate:"gte=0"`
}

type Cache struct {
	TTL        time.Duration `koanf:"ttl"`
	MaxEntries int           `koanf:"max_entries" validate:"gte=1"`
	Channel    string        `koanf:"channel"`
}

//
// Infrastructure sections
//

// Redis is optional.  When Addr is empty the rate-limit store, GDPR tokens,
// and notification queue stay in process memory and cache invalidation is
// local only.
type Redis struct {
	Addr     string `koanf:"addr"     validate:"omitempty,hostname_port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"       validate:"gte=0"`
}

type RateLimit struct {
	Store  string `koanf:"store"  validate:"oneof=memory redis"`
	Rate   string `koanf:"rate"   validate:"required"`
	Prefix string `koanf:"prefix"`
}

type Webhook struct {
	Secret string `koanf:"secret" validate:"required,min=16"`
}

type Auth struct {
	JWTSecret string        `koanf:"jwt_secret" validate:"required,min=32"`
	Issuer    string        `koanf:"issuer"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type GDPR struct {
	TokenTTL time.Duration `koanf:"token_ttl"`
}

type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

type Image struct {
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`
	Quality int    `koanf:"quality"  validate:"gte=0,lte=100"`
}

type Debug struct {
	Enabled bool `koanf:"enabled"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or SITEWERK_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP      HTTP      `koanf:"http"`
	Log       Log       `koanf:"log"`
	Database  Database  `koanf:"database"`
	CMS       CMS       `koanf:"cms"`
	Static    Static    `koanf:"static"`
	Tenancy   Tenancy   `koanf:"tenancy"`
	Cache     Cache     `koanf:"cache"`
	Redis     Redis     `koanf:"redis"`
	RateLimit RateLimit `koanf:"ratelimit"`
	Webhook   Webhook   `koanf:"webhook"`
	Auth      Auth      `koanf:"auth"`
	GDPR      GDPR      `koanf:"gdpr"`
	GeoIP     GeoIP     `koanf:"geoip"`
	Image     Image     `koanf:"image"`
	Debug     Debug     `koanf:"debug"`
	Paths     Paths     `koanf:"-"` // not loaded from config files
}

// applyDefaults fills zero values.  Runs before validation.
func (c *Config) applyDefaults() {
	setDur := func(d *time.Duration, v time.Duration) {
		if *d == 0 {
			*d = v
		}
	}
	setInt := func(i *int, v int) {
		if *i == 0 {
			*i = v
		}
	}
	setStr := func(s *string, v string) {
		if *s == "" {
			*s = v
		}
	}

	setStr(&c.HTTP.ListenAddr, ":8080")
	setDur(&c.HTTP.ReadHeaderTimeout, 5*time.Second)
	setDur(&c.HTTP.ReadTimeout, 10*time.Second)
	setDur(&c.HTTP.WriteTimeout, 30*time.Second)
	setDur(&c.HTTP.IdleTimeout, 120*time.Second)

	setStr(&c.Log.Level, "info")
	setStr(&c.Log.Dir, "logs")

	setInt(&c.Database.MaxOpenConns, 15)
	setInt(&c.Database.MaxIdleConns, 5)
	setDur(&c.Database.ConnMaxLifetime, 30*time.Minute)
	setDur(&c.Database.RetryBackoff, 500*time.Millisecond)

	setDur(&c.CMS.Timeout, 3*time.Second)

	setStr(&c.Static.Dir, "data/static")
	setStr(&c.Static.DefaultFile, "default.json")

	setStr(&c.Tenancy.DirectoryFile, "conf/tenants.yaml")
	setDur(&c.Tenancy.IdleTTL, 30*time.Minute)
	setInt(&c.Tenancy.MaxEntries, 500)

	setDur(&c.Cache.TTL, 60*time.Second)
	setInt(&c.Cache.MaxEntries, 4096)
	setStr(&c.Cache.Channel, "sitewerk:invalidate")

	setStr(&c.RateLimit.Store, "memory")
	setStr(&c.RateLimit.Rate, "5-M")
	setStr(&c.RateLimit.Prefix, "sitewerk:ratelimit")

	setStr(&c.Auth.Issuer, "sitewerk")
	setDur(&c.Auth.TokenTTL, 12*time.Hour)

	setDur(&c.GDPR.TokenTTL, 15*time.Minute)

	setInt(&c.Image.Quality, 80)
}
