// cmd/web/main.go
//
// Sitewerk – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Console logger for early boot, then the rotating file logger once
//     the config names its directory (tees to console in a TTY).
//
//  2. Optional Vault client (VAULT_ADDR set) resolves `vault:` values
//     while the config loads.
//
//  3. Optional CMS database (database.dsn set).  Without it the service
//     runs static-only: no dashboard, no GDPR, no stored inquiries.
//
//  4. Optional Redis (redis.addr set) for cache invalidation fan-out, the
//     rate-limit store, GDPR tokens, and the mail queue.
//
//  5. Tenant cache, content cache, content service, view engine.
//
//  6. Router:
//
//     • global middleware         – access log, security headers,
//     ForceHTTPS, request info, request-scoped content memo
//     • /metrics                  – Prometheus
//     • global components         – webhook, dashboard, gdpr
//     • everything else           – tenant middleware → tenant components
//
//  7. Serve until SIGINT/SIGTERM, then drain.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yanizio/sitewerk/internal/auth"
	"github.com/yanizio/sitewerk/internal/cms"
	"github.com/yanizio/sitewerk/internal/component"
	"github.com/yanizio/sitewerk/internal/config"
	"github.com/yanizio/sitewerk/internal/content"
	"github.com/yanizio/sitewerk/internal/contentcache"
	"github.com/yanizio/sitewerk/internal/database"
	"github.com/yanizio/sitewerk/internal/gdpr"
	"github.com/yanizio/sitewerk/internal/imageurl"
	"github.com/yanizio/sitewerk/internal/inquiry"
	"github.com/yanizio/sitewerk/internal/logger"
	"github.com/yanizio/sitewerk/internal/message"
	"github.com/yanizio/sitewerk/internal/middleware"
	"github.com/yanizio/sitewerk/internal/ratelimit"
	"github.com/yanizio/sitewerk/internal/requestinfo"
	"github.com/yanizio/sitewerk/internal/server"
	"github.com/yanizio/sitewerk/internal/static"
	"github.com/yanizio/sitewerk/internal/tenant"
	"github.com/yanizio/sitewerk/internal/vault"
	"github.com/yanizio/sitewerk/internal/view"

	_ "github.com/yanizio/sitewerk/components/contact"
	_ "github.com/yanizio/sitewerk/components/dashboard"
	_ "github.com/yanizio/sitewerk/components/debug"
	_ "github.com/yanizio/sitewerk/components/gdpr"
	_ "github.com/yanizio/sitewerk/components/site"
	_ "github.com/yanizio/sitewerk/components/webhook"
)

// Redis keys owned by this binary.
const (
	mailQueueKey    = "sitewerk:mail"
	gdprTokenPrefix = "sitewerk:gdpr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		zap.S().Errorw("sitewerk stopped", "err", err)
		_ = zap.L().Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	//
	// ── 1.  Early logger, Vault, config ─────────────────────────────────
	//
	boot, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("boot logger: %v", err)
	}
	zap.ReplaceGlobals(boot)

	var secrets config.SecretResolver
	if os.Getenv("VAULT_ADDR") != "" {
		vc, err := vault.New(ctx)
		if err != nil {
			return err
		}
		secrets = vc
	}

	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		return err
	}

	logOut, err := logger.New(cfg.Abs(cfg.Log.Dir), cfg.Log.Level, logger.IsTTY())
	if err != nil {
		return err
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 2.  Optional infrastructure ─────────────────────────────────────
	//
	var db *sqlx.DB
	if cfg.Database.DSN != "" {
		dsn, err := database.WithPassword(cfg.Database.DSN, cfg.Database.Password)
		if err != nil {
			return err
		}
		db, err = database.OpenWithOptions(ctx, dsn, database.Options{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			Retries:         cfg.Database.Retries,
			RetryBackoff:    cfg.Database.RetryBackoff,
		})
		if err != nil {
			return err
		}
		defer db.Close()
		logOut.Infow("cms database online")
	} else {
		logOut.Warnw("no database configured, running static-only")
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		defer rdb.Close()
		logOut.Infow("redis online", "addr", cfg.Redis.Addr)
	}

	var geo *requestinfo.GeoDB
	if cfg.GeoIP.DBPath != "" {
		if geo, err = requestinfo.OpenGeo(cfg.Abs(cfg.GeoIP.DBPath)); err != nil {
			logOut.Warnw("geoip disabled", "err", err)
			geo = nil
		} else {
			defer geo.Close()
		}
	}

	//
	// ── 3.  Tenants and content ─────────────────────────────────────────
	//
	var store *cms.Store
	var querier cms.Querier
	if db != nil {
		store = cms.NewStore(db, cfg.CMS.Timeout)
		querier = store
	}

	dir, err := tenant.LoadDirectory(cfg.Abs(cfg.Tenancy.DirectoryFile))
	if err != nil {
		return err
	}
	logOut.Infow("tenant directory loaded", "tenants", dir.Len())

	tenants := tenant.NewCache(&tenant.Resolver{
		CMS:            querier,
		Directory:      dir,
		LocalhostAlias: cfg.Tenancy.LocalhostAlias,
	}, cfg.Tenancy.IdleTTL, cfg.Tenancy.MaxEntries)
	defer tenants.Close()

	var cacheOpts []contentcache.Option
	var bus *contentcache.RedisBus
	if rdb != nil {
		bus = contentcache.NewRedisBus(rdb, cfg.Cache.Channel)
		cacheOpts = append(cacheOpts, contentcache.WithBus(bus))
	}
	cc := contentcache.New(cfg.Cache.MaxEntries, cacheOpts...)
	if bus != nil {
		if err := bus.Listen(ctx, cc); err != nil {
			return err
		}
	}

	images := imageurl.New(cfg.Image.BaseURL, cfg.Image.Quality)
	engine, err := view.New(cfg.Abs("templates"), images)
	if err != nil {
		return err
	}

	// Tenant-wide purges also drop the resolved tenant and its template set.
	cc.OnInvalidate(func(tags []string) {
		for _, t := range tags {
			if id, ok := strings.CutPrefix(t, "tenant:"); ok {
				tenants.Forget(id)
				engine.Invalidate(id)
			}
		}
	})

	svc := &content.Service{
		Tenants:     tenants,
		CMS:         querier,
		Static:      static.New(cfg.Abs(cfg.Static.Dir)),
		Cache:       cc,
		TTL:         cfg.Cache.TTL,
		DefaultFile: cfg.Static.DefaultFile,
	}

	//
	// ── 4.  Shared services ─────────────────────────────────────────────
	//
	var limitClient *redis.Client
	if cfg.RateLimit.Store == "redis" {
		limitClient = rdb
	}
	limitStore, err := ratelimit.NewStore(limitClient, cfg.RateLimit.Prefix)
	if err != nil {
		return err
	}

	var queue message.Queue = message.LogQueue{}
	var gdprTokens gdpr.TokenStore = gdpr.NewMemoryTokens()
	if rdb != nil {
		queue = message.NewRedisQueue(rdb, mailQueueKey)
		gdprTokens = gdpr.NewRedisTokens(rdb, gdprTokenPrefix)
	}

	deps := &component.Deps{
		Config:     cfg,
		Content:    svc,
		Tenants:    tenants,
		Cache:      cc,
		View:       engine,
		Images:     images,
		Limiter:    ratelimit.New(limitStore, cfg.HTTP.TrustProxy),
		Auth:       auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL),
		Queue:      queue,
		FormTokens: inquiry.NewTokens(cfg.Auth.JWTSecret),
	}
	if store != nil {
		deps.CMS = store
		deps.Inquiries = inquiry.NewStore(db)
		deps.GDPR = &gdpr.Service{
			DB:        db,
			Documents: store,
			Inquiries: deps.Inquiries,
			Tokens:    gdprTokens,
			TokenTTL:  cfg.GDPR.TokenTTL,
			Cache:     cc,
		}
	}

	//
	// ── 5.  Router ──────────────────────────────────────────────────────
	//
	notFound := engine.NotFound()

	root := chi.NewRouter()
	root.Use(
		middleware.AccessLog(zap.L().Named("access")),
		middleware.Security(cfg.Image.BaseURL),
		middleware.ForceHTTPS(tenants, cfg.HTTP.ForceHTTPS, cfg.HTTP.TrustProxy),
		(&requestinfo.Enricher{Geo: geo, TrustProxy: cfg.HTTP.TrustProxy}).Handler,
		contentcache.RequestScope,
	)
	root.Handle("/metrics", promhttp.Handler())

	site := chi.NewRouter()
	site.Use(tenant.Middleware(tenants, cfg.Tenancy.PathPrefix, notFound), middleware.Probe)
	site.NotFound(notFound.ServeHTTP)

	for _, c := range component.All() {
		if err := c.Init(deps); err != nil {
			if errors.Is(err, component.ErrUnavailable) {
				logOut.Infow("component disabled", "component", c.Name())
				continue
			}
			return err
		}
		if c.Scope() == component.ScopeGlobal {
			c.Routes(root)
		} else {
			c.Routes(site)
		}
		logOut.Infow("component online", "component", c.Name())
	}
	root.Mount("/", site)

	//
	// ── 6.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP, root)
	if err := server.Run(ctx, srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logOut.Infow("sitewerk stopped cleanly")
	return nil
}
