package component

import (
	"errors"

	"github.com/yanizio/sitewerk/internal/auth"
	"github.com/yanizio/sitewerk/internal/cms"
	"github.com/yanizio/sitewerk/internal/config"
	"github.com/yanizio/sitewerk/internal/content"
	"github.com/yanizio/sitewerk/internal/contentcache"
	"github.com/yanizio/sitewerk/internal/gdpr"
	"github.com/yanizio/sitewerk/internal/imageurl"
	"github.com/yanizio/sitewerk/internal/inquiry"
	"github.com/yanizio/sitewerk/internal/message"
	"github.com/yanizio/sitewerk/internal/ratelimit"
	"github.com/yanizio/sitewerk/internal/tenant"
	"github.com/yanizio/sitewerk/internal/view"
)

// ErrUnavailable is returned by Init when a required service is absent.
var ErrUnavailable = errors.New("component: required service not configured")

// Deps holds the services shared by components.  Fields documented as
// optional are nil in static-only mode (no database configured).
type Deps struct {
	Config  *config.Config
	Content *content.Service
	Tenants *tenant.Cache
	Cache   *contentcache.Cache
	View    *view.Engine
	Images  *imageurl.Builder
	Limiter *ratelimit.Limiter
	Auth    *auth.Manager
	Queue   message.Queue

	FormTokens *inquiry.Tokens

	CMS       *cms.Store     // optional
	Inquiries *inquiry.Store // optional
	GDPR      *gdpr.Service  // optional
}
