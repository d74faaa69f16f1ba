// components/webhook/webhook.go
//
// CMS publish webhook.
//
// Routes (global scope)
// ---------------------
//
//	POST /api/revalidate   {"_type": "page", "tenantId": "mueller"}
//
// The shared secret in `X-Revalidate-Secret` is checked before the body is
// read; a missing or wrong secret is a 401 and nothing else happens.  A
// valid call maps the document type to cache tags and drops them locally
// and, through the Redis bus, on every peer.
//
//------------------------------------------------------------------------------

package webhook

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/sitewerk/internal/component"
	"github.com/yanizio/sitewerk/internal/content"
	"github.com/yanizio/sitewerk/internal/contentcache"
	"github.com/yanizio/sitewerk/internal/httpapi"
	"github.com/yanizio/sitewerk/internal/metrics"
)

// SecretHeader carries the shared webhook secret.
const SecretHeader = "X-Revalidate-Secret"

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component handles publish notifications.
type Component struct {
	secret [sha256.Size]byte
	cache  *contentcache.Cache
}

type payload struct {
	Type     string `json:"_type"    validate:"required"`
	TenantID string `json:"tenantId" validate:"required"`
}

type response struct {
	Revalidated bool     `json:"revalidated"`
	Tags        []string `json:"tags"`
	Entries     int      `json:"entries"`
}

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string           { return "webhook" }
func (c *Component) Scope() component.Scope { return component.ScopeGlobal }

func (c *Component) Init(d *component.Deps) error {
	if d.Cache == nil || d.Config == nil || d.Config.Webhook.Secret == "" {
		return component.ErrUnavailable
	}
	c.secret = sha256.Sum256([]byte(d.Config.Webhook.Secret))
	c.cache = d.Cache
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Post("/api/revalidate", c.handleRevalidate)
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	if !c.authorized(r.Header.Get(SecretHeader)) {
		metrics.WebhookTotal.WithLabelValues("unauthorized").Inc()
		_ = httpapi.WriteStatus(w, http.StatusUnauthorized)
		return
	}

	// CMS payloads carry more fields than we read; unknown keys are fine.
	var p payload
	if err := json.NewDecoder(io.LimitReader(r.Body, httpapi.MaxBody)).Decode(&p); err != nil {
		metrics.WebhookTotal.WithLabelValues("bad_request").Inc()
		_ = httpapi.WriteError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}
	p.Type, p.TenantID = strings.TrimSpace(p.Type), strings.TrimSpace(p.TenantID)
	if err := httpapi.Validate(&p); err != nil {
		metrics.WebhookTotal.WithLabelValues("bad_request").Inc()
		httpapi.Respond(w, err)
		return
	}

	tags := content.TagsFor(p.Type, p.TenantID)
	n := c.cache.InvalidateTags(r.Context(), tags...)
	metrics.WebhookTotal.WithLabelValues("ok").Inc()
	zap.L().Info("revalidated",
		zap.String("tenant", p.TenantID), zap.String("type", p.Type),
		zap.Strings("tags", tags), zap.Int("entries", n))

	_ = httpapi.WriteJSON(w, http.StatusOK, response{Revalidated: true, Tags: tags, Entries: n})
}

// authorized compares digests so neither content nor length of the
// configured secret leaks through timing.
func (c *Component) authorized(got string) bool {
	if got == "" {
		return false
	}
	sum := sha256.Sum256([]byte(got))
	return subtle.ConstantTimeCompare(sum[:], c.secret[:]) == 1
}
