// components/debug/debug.go
//
// Diagnostic endpoint that echoes what the service knows about a request:
// resolved tenant, content chain, parsed user-agent, client IP, and cache
// sizes.  Mounted only when `debug.enabled` is set.
package debug

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/sitewerk/internal/component"
	"github.com/yanizio/sitewerk/internal/requestinfo"
	"github.com/yanizio/sitewerk/internal/tenant"
)

// Path is where the endpoint is mounted on every tenant host.
const Path = "/_debug"

type Component struct {
	d *component.Deps
}

func (c *Component) Name() string           { return "debug" }
func (c *Component) Scope() component.Scope { return component.ScopeTenant }

func (c *Component) Init(d *component.Deps) error {
	if d.Config == nil || !d.Config.Debug.Enabled {
		return component.ErrUnavailable
	}
	c.d = d
	return nil
}

func (c *Component) Routes(r chi.Router) { r.Get(Path, c.handler) }

func init() { component.Register(&Component{}) }

// handler writes a JSON blob with selected context fields.
func (c *Component) handler(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromContext(r.Context())
	out := map[string]any{
		"host":   r.Host,
		"path":   r.URL.Path,
		"query":  r.URL.RawQuery,
		"tenant": t,
	}
	if info := requestinfo.FromContext(r.Context()); info != nil {
		out["request"] = info
	}
	if c.d.Content != nil && t != nil {
		var chain []string
		for _, s := range c.d.Content.Chain(t) {
			chain = append(chain, s.Name)
		}
		out["chain"] = chain
	}
	if c.d.Cache != nil {
		out["contentCacheEntries"] = c.d.Cache.Len()
	}
	if c.d.Tenants != nil {
		out["tenantCacheEntries"] = c.d.Tenants.Len()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
