// internal/tenant/entry.go
//
// Tenant aggregate and cache entry.
//
// Context
// -------
// A Tenant is the read-only description of one customer site: who it is,
// which hosts it answers on, where its content comes from, and which
// section types its pages may render.  The cache stores a pointer to the
// Tenant inside `entry`, along with a `lastSeen` UnixNano timestamp used by
// the evictor for idle and LRU eviction.
//
// Notes
// -----
//   - Tenants are immutable after load.  Handlers share the pointer.
//   - Oxford commas, two spaces after periods.
package tenant

import (
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/sitewerk/internal/section"
)

// DataSource selects the content chain of a tenant.
type DataSource string

const (
	// SourceCMS tries the CMS first and falls back to the static file.
	SourceCMS DataSource = "cms"
	// SourceStatic never queries the CMS for content.
	SourceStatic DataSource = "static"
)

//
// Cache entry
//

type entry struct {
	tenant   *Tenant
	lastSeen int64 // UnixNano
}

//
// Tenant aggregate
//

// Tenant is one customer site.
type Tenant struct {
	ID         string         `json:"id"                   koanf:"id"`
	Name       string         `json:"name"                 koanf:"name"`
	Domains    []string       `json:"domains,omitempty"    koanf:"domains"`
	DataSource DataSource     `json:"dataSource,omitempty" koanf:"data_source"`
	StaticFile string         `json:"staticFile,omitempty" koanf:"static_file"`
	Sections   []section.Type `json:"sections,omitempty"   koanf:"sections"`
	ForceHTTPS bool           `json:"forceHttps,omitempty" koanf:"force_https"`
}

// IsStatic reports whether content must come from the static file only.
func (t *Tenant) IsStatic() bool { return t.DataSource == SourceStatic }

// normalize fills defaults and canonicalises loaded values in place.
func (t *Tenant) normalize() {
	t.ID = strings.TrimSpace(t.ID)
	switch DataSource(strings.ToLower(string(t.DataSource))) {
	case SourceStatic:
		t.DataSource = SourceStatic
	default:
		t.DataSource = SourceCMS
	}
	for i, d := range t.Domains {
		t.Domains[i] = NormalizeHost(d)
	}
	// Unknown names stay in the allow-list.  Compose never matches them, so
	// a list of only unknown names renders nothing rather than everything.
	for i, s := range t.Sections {
		t.Sections[i] = section.Type(strings.TrimSpace(string(s)))
		if !t.Sections[i].Known() {
			zap.L().Warn("unknown section type in allow-list",
				zap.String("tenant", t.ID), zap.String("section", string(s)))
		}
	}
}
