// internal/view/render.go
//
// Central view engine: embedded templates, per-tenant override chain,
// func-map injection, and an LRU of parsed *template.Template* sets.
//
// Public helpers
// --------------
//   - Render         write rendered HTML to an io.Writer.
//   - RenderSection  return template.HTML for one composed section.
//
// Lookup precedence (first hit wins):
//   1. <overrides>/<tenant-id>/*.html and section/*.html on disk
//   2. templates embedded in the binary
//
// Override files redefine named templates ({{ define "section/hero" }}),
// so a tenant can restyle one section without copying the rest.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/yanizio/sitewerk/internal/cache"
	"github.com/yanizio/sitewerk/internal/content"
	"github.com/yanizio/sitewerk/internal/imageurl"
	"github.com/yanizio/sitewerk/internal/section"
	"github.com/yanizio/sitewerk/internal/tenant"
)

//go:embed templates/*.html templates/section/*.html
var embedded embed.FS

// setCapacity bounds the parsed override sets kept in memory.
const setCapacity = 256

// Data is handed to every page template.
type Data struct {
	Head      template.HTML
	Site      *content.SiteData
	Tenant    *tenant.Tenant
	Title     string
	Sections  []section.Instruction
	Service   *content.ServiceItem
	Project   *content.Project
	FormToken string
	Year      int
}

// Engine renders pages.  Safe for concurrent use.
type Engine struct {
	base      *template.Template // parsed, never executed; clone source
	shared    *template.Template // base clone used when a tenant has no overrides
	overrides string
	img       *imageurl.Builder

	mu   sync.Mutex
	sets *cache.LRU[string, *template.Template]
}

// New parses the embedded templates.  overrides may be "" to disable
// tenant template overrides.
func New(overrides string, img *imageurl.Builder) (*Engine, error) {
	e := &Engine{
		overrides: overrides,
		img:       img,
		sets:      cache.New[string, *template.Template](setCapacity, nil),
	}
	base, err := template.New("sitewerk").Funcs(e.funcs(nil)).
		ParseFS(embedded, "templates/*.html", "templates/section/*.html")
	if err != nil {
		return nil, fmt.Errorf("view: parse embedded templates: %w", err)
	}
	e.base = base
	if e.shared, err = e.clone(nil); err != nil {
		return nil, err
	}
	return e, nil
}

// Render executes the named template for tenantID into w.  Output is
// buffered so a failing template never leaves a half-written page.
func (e *Engine) Render(w io.Writer, tenantID, name string, data any) error {
	t, err := e.set(tenantID)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

// Invalidate drops the parsed override set of tenantID.
func (e *Engine) Invalidate(tenantID string) {
	e.mu.Lock()
	e.sets.Remove(tenantID)
	e.mu.Unlock()
}

//
// internal: set
//

// set returns the template set for tenantID: the shared set, or a clone
// with the tenant's override files parsed on top.
func (e *Engine) set(tenantID string) (*template.Template, error) {
	if e.overrides == "" || tenantID == "" {
		return e.shared, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.sets.Get(tenantID); ok {
		return t, nil
	}

	dir := filepath.Join(e.overrides, tenantID)
	var files []string
	for _, pat := range []string{"*.html", filepath.Join("section", "*.html")} {
		m, _ := filepath.Glob(filepath.Join(dir, pat))
		files = append(files, m...)
	}

	t := e.shared
	if len(files) > 0 {
		var err error
		if t, err = e.clone(files); err != nil {
			return nil, fmt.Errorf("view: parse overrides for %s: %w", tenantID, err)
		}
		zap.L().Debug("template overrides loaded", zap.String("tenant", tenantID), zap.Int("files", len(files)))
	}
	e.sets.Add(tenantID, t)
	return t, nil
}

// clone copies the base set, parses files on top, and binds renderSection
// to the copy.
func (e *Engine) clone(files []string) (*template.Template, error) {
	t, err := e.base.Clone()
	if err != nil {
		return nil, err
	}
	if len(files) > 0 {
		if _, err := t.ParseFiles(files...); err != nil {
			return nil, err
		}
	}
	return t.Funcs(e.funcs(t)), nil
}

//
// func-map
//

// funcs builds the helpers.  self is the set renderSection executes in;
// nil during the initial parse, where only the names matter.
func (e *Engine) funcs(self *template.Template) template.FuncMap {
	return template.FuncMap{
		"dict": dict,
		"img": func(img section.Image, width int) string {
			return e.img.URL(img, imageurl.Opts{Width: width, Format: "webp"})
		},
		"srcset": func(img section.Image, widths ...int) string {
			return e.img.SrcSet(img, "webp", widths...)
		},
		"json": func(v any) (string, error) {
			b, err := json.MarshalIndent(v, "", "  ")
			return string(b), err
		},
		"renderSection": func(in section.Instruction) template.HTML {
			if self == nil {
				return ""
			}
			return renderSection(self, in)
		},
	}
}

// renderSection executes in.Template.  Errors are hidden behind an HTML
// comment so visitors never see them.
func renderSection(t *template.Template, in section.Instruction) template.HTML {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, in.Template, in.Data); err != nil {
		zap.L().Warn("section render failed", zap.String("template", in.Template), zap.Error(err))
		return template.HTML("<!-- section unavailable -->")
	}
	return template.HTML(buf.String())
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}

// NotFound renders the neutral not-found page with status 404.  It shows
// no tenant content, so it is also the answer for unknown hosts.
func (e *Engine) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusNotFound)
		if err := e.Render(w, "", "notfound", nil); err != nil {
			zap.L().Error("render not-found page", zap.Error(err))
		}
	})
}
