// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page's
// <head> element.  It is scoped to a single render call.  The site
// component pushes the tenant's SEO data into the builder, then the base
// layout emits each slice where it belongs.
//
// Features
// --------
//   - SetTitle           single <title> tag (last call wins).
//   - Meta, Link         name/content and rel/href tags, deduplicated by key.
//   - Canonical, Robots  the two tags every tenant page carries.
//   - OpenGraph          og:* properties for link previews.
//   - JSONLD             values marshalled to JSON and wrapped in
//     <script type="application/ld+json">.
//   - Render helpers     concat methods that return template.HTML.
package head

import (
	"encoding/json"
	"html/template"
	"strings"
	"sync"
)

// Builder is safe for concurrent writes; a simple mutex is enough.
type Builder struct {
	mu sync.Mutex

	title  string
	metas  []string
	links  []string
	jsonLD []string

	// seen tracks keys for deduplication.
	seen map[string]struct{}
}

func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// ------------------------------------------------------------------
// Single-value helper
// ------------------------------------------------------------------

// SetTitle overrides the page <title>.  The last caller wins.
func (b *Builder) SetTitle(t string) {
	b.mu.Lock()
	b.title = t
	b.mu.Unlock()
}

// Title returns a fully formed <title> tag or an empty string.
func (b *Builder) Title() template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.title == "" {
		return ""
	}
	return template.HTML("<title>" + template.HTMLEscapeString(b.title) + "</title>")
}

// ------------------------------------------------------------------
// Tag helpers with deduplication
// ------------------------------------------------------------------

// Meta adds <meta name=... content=...>.  Empty content is skipped.
func (b *Builder) Meta(name, content string) {
	if content == "" {
		return
	}
	b.add("meta:"+name, &b.metas,
		`<meta name="`+esc(name)+`" content="`+esc(content)+`">`)
}

// Property adds <meta property=... content=...> (Open Graph).
func (b *Builder) Property(prop, content string) {
	if content == "" {
		return
	}
	b.add("prop:"+prop, &b.metas,
		`<meta property="`+esc(prop)+`" content="`+esc(content)+`">`)
}

// Link adds <link rel=... href=...>.
func (b *Builder) Link(rel, href string) {
	if href == "" {
		return
	}
	b.add("link:"+rel+":"+href, &b.links,
		`<link rel="`+esc(rel)+`" href="`+esc(href)+`">`)
}

func (b *Builder) Canonical(href string) { b.Link("canonical", href) }

// Robots emits noindex when asked; indexable pages carry no tag.
func (b *Builder) Robots(noIndex bool) {
	if noIndex {
		b.Meta("robots", "noindex, nofollow")
	}
}

// OpenGraph sets the preview properties.
func (b *Builder) OpenGraph(title, description, url, image, siteName string) {
	b.Property("og:type", "website")
	b.Property("og:title", title)
	b.Property("og:description", description)
	b.Property("og:url", url)
	b.Property("og:image", image)
	b.Property("og:site_name", siteName)
	b.Property("og:locale", "de_DE")
}

// JSONLD marshals v and stores it as a structured-data block.
// encoding/json escapes <, >, and & so the payload cannot close the
// surrounding script element.
func (b *Builder) JSONLD(v any) error {
	js, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.add("jsonld:"+string(js), &b.jsonLD, string(js))
	return nil
}

func (b *Builder) add(key string, tgt *[]string, tag string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	*tgt = append(*tgt, tag)
}

func esc(s string) string { return template.HTMLEscapeString(s) }

// ------------------------------------------------------------------
// Rendering helpers called from layout templates
// ------------------------------------------------------------------

func (b *Builder) Metas() template.HTML { return b.concat(b.metas) }
func (b *Builder) Links() template.HTML { return b.concat(b.links) }

// JSON returns all JSON-LD blocks wrapped in <script> tags.
func (b *Builder) JSON() template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()
	var sb strings.Builder
	for _, js := range b.jsonLD {
		sb.WriteString(`<script type="application/ld+json">`)
		sb.WriteString(js)
		sb.WriteString(`</script>`)
	}
	return template.HTML(sb.String())
}

// All renders title, metas, links, and JSON-LD in that order.
func (b *Builder) All() template.HTML {
	return b.Title() + b.Metas() + b.Links() + b.JSON()
}

// concat joins pre-escaped tags without a separator.
func (b *Builder) concat(sl []string) template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()
	return template.HTML(strings.Join(sl, ""))
}
