// Package imageurl builds image CDN URLs.
//
// Editors store asset paths ("/uploads/mueller/dach-01.jpg") or absolute
// URLs.  Paths are resolved against the CDN base and get resize
// parameters; absolute URLs on another host are returned unchanged.
//
//	b := imageurl.New("https://cdn.sitewerk.de", 80)
//	b.URL(img, imageurl.Opts{Width: 800, Format: "webp"})
//	// https://cdn.sitewerk.de/uploads/mueller/dach-01.jpg?fm=webp&q=80&w=800
package imageurl

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/yanizio/sitewerk/internal/section"
)

// Opts are the resize parameters understood by the CDN.
type Opts struct {
	Width  int
	Height int
	Format string // webp, avif, jpg; empty keeps the source format
	Fit    string // crop, max; empty is the CDN default
}

// Builder is safe for concurrent use.
type Builder struct {
	base    *url.URL
	quality int
}

// New returns a Builder for base.  An empty or invalid base yields a
// Builder that returns paths unchanged, which is what local development
// without a CDN wants.
func New(base string, quality int) *Builder {
	b := &Builder{quality: quality}
	if u, err := url.Parse(strings.TrimSuffix(base, "/")); err == nil && u.Host != "" {
		b.base = u
	}
	return b
}

// URL returns the CDN URL for img.
func (b *Builder) URL(img section.Image, o Opts) string {
	src := strings.TrimSpace(img.URL)
	if src == "" {
		return ""
	}
	u, err := url.Parse(src)
	if err != nil {
		return src
	}

	switch {
	case u.IsAbs() && (b.base == nil || u.Host != b.base.Host):
		return src
	case !u.IsAbs():
		if b.base == nil {
			return src
		}
		rel := *b.base
		rel.Path = b.base.Path + "/" + strings.TrimPrefix(u.Path, "/")
		u = &rel
	}

	q := u.Query()
	if o.Width > 0 {
		q.Set("w", strconv.Itoa(o.Width))
	}
	if o.Height > 0 {
		q.Set("h", strconv.Itoa(o.Height))
	}
	if o.Format != "" {
		q.Set("fm", o.Format)
	}
	if o.Fit != "" {
		q.Set("fit", o.Fit)
	}
	if b.quality > 0 {
		q.Set("q", strconv.Itoa(b.quality))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// SrcSet returns a srcset attribute value for widths.
func (b *Builder) SrcSet(img section.Image, format string, widths ...int) string {
	parts := make([]string, 0, len(widths))
	for _, w := range widths {
		s := b.URL(img, Opts{Width: w, Format: format})
		if s == "" {
			return ""
		}
		parts = append(parts, s+" "+strconv.Itoa(w)+"w")
	}
	return strings.Join(parts, ", ")
}
