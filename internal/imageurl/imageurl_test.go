package imageurl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yanizio/sitewerk/internal/section"
)

func TestURL(t *testing.T) {
	b := New("https://cdn.sitewerk.de/", 80)

	assert.Equal(t,
		"https://cdn.sitewerk.de/uploads/mueller/dach-01.jpg?fm=webp&q=80&w=800",
		b.URL(section.Image{URL: "/uploads/mueller/dach-01.jpg"}, Opts{Width: 800, Format: "webp"}))

	assert.Equal(t,
		"https://cdn.sitewerk.de/a.jpg?fit=crop&h=300&q=80&w=400",
		b.URL(section.Image{URL: "https://cdn.sitewerk.de/a.jpg"}, Opts{Width: 400, Height: 300, Fit: "crop"}))

	ext := "https://images.example.org/x.png"
	assert.Equal(t, ext, b.URL(section.Image{URL: ext}, Opts{Width: 100}), "foreign host untouched")
	assert.Empty(t, b.URL(section.Image{}, Opts{}))
}

func TestURL_NoCDN(t *testing.T) {
	b := New("", 80)
	assert.Equal(t, "/uploads/a.jpg", b.URL(section.Image{URL: "/uploads/a.jpg"}, Opts{Width: 100}))
}

func TestSrcSet(t *testing.T) {
	b := New("https://cdn.sitewerk.de", 0)
	assert.Equal(t,
		"https://cdn.sitewerk.de/a.jpg?w=400 400w, https://cdn.sitewerk.de/a.jpg?w=800 800w",
		b.SrcSet(section.Image{URL: "a.jpg"}, "", 400, 800))
}
