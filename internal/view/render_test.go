package view

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/sitewerk/internal/content"
	"github.com/yanizio/sitewerk/internal/imageurl"
	"github.com/yanizio/sitewerk/internal/section"
)

func pageData() Data {
	hero := &section.Hero{Base: section.Base{K: "h1"}, Heading: "Dächer für Generationen", Image: section.Image{URL: "/uploads/hero.jpg"}}
	faq := &section.FAQ{Items: []section.QA{{Question: "Wie lange dauert eine Sanierung?", Answer: "Etwa zwei Wochen."}}}
	return Data{
		Site: &content.SiteData{Settings: content.Settings{
			Company: content.Company{Name: "Müller Bau GmbH", Phone: "+49 89 123456"},
			Menu:    []content.MenuItem{{Label: "Leistungen", Href: "/leistungen"}},
		}},
		Title:    "Start",
		Sections: section.Compose([]section.Section{hero, faq}, nil),
		Year:     2026,
	}
}

func TestRender_PageWithSections(t *testing.T) {
	e, err := New("", imageurl.New("https://cdn.sitewerk.de", 80))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, e.Render(&buf, "mueller", "page", pageData()))
	out := buf.String()

	assert.Contains(t, out, `<section class="hero" id="h1">`)
	assert.Contains(t, out, "Dächer für Generationen")
	assert.Contains(t, out, "https://cdn.sitewerk.de/uploads/hero.jpg?fm=webp")
	assert.Contains(t, out, "<summary>Wie lange dauert eine Sanierung?</summary>")
	assert.Contains(t, out, `href="/leistungen"`)
	assert.Contains(t, out, "&copy; 2026 Müller Bau GmbH")
	assert.NotContains(t, out, `id="kontakt"`, "no form without token")
}

func TestRender_TenantOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "mueller", "section"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mueller", "section", "hero.html"),
		[]byte(`{{ define "section/hero" }}<div class="custom-hero">{{ .Heading }}</div>{{ end }}`), 0o600))

	e, err := New(dir, imageurl.New("", 0))
	require.NoError(t, err)

	var a, b bytes.Buffer
	require.NoError(t, e.Render(&a, "mueller", "page", pageData()))
	require.NoError(t, e.Render(&b, "schulz", "page", pageData()))

	assert.Contains(t, a.String(), `<div class="custom-hero">`)
	assert.NotContains(t, b.String(), "custom-hero")
}

func TestRender_NotFoundHasNoTenantContent(t *testing.T) {
	e, err := New("", imageurl.New("", 0))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, e.Render(&buf, "", "notfound", nil))
	assert.Contains(t, buf.String(), "Seite nicht gefunden")
}
