// internal/routing/slug.go
//
// Slug and path helpers for dashboard document creation.
//
// • MakeSlug(title) converts arbitrary text into a URL-safe slug restricted
//   to ASCII a-z, 0-9 and "-".
// • BuildPath(parent, slug) joins parent path + slug with a single "/" and
//   guarantees exactly one leading slash.
//
// Rules (MakeSlug)
// ----------------
// 1. Lower-case everything.
// 2. Transliterate German letters: ä→ae, ö→oe, ü→ue, ß→ss.
// 3. Convert any run of other non-[a-z0-9] characters to one "-".  That
//    strips spaces, punctuation, emoji, and remaining non-ASCII.
// 4. Trim leading / trailing "-".
// 5. If the result is empty, return "seite".
//
// Notes
// -----
// • Slugs are max 100 bytes; callers may truncate earlier if they prefer.
// • ValidSlug is the check applied to slugs supplied by editors.

package routing

import (
	"strings"
)

var umlauts = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")

// MakeSlug converts title → lower-kebab ASCII.
func MakeSlug(title string) string {
	src := umlauts.Replace(strings.ToLower(title))

	var b strings.Builder
	b.Grow(len(src))

	lastWasDash := false
	for _, r := range src {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasDash = false
		default:
			if !lastWasDash {
				b.WriteRune('-')
				lastWasDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "seite"
	}
	if len(slug) > 100 {
		slug = strings.TrimRight(slug[:100], "-")
	}
	return slug
}

// ValidSlug reports whether s is already in MakeSlug form.
func ValidSlug(s string) bool {
	return s != "" && len(s) <= 100 && MakeSlug(s) == s
}

// BuildPath joins parent + slug ensuring exactly one leading slash and no
// duplicate separators.
func BuildPath(parent, slug string) string {
	parent = strings.Trim(parent, "/")
	slug = strings.Trim(slug, "/")

	switch {
	case parent == "" && slug == "":
		return "/"
	case parent == "":
		return "/" + slug
	case slug == "":
		return "/" + parent
	default:
		return "/" + parent + "/" + slug
	}
}
