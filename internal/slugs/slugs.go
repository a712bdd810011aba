// Package slugs turns chapter titles into file names and anchors.
//
// There are two strategies:
//   - Anchor slugs keep letters of any script and are used for in-document
//     links in exported markdown.
//   - File slugs go through gosimple/slug, which transliterates to ASCII, and
//     are used for exported file names.
package slugs

import (
	"fmt"
	"strings"
	"unicode"

	goslug "github.com/gosimple/slug"
)

// AnchorSlug converts a heading text to a fragment identifier.
func AnchorSlug(text string) string {
	var result strings.Builder
	prevDash := false

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			result.WriteRune(r)
			prevDash = false
		case r == ' ' || r == '-' || r == '_' || r == ':':
			if !prevDash && result.Len() > 0 {
				result.WriteRune('-')
				prevDash = true
			}
		}
	}

	return strings.TrimSuffix(result.String(), "-")
}

// FileSlug converts a chapter title to a file name component. Titles that
// slug to nothing fall back to fallback.
func FileSlug(title, fallback string) string {
	if slugged := goslug.Make(title); slugged != "" {
		return slugged
	}
	return fallback
}

// Unique returns base, or base with the lowest free "-N" suffix, and marks
// the result as taken.
func Unique(base string, taken map[string]bool) string {
	name := base
	for n := 2; taken[name]; n++ {
		name = fmt.Sprintf("%s-%d", base, n)
	}
	taken[name] = true
	return name
}
