// Package htmlutil reduces user-supplied HTML fragments to plain text.
// Book descriptions are stored and served as text; markup in the upload form
// is stripped rather than escaped.
package htmlutil

import (
	"html"
	"regexp"
	"strings"
)

var (
	// breakRE matches tags that end a visual block: these become newlines so
	// paragraph structure survives stripping.
	breakRE = regexp.MustCompile(`(?i)<(?:br\s*/?|/p|/div|/li|/h[1-6])\s*>`)
	tagRE   = regexp.MustCompile(`<[^>]*>`)
	spaceRE = regexp.MustCompile(`[ \t]{2,}`)
	blankRE = regexp.MustCompile(`\n{3,}`)
)

// StripTags removes all HTML markup from a string. Block-level closers and
// line breaks turn into newlines, remaining tags are dropped, entities are
// decoded, and whitespace is normalized.
func StripTags(s string) string {
	if s == "" {
		return ""
	}

	s = breakRE.ReplaceAllString(s, "\n")
	s = tagRE.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = spaceRE.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankRE.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}
