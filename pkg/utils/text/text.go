// Package text provides normalization helpers for user-entered labels.
package text

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	titleCaser = cases.Title(language.English)

	separatorRe  = regexp.MustCompile(`[_-]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	notSlugRe    = regexp.MustCompile(`[^a-z0-9\s-]`)
	multiDashRe  = regexp.MustCompile(`-+`)
)

// TitleCase normalizes a label to Title Case with single spaces.
// Underscores and dashes are treated as word separators.
func TitleCase(input string) string {
	s := strings.TrimSpace(input)
	s = separatorRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	if s == "" {
		return ""
	}
	return titleCaser.String(strings.ToLower(s))
}

// Slugify converts a label to a lowercase dash-separated slug.
// Accents are stripped via NFKD decomposition, punctuation removed.
func Slugify(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, s)
	s = notSlugRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, "-")
	s = multiDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
