// Package genre normalizes free-form music genre labels into canonical slugs.
package genre

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches any non-alphanumeric character.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// Matches multiple hyphens.
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Slugify converts a label to a URL-safe slug.
// "Hip Hop" -> "hip-hop".
// "Música Électronique" -> "musica-electronique".
// "Drum & Bass" -> "drum-bass".
func Slugify(s string) string {
	// Decompose accented characters so the base letter survives.
	s = norm.NFKD.String(s)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}
