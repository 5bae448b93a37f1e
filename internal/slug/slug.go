// Package slug turns human-readable titles into URL-safe tokens.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Make converts s into a lowercase, hyphen-delimited token made only of
// [a-z0-9-]. Accents are folded to their base letters, apostrophes are
// dropped so "don't" becomes "dont", and every other run of whitespace or
// punctuation becomes a single hyphen. Leading and trailing hyphens are
// trimmed. Make does not guarantee uniqueness.
func Make(s string) string {
	folded, _, err := transform.String(fold(), s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == '\'' || r == '’':
			// apostrophes join the surrounding word
		default:
			pendingSep = true
		}
	}
	return b.String()
}

// Valid reports whether s is already a well-formed slug.
func Valid(s string) bool {
	return s != "" && Make(s) == s
}

// fold builds a fresh transformer per call; transform chains are stateful.
func fold() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
