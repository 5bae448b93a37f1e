package content

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// SEOTitleMax and SEODescriptionMax follow search-engine display limits.
	SEOTitleMax       = 60
	SEODescriptionMax = 160

	// WordsPerMinute is the reading speed used for reading_time.
	WordsPerMinute = 200

	ellipsis = "..."
)

var (
	tagPattern = regexp.MustCompile(`<[^>]*>`)

	// richText keeps the formatting markup editors use and drops scripts,
	// event handlers and other active content.
	richText = bluemonday.UGCPolicy()
)

// Truncate shortens s to at most limit characters. Longer input is cut to
// limit-3 characters followed by "...", so the result is exactly limit long.
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= len(ellipsis) {
		return string(r[:limit])
	}
	return string(r[:limit-len(ellipsis)]) + ellipsis
}

// PlainText removes markup from s and collapses whitespace. Tags are
// replaced by spaces so adjacent block elements do not fuse their words.
func PlainText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// WordCount counts whitespace-separated tokens of s after stripping markup.
func WordCount(s string) int {
	return len(strings.Fields(PlainText(s)))
}

// ReadingTime returns ceil(words / WordsPerMinute) in minutes.
func ReadingTime(words int) int {
	if words <= 0 {
		return 0
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// SanitizeHTML strips active content from editor-supplied markup.
func SanitizeHTML(s string) string {
	if s == "" {
		return s
	}
	return richText.Sanitize(s)
}
