package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer     = bluemonday.UGCPolicy()
	lineSanitizer = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// SanitizeLine strips all markup from single-line text such as titles and
// returns it as plain, trimmed text.
func SanitizeLine(input string) string {
	return strings.TrimSpace(html.UnescapeString(lineSanitizer.Sanitize(input)))
}
