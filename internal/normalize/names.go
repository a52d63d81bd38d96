package normalize

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

// CollapseWhitespace replaces every run of whitespace (newlines included)
// with a single space and trims the result.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}
