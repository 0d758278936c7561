// Package sanitize inspects user supplied todo text. It never rewrites what
// is stored.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy is safe for concurrent use once built.
var policy = bluemonday.StrictPolicy()

// Blank reports whether s has nothing to show once whitespace and markup
// elements are removed, e.g. "  " or "<p></p>".
func Blank(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	return strings.TrimSpace(policy.Sanitize(s)) == ""
}
