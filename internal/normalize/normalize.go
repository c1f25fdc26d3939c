// Package normalize provides utilities for normalizing and sanitizing catalog text.
package normalize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// strictPolicy removes every element and attribute. It is safe for concurrent use.
//
//nolint:gochecknoglobals // Shared sanitizer policy
var strictPolicy = bluemonday.StrictPolicy()

// StripMarkup removes HTML tags from s and decodes the entities bluemonday
// escapes, so "<b>Tom &amp; Jerry</b>" becomes "Tom & Jerry".
func StripMarkup(s string) string {
	if s == "" {
		return ""
	}
	s = sanitizeString(s)
	if !strings.ContainsAny(s, "<>&") {
		return s
	}
	return html.UnescapeString(strictPolicy.Sanitize(s))
}

// Text strips markup, drops null bytes, composes unicode and trims whitespace.
// Used for free-form profile fields.
func Text(s string) string {
	return strings.TrimSpace(norm.NFC.String(StripMarkup(s)))
}

// sanitizeString removes null bytes, which break SQLite text columns and JSON.
func sanitizeString(s string) string {
	if !strings.ContainsRune(s, 0) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
