package normalize

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// MaxTagLength is the longest tag text stored, in runes.
const MaxTagLength = 255

// TagDelimiter separates tags in a tag string.
const TagDelimiter = ","

// Tag returns the canonical form of a tag:
// markup stripped, title-cased, split on every non-word rune and rejoined
// with single spaces. "  sci-FI " and "Sci Fi" both become "Sci Fi".
// An empty result means the input carried no usable text.
func Tag(raw string) string {
	s := norm.NFC.String(StripMarkup(raw))

	// cases.Caser is stateful; one per call.
	s = cases.Title(language.Und).String(s)

	words := strings.FieldsFunc(s, func(r rune) bool {
		return !isWordRune(r)
	})
	s = strings.Join(words, " ")

	if r := []rune(s); len(r) > MaxTagLength {
		s = strings.TrimSpace(string(r[:MaxTagLength]))
	}
	return s
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// ParseTagString splits a comma-delimited tag string into normalized tags.
// Tokens that normalize to nothing are dropped; duplicates keep their first position.
func ParseTagString(input string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, token := range strings.Split(input, TagDelimiter) {
		tag := Tag(token)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// FormatTagString renders tags as a delimited string in lexicographic order.
// The input slice is not modified.
func FormatTagString(tags []string) string {
	sorted := slices.Clone(tags)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return strings.Join(sorted, TagDelimiter+" ")
}
