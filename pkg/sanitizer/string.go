package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

// TrimAndNormalize trims the string and collapses internal whitespace runs
// into single spaces.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeTitle(title string) string {
	return TrimAndNormalize(title)
}

func NormalizeReason(reason string) string {
	return TrimAndNormalize(reason)
}

// NormalizeLocation lowercases so catalog searches are case-insensitive by
// construction.
func NormalizeLocation(location string) string {
	return strings.ToLower(TrimAndNormalize(location))
}

var reSearchMeta = regexp.MustCompile(`[.*+?()\[\]{}|^$\\]`)

// EscapeSearchTerm neutralizes regex metacharacters before the term is
// embedded in a Mongo $regex filter. Unescaped user input there is a ReDoS
// vector.
func EscapeSearchTerm(term string) string {
	return reSearchMeta.ReplaceAllStringFunc(TrimAndNormalize(term), func(m string) string {
		return `\` + m
	})
}
