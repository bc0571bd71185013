package stringsx

import (
	"strings"
	"unicode/utf8"
)

// Clip returns at most max bytes of s, never splitting a multibyte rune:
// the cut backs up to the nearest rune boundary so a valid string stays
// valid. If max <= 0, an empty string is returned.
func Clip(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Normalize trims spaces and converts a string to lower case.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsEmpty reports whether s is empty after trimming spaces.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Slugify lowercases s and collapses every run of non-alphanumeric
// characters into a single hyphen, so "  Go / Web Dev " becomes
// "go-web-dev". The result may be empty if s has no letters or digits.
func Slugify(s string) string {
	s = Normalize(s)
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte('-')
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
