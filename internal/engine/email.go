package engine

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	emailInText  = regexp.MustCompile(`[^\s@]+@[^\s@]+\.[^\s@]+`)
)

// ValidEmail reports whether s is a well-formed email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ExtractEmail returns the first email address found in text, or "".
// Punctuation glued to the address, as in "mail me at a@b.com.", is removed.
func ExtractEmail(text string) string {
	for _, tok := range strings.Fields(text) {
		candidate := strings.Trim(tok, `.,;:!?()[]{}<>"'`)
		if m := emailInText.FindString(candidate); m != "" && ValidEmail(m) {
			return m
		}
	}
	return ""
}
