package strutils

import (
	"strings"
	"unicode"
)

// NormalizeCharacterID trims the id and rejects the empty and "0" placeholders
func NormalizeCharacterID(id string) (string, bool) {
	id = strings.TrimSpace(id)
	if id == "" || id == "0" {
		return "", false
	}
	return id, true
}

// CanonicalKey lowercases the name and drops everything but letters and digits
func CanonicalKey(name string) string {
	var canonical strings.Builder
	canonical.Grow(len(name))
	for _, char := range name {
		if char > unicode.MaxASCII {
			continue
		}
		if unicode.IsLetter(char) || unicode.IsDigit(char) {
			canonical.WriteRune(unicode.ToLower(char))
		}
	}
	return canonical.String()
}
