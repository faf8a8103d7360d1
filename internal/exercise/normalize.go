// Package exercise holds the rules for exercise names and the value ranges
// accepted for workout and body-weight records.
package exercise

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize returns the canonical display form of a free-text exercise name:
// trimmed, lower-cased, then each single-space separated token title-cased.
// Runs of spaces inside the name are kept as empty tokens.
func Normalize(raw string) string {
	words := strings.Split(strings.ToLower(strings.TrimSpace(raw)), " ")
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if size == 0 {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}

// ValidateName normalizes raw and rejects names that are blank afterwards.
func ValidateName(raw string) (string, error) {
	name := Normalize(raw)
	if strings.TrimSpace(name) == "" {
		return "", &ValidationError{Field: "exercise name", Reason: "cannot be empty"}
	}
	return name, nil
}

// SameName reports whether two names collapse to the same library entry.
func SameName(a, b string) bool {
	return strings.EqualFold(Normalize(a), Normalize(b))
}
