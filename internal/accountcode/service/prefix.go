package service

import (
	"fmt"
	"strings"
	"unicode"
)

// fallbackPrefix is used when neither the display name nor the email yields
// a usable rep prefix; "OPS" accounts are swept up by manual follow-up.
const fallbackPrefix = "OPS"

// RepPrefix derives a sales-rep code prefix from the rep's display name:
// the uppercased first letter of each word, at most three. Names with fewer
// than two usable initials fall back to the first three characters of the
// email local part.
func RepPrefix(name, email string) string {
	var initials []rune
	for _, word := range strings.Fields(name) {
		r := []rune(word)[0]
		if !unicode.IsLetter(r) {
			continue
		}
		initials = append(initials, unicode.ToUpper(r))
		if len(initials) == 3 {
			break
		}
	}
	if len(initials) >= 2 {
		return string(initials)
	}

	local, _, _ := strings.Cut(email, "@")
	local = strings.TrimSpace(local)
	if runes := []rune(local); len(runes) >= 2 {
		if len(runes) > 3 {
			runes = runes[:3]
		}
		return strings.ToUpper(string(runes))
	}

	return fallbackPrefix
}

// Placeholder returns the provisional code for clients whose permanent code
// cannot be computed yet, e.g. before a rep is assigned.
func Placeholder(country string) string {
	return fmt.Sprintf("TBD-%s-TEMP", strings.ToUpper(strings.TrimSpace(country)))
}
