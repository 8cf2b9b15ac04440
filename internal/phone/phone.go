// Package phone converts raw phone spellings into the canonical +7XXXXXXXXXX form
// used as the uniqueness key for client identity.
package phone

import (
	"regexp"
	"strings"
)

var canonicalPattern = regexp.MustCompile(`^\+7\d{10}$`)

// Normalize reduces raw to its digits and produces the canonical spelling.
// It never fails: inputs with an unexpected digit count degrade to "+<digits>"
// so that whatever value results still participates in uniqueness checks.
func Normalize(raw string) string {
	digits := digitsOnly(raw)

	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "8"):
		return "+7" + digits[1:]
	case len(digits) == 11 && strings.HasPrefix(digits, "7"):
		return "+" + digits
	case len(digits) == 10:
		return "+7" + digits
	default:
		return "+" + digits
	}
}

// IsValid reports whether canonical is a well-formed Russian mobile number.
func IsValid(canonical string) bool {
	return canonicalPattern.MatchString(canonical)
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}
