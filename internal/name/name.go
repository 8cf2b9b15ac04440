// Package name validates display names supplied by clients during registration.
package name

import (
	"errors"
	"strings"
	"unicode"
)

const (
	minLength = 2
	maxLength = 20
)

var (
	// ErrEmpty indicates that the input contained no visible characters.
	ErrEmpty = errors.New("name is empty")
	// ErrMultiWord indicates that the input contained more than one word.
	ErrMultiWord = errors.New("name must be a single word")
	// ErrInvalidChars indicates characters outside Cyrillic and Latin letters.
	ErrInvalidChars = errors.New("name contains invalid characters")
	// ErrTooShort indicates that the trimmed name is shorter than the minimum.
	ErrTooShort = errors.New("name is too short")
	// ErrTooLong indicates that the trimmed name exceeds the maximum length.
	ErrTooLong = errors.New("name is too long")
)

// Validate trims raw and accepts it as a display name when it is a single
// word of Cyrillic or Latin letters within the allowed length. The returned
// string is the normalized (trimmed) name.
func Validate(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmpty
	}

	if strings.ContainsFunc(trimmed, unicode.IsSpace) {
		return "", ErrMultiWord
	}

	runes := []rune(trimmed)
	for _, r := range runes {
		if !isAllowedLetter(r) {
			return "", ErrInvalidChars
		}
	}

	switch {
	case len(runes) < minLength:
		return "", ErrTooShort
	case len(runes) > maxLength:
		return "", ErrTooLong
	}

	return trimmed, nil
}

func isAllowedLetter(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		return true
	case r >= 'А' && r <= 'я', r == 'Ё', r == 'ё':
		return true
	default:
		return false
	}
}
