package name

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		name        string
		raw         string
		expected    string
		expectedErr error
	}{
		{name: "cyrillic name", raw: "Алексей", expected: "Алексей"},
		{name: "latin name", raw: "Alex", expected: "Alex"},
		{name: "surrounding whitespace is trimmed", raw: "  Петр  ", expected: "Петр"},
		{name: "yo letter", raw: "Семён", expected: "Семён"},
		{name: "empty", raw: "", expectedErr: ErrEmpty},
		{name: "whitespace only", raw: "   ", expectedErr: ErrEmpty},
		{name: "two words", raw: "Иван Петров", expectedErr: ErrMultiWord},
		{name: "digits", raw: "Alex123", expectedErr: ErrInvalidChars},
		{name: "punctuation", raw: "Ан-на", expectedErr: ErrInvalidChars},
		{name: "single letter", raw: "А", expectedErr: ErrTooShort},
		{name: "over twenty letters", raw: strings.Repeat("а", 25), expectedErr: ErrTooLong},
		{name: "exactly twenty letters", raw: strings.Repeat("а", 20), expected: strings.Repeat("а", 20)},
		{name: "exactly two letters", raw: "Ян", expected: "Ян"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			normalized, err := Validate(tc.raw)

			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, normalized)
		})
	}
}
