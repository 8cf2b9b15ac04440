package bot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rock-coffee/loyalty-bot/internal/apperrors"
	"github.com/rock-coffee/loyalty-bot/internal/name"
)

func TestRejectionMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"empty", name.ErrEmpty, "Имя не может быть пустым. Попробуйте ещё раз."},
		{"multi word", name.ErrMultiWord, "Пожалуйста, отправьте имя одним словом, без пробелов."},
		{"invalid chars", name.ErrInvalidChars, "Имя может содержать только буквы. Попробуйте ещё раз."},
		{"too short", name.ErrTooShort, "Имя слишком короткое, нужно минимум 2 буквы."},
		{"too long", name.ErrTooLong, "Имя слишком длинное, допустимо не больше 20 букв."},
		{"unknown", errors.New("boom"), "Не удалось сохранить имя. Попробуйте ещё раз."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rejectionMessage(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	appErr := apperrors.NewStateError("cannot skip now")
	assert.Equal(t, appErr.UserMessage, userMessage(appErr))

	wrapped := errors.Join(errors.New("outer"), apperrors.NewDatabaseError(errors.New("inner")))
	assert.Equal(t, "Временная проблема, попробуйте позже", userMessage(wrapped))

	assert.Equal(t, msgInternalError, userMessage(errors.New("plain")))
}

func TestContactKeyboardRequestsContact(t *testing.T) {
	markup := contactKeyboard()

	if assert.Len(t, markup.ReplyKeyboard, 1) && assert.Len(t, markup.ReplyKeyboard[0], 1) {
		assert.True(t, markup.ReplyKeyboard[0][0].Contact)
	}
	assert.True(t, markup.OneTimeKeyboard)
}

func TestSkipNameKeyboardUnique(t *testing.T) {
	markup := skipNameKeyboard()

	if assert.Len(t, markup.InlineKeyboard, 1) && assert.Len(t, markup.InlineKeyboard[0], 1) {
		assert.Equal(t, skipNameUnique, markup.InlineKeyboard[0][0].Unique)
	}
}
