package bot

import (
	"errors"
	"fmt"

	"github.com/rock-coffee/loyalty-bot/internal/apperrors"
	"github.com/rock-coffee/loyalty-bot/internal/name"
)

const (
	msgSharePrompt = "👋 Добро пожаловать в Rock Coffee!\n\n" +
		"Чтобы получить карту лояльности, поделитесь своим контактом кнопкой ниже."
	msgAskName = "✅ Карта №%s оформлена!\n\n" +
		"Как к вам обращаться? Отправьте имя одним словом или пропустите этот шаг."
	msgReturning = "👋 С возвращением, %s!\n\n💳 Карта: %s\n💰 Баланс: %d баллов"
	msgNameSaved = "Приятно познакомиться, %s! Регистрация завершена.\n\n" +
		"☕ Сообщите номер карты бариста, чтобы получать баллы."
	msgSkipped = "✅ Регистрация завершена.\n\n" +
		"☕ Сообщите номер карты бариста, чтобы получать баллы."
	msgInvalidPhone = "Не удалось распознать номер телефона. " +
		"Поддерживаются российские номера (+7). Поделитесь контактом ещё раз."
	msgStartHint     = "Отправьте /start, чтобы начать."
	msgCancelled     = "Регистрация сброшена. Отправьте /start, чтобы начать заново."
	msgForeignPhone  = "Пожалуйста, поделитесь собственным контактом."
	msgInternalError = "Произошла ошибка. Попробуйте позже."
)

// rejectionMessage maps a name validation failure to the reply shown to the user.
func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, name.ErrEmpty):
		return "Имя не может быть пустым. Попробуйте ещё раз."
	case errors.Is(err, name.ErrMultiWord):
		return "Пожалуйста, отправьте имя одним словом, без пробелов."
	case errors.Is(err, name.ErrInvalidChars):
		return "Имя может содержать только буквы. Попробуйте ещё раз."
	case errors.Is(err, name.ErrTooShort):
		return "Имя слишком короткое, нужно минимум 2 буквы."
	case errors.Is(err, name.ErrTooLong):
		return "Имя слишком длинное, допустимо не больше 20 букв."
	default:
		return "Не удалось сохранить имя. Попробуйте ещё раз."
	}
}

// userMessage extracts the user-facing text from an application error,
// falling back to the generic failure reply.
func userMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.UserMessage != "" {
		return appErr.UserMessage
	}

	return msgInternalError
}

func formatReturning(fullName, cardNumber string, balance int64) string {
	return fmt.Sprintf(msgReturning, fullName, cardNumber, balance)
}
