package bot

import (
	telebot "gopkg.in/telebot.v3"
)

const skipNameUnique = "skip_name_input"

// contactKeyboard builds the reply keyboard with the contact-share button.
func contactKeyboard() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
	markup.ReplyKeyboard = [][]telebot.ReplyButton{
		{
			{
				Text:    "📱 Поделиться контактом",
				Contact: true,
			},
		},
	}
	return markup
}

// skipNameKeyboard builds the inline keyboard offering to skip the name step.
func skipNameKeyboard() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = [][]telebot.InlineButton{
		{
			{
				Text:   "⏭️ Пропустить",
				Unique: skipNameUnique,
			},
		},
	}
	return markup
}

// removeKeyboard hides the previously shown reply keyboard.
func removeKeyboard() *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{RemoveKeyboard: true}
}
