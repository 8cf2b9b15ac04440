package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/rock-coffee/loyalty-bot/internal/registration"
	"github.com/rock-coffee/loyalty-bot/internal/registry"
)

// handleStart greets a returning client immediately or starts contact capture
// for an unknown chat.
func (b *Bot) handleStart(c telebot.Context) error {
	ctx := context.Background()
	chat := chatID(c)

	client, err := b.workflow.ResumeReturning(ctx, chat)
	switch {
	case err == nil:
		return c.Send(
			formatReturning(client.FullName, client.CardNumber, client.Balance),
			removeKeyboard(),
		)
	case errors.Is(err, registry.ErrClientNotFound):
		if beginErr := b.workflow.BeginContactCapture(ctx, chat); beginErr != nil {
			b.log.Error("failed to begin contact capture", slog.Int64("chat_id", chat), slog.Any("error", beginErr))
			return c.Send(userMessage(beginErr))
		}
		return c.Send(msgSharePrompt, contactKeyboard())
	default:
		b.log.Error("start handler failed", slog.Int64("chat_id", chat), slog.Any("error", err))
		return c.Send(userMessage(err))
	}
}

// handleCancel drops the chat session so the user can start over.
func (b *Bot) handleCancel(c telebot.Context) error {
	chat := chatID(c)

	if err := b.workflow.Reset(context.Background(), chat); err != nil {
		b.log.Error("failed to reset session", slog.Int64("chat_id", chat), slog.Any("error", err))
		return c.Send(userMessage(err))
	}

	return c.Send(msgCancelled, removeKeyboard())
}

// handleContact resolves a shared contact to a client record.
func (b *Bot) handleContact(c telebot.Context) error {
	msg := c.Message()
	if msg == nil || msg.Contact == nil {
		return nil
	}

	contact := msg.Contact
	if c.Sender() != nil && contact.UserID != 0 && contact.UserID != c.Sender().ID {
		return c.Send(msgForeignPhone)
	}

	chat := chatID(c)
	result, err := b.workflow.HandleContact(context.Background(), registration.ContactEvent{
		ChatID:    chat,
		Phone:     contact.PhoneNumber,
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
	})
	if err != nil {
		if errors.Is(err, registration.ErrInvalidPhone) {
			return c.Send(msgInvalidPhone, contactKeyboard())
		}

		b.log.Error("contact handler failed", slog.Int64("chat_id", chat), slog.Any("error", err))
		return c.Send(userMessage(err))
	}

	if result.IsNewClient {
		return c.Send(fmt.Sprintf(msgAskName, result.CardNumber), skipNameKeyboard())
	}

	return c.Send(
		formatReturning(result.FullName, result.CardNumber, result.Balance),
		removeKeyboard(),
	)
}

// handleText treats free text as a name submission while the chat is inside
// the name-capture window.
func (b *Bot) handleText(c telebot.Context) error {
	chat := chatID(c)

	outcome, err := b.workflow.HandleName(context.Background(), chat, c.Text())
	if err != nil {
		if errors.Is(err, registration.ErrNotAwaitingName) {
			return c.Send(msgStartHint)
		}

		b.log.Error("name handler failed", slog.Int64("chat_id", chat), slog.Any("error", err))
		return c.Send(userMessage(err))
	}

	if !outcome.Accepted {
		return c.Send(rejectionMessage(outcome.Reason))
	}

	return c.Send(fmt.Sprintf(msgNameSaved, outcome.Name))
}

// handleSkipName completes registration keeping the contact-derived name.
func (b *Bot) handleSkipName(c telebot.Context) error {
	defer func() { _ = c.Respond() }()

	chat := chatID(c)
	if err := b.workflow.HandleSkip(context.Background(), chat); err != nil {
		if errors.Is(err, registration.ErrNotAwaitingName) {
			// Stale button press after the window closed; nothing to do.
			return nil
		}

		b.log.Error("skip handler failed", slog.Int64("chat_id", chat), slog.Any("error", err))
		return c.Send(userMessage(err))
	}

	return c.Send(msgSkipped)
}
