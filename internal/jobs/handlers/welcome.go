package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	telebot "gopkg.in/telebot.v3"

	"github.com/rock-coffee/loyalty-bot/internal/domain"
	"github.com/rock-coffee/loyalty-bot/internal/jobs"
)

// ClientGetter loads the client referenced by a welcome task.
type ClientGetter interface {
	GetByID(ctx context.Context, clientID int64) (*domain.Client, error)
}

// Sender delivers chat messages; *telebot.Bot satisfies it.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// WelcomeHandler greets newly registered clients with their card number and
// welcome bonus.
type WelcomeHandler struct {
	clients ClientGetter
	sender  Sender
	log     *slog.Logger
}

// NewWelcomeHandler constructs a WelcomeHandler.
func NewWelcomeHandler(clients ClientGetter, sender Sender, log *slog.Logger) *WelcomeHandler {
	if log == nil {
		log = slog.Default()
	}

	return &WelcomeHandler{
		clients: clients,
		sender:  sender,
		log:     log,
	}
}

// ProcessTask sends the welcome message for the client named in the payload.
func (h *WelcomeHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.WelcomePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.Error("welcome task: failed to decode payload", slog.String("task_type", t.Type()), slog.Any("error", err))
		return err
	}

	client, err := h.clients.GetByID(ctx, payload.ClientID)
	if err != nil {
		h.log.Error("welcome task: client lookup failed", slog.Int64("client_id", payload.ClientID), slog.Any("error", err))
		return err
	}

	text := fmt.Sprintf(
		"🎉 Добро пожаловать в Rock Coffee!\n\n"+
			"👤 %s\n"+
			"💳 Ваша карта: %s\n"+
			"💰 Приветственный бонус: %d баллов\n\n"+
			"☕ Сообщите номер карты бариста и получайте баллы за покупки!",
		client.FullName, client.CardNumber, client.Balance,
	)

	if _, err := h.sender.Send(telebot.ChatID(client.TelegramID), text); err != nil {
		return fmt.Errorf("send welcome message: %w", err)
	}

	return nil
}
