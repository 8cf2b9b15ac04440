package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/rock-coffee/loyalty-bot/internal/domain"
	"github.com/rock-coffee/loyalty-bot/internal/jobs"
)

type stubClientGetter struct {
	client *domain.Client
	err    error
}

func (s *stubClientGetter) GetByID(ctx context.Context, clientID int64) (*domain.Client, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.client, nil
}

type recordingSender struct {
	recipient telebot.Recipient
	text      string
	err       error
}

func (r *recordingSender) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	r.recipient = to
	if text, ok := what.(string); ok {
		r.text = text
	}
	if r.err != nil {
		return nil, r.err
	}
	return &telebot.Message{}, nil
}

func TestWelcomeHandler_SendsGreeting(t *testing.T) {
	getter := &stubClientGetter{client: &domain.Client{
		ID:         7,
		TelegramID: 111222333,
		CardNumber: "1042",
		FullName:   "Иванова Анна",
		Balance:    100,
	}}
	sender := &recordingSender{}
	handler := NewWelcomeHandler(getter, sender, nil)

	task, err := jobs.NewWelcomeTask(7)
	require.NoError(t, err)

	require.NoError(t, handler.ProcessTask(context.Background(), task))

	assert.Equal(t, telebot.ChatID(111222333), sender.recipient)
	assert.Contains(t, sender.text, "Иванова Анна")
	assert.Contains(t, sender.text, "1042")
	assert.Contains(t, sender.text, "100")
}

func TestWelcomeHandler_LookupFailureIsRetryable(t *testing.T) {
	getter := &stubClientGetter{err: errors.New("db down")}
	sender := &recordingSender{}
	handler := NewWelcomeHandler(getter, sender, nil)

	task, err := jobs.NewWelcomeTask(7)
	require.NoError(t, err)

	assert.Error(t, handler.ProcessTask(context.Background(), task))
	assert.Empty(t, sender.text)
}

func TestWelcomeHandler_BadPayload(t *testing.T) {
	handler := NewWelcomeHandler(&stubClientGetter{}, &recordingSender{}, nil)

	task := asynq.NewTask(jobs.TypeWelcomeNotification, []byte("{not json"))
	assert.Error(t, handler.ProcessTask(context.Background(), task))
}
