// Package bot wires the Telegram transport to the registration workflow.
package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/rock-coffee/loyalty-bot/internal/idempotency"
	"github.com/rock-coffee/loyalty-bot/internal/ratelimit"
	"github.com/rock-coffee/loyalty-bot/internal/registration"
	"github.com/rock-coffee/loyalty-bot/pkg/config"
)

const (
	CommandStart  = "/start"
	CommandCancel = "/cancel"
)

// Bot wraps telebot.Bot with the application dependencies required for
// handling updates.
type Bot struct {
	telebot  *telebot.Bot
	workflow *registration.Workflow
	log      *slog.Logger
}

// New builds a telegram bot instance configured according to the application
// settings.
func New(
	cfg config.Config,
	log *slog.Logger,
	workflow *registration.Workflow,
	idempotencyManager idempotency.Manager,
	limiter ratelimit.Limiter,
) (*Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Server.Port,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := &Bot{
		telebot:  tb,
		workflow: workflow,
		log:      log,
	}

	tb.Use(RecoveryMiddleware(log, cfg.Sentry.Enabled))
	tb.Use(RateLimitMiddleware(limiter, cfg.Limits, log))
	tb.Use(LoggingMiddleware(log))
	tb.Use(MetricsMiddleware())
	tb.Use(IdempotencyMiddleware(idempotencyManager, log))

	b.registerHandlers()

	return b, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such
// as health checks and the jobs worker.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) registerHandlers() {
	b.telebot.Handle(CommandStart, b.handleStart)
	b.telebot.Handle(CommandCancel, b.handleCancel)
	b.telebot.Handle(telebot.OnContact, b.handleContact)
	b.telebot.Handle(telebot.OnText, b.handleText)
	b.telebot.Handle(&telebot.InlineButton{Unique: skipNameUnique}, b.handleSkipName)
}
