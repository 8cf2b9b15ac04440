package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	telebot "gopkg.in/telebot.v3"

	"github.com/rock-coffee/loyalty-bot/internal/idempotency"
	"github.com/rock-coffee/loyalty-bot/internal/ratelimit"
	"github.com/rock-coffee/loyalty-bot/pkg/config"
	"github.com/rock-coffee/loyalty-bot/pkg/metrics"
)

// RateLimitMiddleware drops updates from chats that exceed the per-chat
// budget. Limiter failures fail open so Redis trouble never blocks the bot.
func RateLimitMiddleware(limiter ratelimit.Limiter, limits config.LimitsConfig, log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		if limiter == nil || !limits.Enabled {
			return next
		}

		return func(c telebot.Context) error {
			chat := chatID(c)
			if chat == 0 {
				return next(c)
			}

			result, err := limiter.Check(
				context.Background(),
				fmt.Sprintf("chat:%d", chat),
				limits.PerChat,
				limits.PerChatWindow,
			)
			if err != nil {
				log.Warn("rate limit check failed", slog.Int64("chat_id", chat), slog.Any("error", err))
				return next(c)
			}

			if !result.Allowed {
				log.Info("update throttled", slog.Int64("chat_id", chat))
				metrics.RecordUpdate(updateKind(c), "throttled", 0)
				return nil
			}

			return next(c)
		}
	}
}

// RecoveryMiddleware converts handler panics into a logged error reply.
func RecoveryMiddleware(log *slog.Logger, sentryEnabled bool) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Error("handler panic recovered",
						slog.Any("panic", r),
						slog.Int64("chat_id", chatID(c)),
					)
					metrics.RecordError("panic", "critical")

					if sentryEnabled {
						sentry.CurrentHub().Recover(r)
					}

					_ = c.Send(msgInternalError)
				}
			}()

			return next(c)
		}
	}
}

// LoggingMiddleware records each handled update with its duration.
func LoggingMiddleware(log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			start := time.Now()
			err := next(c)

			attrs := []any{
				slog.String("update", updateKind(c)),
				slog.Int64("chat_id", chatID(c)),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
				log.Error("update failed", attrs...)
				return err
			}

			log.Info("update handled", attrs...)
			return nil
		}
	}
}

// MetricsMiddleware reports handler duration and status to Prometheus.
func MetricsMiddleware() telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			start := time.Now()
			err := next(c)

			status := "ok"
			if err != nil {
				status = "error"
			}
			metrics.RecordUpdate(updateKind(c), status, time.Since(start))

			return err
		}
	}
}

// IdempotencyMiddleware ensures each Telegram update is handled at most once,
// so that redelivered updates cannot register a client twice.
func IdempotencyMiddleware(manager idempotency.Manager, log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		if manager == nil {
			return next
		}

		return func(c telebot.Context) error {
			key := updateKey(c)
			if key == "" {
				return next(c)
			}

			result, err := manager.Execute(context.Background(), key, 24*time.Hour, func(context.Context) (interface{}, error) {
				return nil, next(c)
			})
			if err != nil {
				if errors.Is(err, idempotency.ErrRequestInProgress) {
					return nil
				}

				log.Error("idempotent update failed", slog.String("key", key), slog.Any("error", err))
				return err
			}

			if result.FromCache {
				log.Debug("duplicate update suppressed", slog.String("key", key))
			}

			return nil
		}
	}
}

func chatID(c telebot.Context) int64 {
	if c == nil || c.Chat() == nil {
		return 0
	}
	return c.Chat().ID
}

func updateKind(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil {
		return "callback"
	}
	if msg := c.Message(); msg != nil {
		if msg.Contact != nil {
			return "contact"
		}
		if len(msg.Text) > 0 && msg.Text[0] == '/' {
			return "command"
		}
		return "text"
	}

	return "unknown"
}

func updateKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	if cb := c.Callback(); cb != nil && cb.ID != "" {
		return fmt.Sprintf("cb:%s", cb.ID)
	}

	if msg := c.Message(); msg != nil && msg.ID != 0 {
		return fmt.Sprintf("msg:%d:%d", chatID(c), msg.ID)
	}

	return ""
}
