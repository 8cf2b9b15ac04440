package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPattern = "registration:session:%d"
	sessionTTL        = time.Hour
)

// RedisStorage persists workflow sessions in Redis. The TTL bounds abandoned
// registrations; an expired session simply restarts from unauthenticated.
type RedisStorage struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisStorage initializes a Redis-backed Storage implementation.
func NewRedisStorage(client *redis.Client, log *slog.Logger) Storage {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStorage{
		client: client,
		log:    log,
	}
}

// GetSession returns the stored session or ErrSessionNotFound when absent.
func (s *RedisStorage) GetSession(ctx context.Context, chatID int64) (*Session, error) {
	key := sessionKey(chatID)

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}

		s.log.Error("failed to get session from redis", "chat_id", chatID, "error", err)
		return nil, err
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		s.log.Error("failed to decode registration session", "chat_id", chatID, "error", err)
		return nil, err
	}

	return &session, nil
}

// SetSession saves the provided session with the session TTL.
func (s *RedisStorage) SetSession(ctx context.Context, chatID int64, session *Session) error {
	session.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(session)
	if err != nil {
		s.log.Error("failed to encode registration session", "chat_id", chatID, "error", err)
		return err
	}

	key := sessionKey(chatID)
	if err := s.client.Set(ctx, key, data, sessionTTL).Err(); err != nil {
		s.log.Error("failed to save session in redis", "chat_id", chatID, "error", err)
		return err
	}

	return nil
}

// ClearSession removes the stored session for the given chat.
func (s *RedisStorage) ClearSession(ctx context.Context, chatID int64) error {
	key := sessionKey(chatID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.log.Error("failed to clear registration session", "chat_id", chatID, "error", err)
		return err
	}

	return nil
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf(sessionKeyPattern, chatID)
}
