// Package clientcache caches resolved client profiles by chat identity so
// returning users skip the contact-share prompt without a database round trip.
package clientcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/rock-coffee/loyalty-bot/internal/domain"
)

// DefaultTTL bounds staleness of cached profiles.
const DefaultTTL = 15 * time.Minute

// Cache provides Redis-backed caching of clients keyed by Telegram chat id.
type Cache struct {
	client *redis.Client
}

// NewCache constructs a client cache backed by the provided Redis client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get fetches a cached client profile if it exists. A nil result with a nil
// error means a cache miss.
func (c *Cache) Get(ctx context.Context, telegramID int64) (*domain.Client, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, cacheKey(telegramID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached client: %w", err)
	}

	var client domain.Client
	if err := json.Unmarshal(data, &client); err != nil {
		return nil, fmt.Errorf("decode cached client: %w", err)
	}

	return &client, nil
}

// Set stores the client profile in cache for the provided TTL.
func (c *Cache) Set(ctx context.Context, client *domain.Client, ttl time.Duration) error {
	if c == nil || c.client == nil || client == nil {
		return nil
	}

	payload, err := json.Marshal(client)
	if err != nil {
		return fmt.Errorf("encode client for cache: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(client.TelegramID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("set cached client: %w", err)
	}

	return nil
}

// Invalidate removes the cached profile entry if it exists.
func (c *Cache) Invalidate(ctx context.Context, telegramID int64) error {
	if c == nil || c.client == nil {
		return nil
	}

	if err := c.client.Del(ctx, cacheKey(telegramID)).Err(); err != nil {
		return fmt.Errorf("delete cached client: %w", err)
	}

	return nil
}

func cacheKey(telegramID int64) string {
	return fmt.Sprintf("client:chat:%d", telegramID)
}
