package clientcache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rock-coffee/loyalty-bot/internal/domain"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(client)
}

func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	stored := &domain.Client{
		ID:         7,
		TelegramID: 123456789,
		CardNumber: "42",
		Phone:      "+79001234567",
		FullName:   "Петров Иван",
		Balance:    100,
	}
	require.NoError(t, cache.Set(ctx, stored, DefaultTTL))

	got, err := cache.Get(ctx, 123456789)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, stored.CardNumber, got.CardNumber)
	assert.Equal(t, stored.FullName, got.FullName)
}

func TestCache_MissReturnsNil(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	got, err := cache.Get(ctx, 555)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	require.NoError(t, cache.Set(ctx, &domain.Client{TelegramID: 9, CardNumber: "1"}, time.Minute))
	require.NoError(t, cache.Invalidate(ctx, 9))

	got, err := cache.Get(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_NilReceiverIsSafe(t *testing.T) {
	ctx := context.Background()

	var cache *Cache
	got, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, cache.Set(ctx, &domain.Client{}, time.Minute))
	require.NoError(t, cache.Invalidate(ctx, 1))
}
