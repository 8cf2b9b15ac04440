package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) Limiter {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLimiter(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRedisLimiter_AllowsWithinLimit(t *testing.T) {
	limiter := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "chat:1", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}
}

func TestRedisLimiter_BlocksWhenExceeded(t *testing.T) {
	limiter := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "chat:2", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "chat:2", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)
}

func TestRedisLimiter_KeysAreIndependent(t *testing.T) {
	limiter := newTestLimiter(t)
	ctx := context.Background()

	_, err := limiter.Check(ctx, "chat:3", 1, time.Minute)
	require.NoError(t, err)

	result, err := limiter.Check(ctx, "chat:4", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRedisLimiter_ZeroLimitAlwaysBlocks(t *testing.T) {
	limiter := newTestLimiter(t)

	result, err := limiter.Check(context.Background(), "chat:5", 0, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}
