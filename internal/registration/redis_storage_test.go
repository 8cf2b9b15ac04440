package registration

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) Storage {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStorage(client, testLogger())
}

func TestRedisStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	session := &Session{
		ChatID:       123456789,
		CurrentState: StateAwaitingName,
		ClientID:     7,
	}
	require.NoError(t, storage.SetSession(ctx, 123456789, session))

	got, err := storage.GetSession(ctx, 123456789)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingName, got.CurrentState)
	assert.Equal(t, int64(7), got.ClientID)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestRedisStorage_MissingSession(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	_, err := storage.GetSession(ctx, 404)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStorage_ClearSession(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	require.NoError(t, storage.SetSession(ctx, 5, &Session{ChatID: 5, CurrentState: StateCompleted}))
	require.NoError(t, storage.ClearSession(ctx, 5))

	_, err := storage.GetSession(ctx, 5)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
