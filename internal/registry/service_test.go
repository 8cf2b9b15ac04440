package registry

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rock-coffee/loyalty-bot/internal/clientcache"
	"github.com/rock-coffee/loyalty-bot/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo repository.ClientRepository) *Service {
	return NewService(repo, nil, nil, testLogger(), func() int64 { return 100 })
}

func TestResolveOrCreate_NewClient(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryClientRepository())

	result, err := svc.ResolveOrCreate(ctx, ContactInput{
		RawPhone:  "+79001234567",
		ChatID:    123456789,
		FirstName: "Иван",
	})
	require.NoError(t, err)

	assert.True(t, result.IsNewClient)
	assert.Equal(t, "1", result.CardNumber)
	assert.Equal(t, "Иван", result.FullName)
	assert.Equal(t, int64(100), result.Balance)

	client, err := svc.GetByChatID(ctx, 123456789)
	require.NoError(t, err)
	assert.False(t, client.ProfileCompleted, "no last name at creation leaves the profile incomplete")
}

func TestResolveOrCreate_IdempotentPerPhone(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryClientRepository())

	first, err := svc.ResolveOrCreate(ctx, ContactInput{
		RawPhone:  "89001234567",
		ChatID:    111,
		FirstName: "Иван",
		LastName:  "Петров",
	})
	require.NoError(t, err)
	require.True(t, first.IsNewClient)

	// Different spelling, different chat identity: same client, rebound chat.
	second, err := svc.ResolveOrCreate(ctx, ContactInput{
		RawPhone:  "+7 (900) 123-45-67",
		ChatID:    222,
		FirstName: "Иван",
	})
	require.NoError(t, err)

	assert.False(t, second.IsNewClient)
	assert.Equal(t, first.ClientID, second.ClientID)
	assert.Equal(t, first.CardNumber, second.CardNumber)

	client, err := svc.GetByChatID(ctx, 222)
	require.NoError(t, err)
	assert.Equal(t, first.ClientID, client.ID)
}

func TestResolveOrCreate_RebindDropsOldChatCache(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cache := clientcache.NewCache(rdb)
	svc := NewService(repository.NewMemoryClientRepository(), cache, nil, testLogger(), func() int64 { return 100 })

	first, err := svc.ResolveOrCreate(ctx, ContactInput{
		RawPhone:  "+79001234567",
		ChatID:    1,
		FirstName: "Иван",
	})
	require.NoError(t, err)
	require.True(t, first.IsNewClient)

	// Same phone from a new chat rebinds the client.
	second, err := svc.ResolveOrCreate(ctx, ContactInput{
		RawPhone:  "89001234567",
		ChatID:    2,
		FirstName: "Иван",
	})
	require.NoError(t, err)
	require.False(t, second.IsNewClient)

	// The old chat must stop resolving the client right away, cached or not.
	_, err = svc.GetByChatID(ctx, 1)
	assert.ErrorIs(t, err, ErrClientNotFound)

	client, err := svc.GetByChatID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, first.ClientID, client.ID)
	assert.Equal(t, int64(2), client.TelegramID)
}

func TestResolveOrCreate_FallbackFullName(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryClientRepository())

	result, err := svc.ResolveOrCreate(ctx, ContactInput{
		RawPhone: "9001234567",
		ChatID:   1,
	})
	require.NoError(t, err)
	assert.Equal(t, "Клиент 1", result.FullName)
}

func TestResolveOrCreate_ConcurrentSamePhone(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryClientRepository())

	const callers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		cards   = make(map[string]struct{})
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()

			result, err := svc.ResolveOrCreate(ctx, ContactInput{
				RawPhone:  "89001234567",
				ChatID:    chatID,
				FirstName: "Иван",
			})
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if result.IsNewClient {
				created++
			}
			cards[result.CardNumber] = struct{}{}
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Len(t, cards, 1)
}

func TestCompleteProfile(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryClientRepository()
	svc := newTestService(repo)

	result, err := svc.ResolveOrCreate(ctx, ContactInput{
		RawPhone:  "+79001234567",
		ChatID:    42,
		FirstName: "Иван",
	})
	require.NoError(t, err)

	require.NoError(t, svc.CompleteProfile(ctx, result.ClientID, 42, "Алексей"))

	client, err := svc.GetByChatID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Алексей", client.FullName)
	assert.True(t, client.ProfileCompleted)
}

type recordingNotifier struct {
	mu  sync.Mutex
	ids []int64
}

func (n *recordingNotifier) NotifyNewClient(_ context.Context, clientID int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, clientID)
	return nil
}

func TestResolveOrCreate_NotifiesOnlyNewClients(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	svc := NewService(repository.NewMemoryClientRepository(), nil, notifier, testLogger(), func() int64 { return 100 })

	first, err := svc.ResolveOrCreate(ctx, ContactInput{RawPhone: "+79001234567", ChatID: 1, FirstName: "Иван"})
	require.NoError(t, err)

	_, err = svc.ResolveOrCreate(ctx, ContactInput{RawPhone: "+79001234567", ChatID: 2, FirstName: "Иван"})
	require.NoError(t, err)

	assert.Equal(t, []int64{first.ClientID}, notifier.ids)
}
