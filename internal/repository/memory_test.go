package repository

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_FindOrCreateByPhone(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryClientRepository()

	first, err := repo.FindOrCreateByPhone(ctx, NewClientParams{
		TelegramID:   100,
		Phone:        "+79001234567",
		FirstName:    "Иван",
		LastName:     "Петров",
		WelcomeBonus: 100,
	})
	require.NoError(t, err)
	require.True(t, first.Created)
	created := first.Client
	assert.Equal(t, "1", created.CardNumber)
	assert.Equal(t, "Петров Иван", created.FullName)
	assert.Equal(t, int64(100), created.Balance)
	assert.True(t, created.ProfileCompleted)
	assert.Zero(t, first.PreviousTelegramID)

	// Same phone from a different chat must reuse the record and rebind it,
	// reporting the chat identity it was bound to before.
	second, err := repo.FindOrCreateByPhone(ctx, NewClientParams{
		TelegramID:   200,
		Phone:        "+79001234567",
		FirstName:    "Иван",
		WelcomeBonus: 100,
	})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, created.ID, second.Client.ID)
	assert.Equal(t, created.CardNumber, second.Client.CardNumber)
	assert.Equal(t, int64(200), second.Client.TelegramID)
	assert.Equal(t, int64(100), second.PreviousTelegramID)

	// Resolving again from the same chat is not a rebind.
	third, err := repo.FindOrCreateByPhone(ctx, NewClientParams{
		TelegramID: 200,
		Phone:      "+79001234567",
		FirstName:  "Иван",
	})
	require.NoError(t, err)
	assert.Zero(t, third.PreviousTelegramID)
}

func TestMemoryRepository_CreateWithoutLastName(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryClientRepository()

	res, err := repo.FindOrCreateByPhone(ctx, NewClientParams{
		TelegramID:   300,
		Phone:        "+79005555555",
		FirstName:    "Алексей",
		WelcomeBonus: 100,
	})
	require.NoError(t, err)
	require.True(t, res.Created)
	assert.Equal(t, "Алексей", res.Client.FullName)
	assert.False(t, res.Client.ProfileCompleted)
}

func TestMemoryRepository_CardNumbersAreSequential(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryClientRepository()

	for i := 1; i <= 5; i++ {
		res, err := repo.FindOrCreateByPhone(ctx, NewClientParams{
			TelegramID: int64(i),
			Phone:      "+7900000000" + strconv.Itoa(i),
			FirstName:  "Тест",
		})
		require.NoError(t, err)
		require.True(t, res.Created)
		assert.Equal(t, strconv.Itoa(i), res.Client.CardNumber)
	}
}

func TestMemoryRepository_ConcurrentSamePhone(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryClientRepository()

	const callers = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		newOnes int
		ids     = make(map[int64]struct{})
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()

			res, err := repo.FindOrCreateByPhone(ctx, NewClientParams{
				TelegramID: chatID,
				Phone:      "+79001234567",
				FirstName:  "Иван",
			})
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if res.Created {
				newOnes++
			}
			ids[res.Client.ID] = struct{}{}
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 1, newOnes, "exactly one caller must create the client")
	assert.Len(t, ids, 1)
}

func TestMemoryRepository_ConcurrentDistinctPhones(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryClientRepository()

	const callers = 32
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		cards = make(map[string]struct{})
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			res, err := repo.FindOrCreateByPhone(ctx, NewClientParams{
				TelegramID: int64(n),
				Phone:      "+7900123" + strconv.Itoa(4000+n),
				FirstName:  "Тест",
			})
			if !assert.NoError(t, err) || !assert.True(t, res.Created) {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			cards[res.Client.CardNumber] = struct{}{}
		}(i)
	}
	wg.Wait()

	assert.Len(t, cards, callers, "every creation must receive a distinct card number")
}

func TestMemoryRepository_DeactivateExcludesFromPhoneLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryClientRepository()

	res, err := repo.FindOrCreateByPhone(ctx, NewClientParams{
		TelegramID: 1,
		Phone:      "+79001234567",
		FirstName:  "Иван",
	})
	require.NoError(t, err)
	client := res.Client

	require.NoError(t, repo.Deactivate(ctx, client.ID))

	_, err = repo.FindActiveByPhone(ctx, "+79001234567")
	assert.ErrorIs(t, err, ErrClientNotFound)

	// A fresh registration for the freed phone gets a new card, never a reused one.
	replacement, err := repo.FindOrCreateByPhone(ctx, NewClientParams{
		TelegramID: 2,
		Phone:      "+79001234567",
		FirstName:  "Мария",
	})
	require.NoError(t, err)
	assert.True(t, replacement.Created)
	assert.NotEqual(t, client.CardNumber, replacement.Client.CardNumber)
}

func TestMemoryRepository_CompleteProfile(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryClientRepository()

	res, err := repo.FindOrCreateByPhone(ctx, NewClientParams{
		TelegramID: 1,
		Phone:      "+79001234567",
		FirstName:  "Иван",
	})
	require.NoError(t, err)
	client := res.Client
	require.False(t, client.ProfileCompleted)

	require.NoError(t, repo.CompleteProfile(ctx, client.ID, "Алексей"))

	updated, err := repo.FindByTelegramID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Алексей", updated.FullName)
	assert.Equal(t, "Алексей", updated.FirstName)
	assert.True(t, updated.ProfileCompleted)

	assert.ErrorIs(t, repo.CompleteProfile(ctx, 9999, "Имя"), ErrClientNotFound)
}
