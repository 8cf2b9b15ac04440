package repository

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rock-coffee/loyalty-bot/internal/domain"
)

// MemoryClientRepository is a mutex-guarded in-memory implementation of
// ClientRepository. It mirrors the transactional semantics of the SQL store
// (single-writer resolution, monotonic counter) and backs unit tests and
// local development without PostgreSQL.
type MemoryClientRepository struct {
	mu       sync.Mutex
	clients  map[int64]*domain.Client
	nextID   int64
	lastCard int64
}

// NewMemoryClientRepository creates an empty in-memory repository.
func NewMemoryClientRepository() *MemoryClientRepository {
	return &MemoryClientRepository{
		clients: make(map[int64]*domain.Client),
	}
}

// FindOrCreateByPhone resolves or creates a client under a single lock,
// giving the same one-creation-per-phone guarantee as the SQL transaction.
func (r *MemoryClientRepository) FindOrCreateByPhone(_ context.Context, params NewClientParams) (*Resolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, client := range r.clients {
		if client.IsActive && client.Phone == params.Phone {
			var previousTelegramID int64
			if client.TelegramID != params.TelegramID {
				previousTelegramID = client.TelegramID
				client.TelegramID = params.TelegramID
			}
			copied := *client
			return &Resolution{Client: &copied, PreviousTelegramID: previousTelegramID}, nil
		}
	}

	r.nextID++
	r.lastCard++
	cardNumber := strconv.FormatInt(r.lastCard, 10)

	client := &domain.Client{
		ID:               r.nextID,
		TelegramID:       params.TelegramID,
		CardNumber:       cardNumber,
		Phone:            params.Phone,
		FullName:         domain.ComposeFullName(params.FirstName, params.LastName, cardNumber),
		FirstName:        params.FirstName,
		Balance:          params.WelcomeBonus,
		AuthMethod:       domain.AuthMethodPhoneContact,
		ProfileCompleted: params.LastName != "",
		IsActive:         true,
		CreatedAt:        time.Now().UTC(),
	}
	r.clients[client.ID] = client

	copied := *client
	return &Resolution{Client: &copied, Created: true}, nil
}

// FindByID returns the client with the primary identifier.
func (r *MemoryClientRepository) FindByID(_ context.Context, clientID int64) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[clientID]
	if !ok {
		return nil, ErrClientNotFound
	}

	copied := *client
	return &copied, nil
}

// FindActiveByPhone returns the active client with the canonical phone.
func (r *MemoryClientRepository) FindActiveByPhone(_ context.Context, phone string) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, client := range r.clients {
		if client.IsActive && client.Phone == phone {
			copied := *client
			return &copied, nil
		}
	}

	return nil, ErrClientNotFound
}

// FindByTelegramID returns the active client bound to the chat identity.
func (r *MemoryClientRepository) FindByTelegramID(_ context.Context, telegramID int64) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, client := range r.clients {
		if client.IsActive && client.TelegramID == telegramID {
			copied := *client
			return &copied, nil
		}
	}

	return nil, ErrClientNotFound
}

// FindByCardNumber returns the client holding the card identifier.
func (r *MemoryClientRepository) FindByCardNumber(_ context.Context, cardNumber string) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, client := range r.clients {
		if client.CardNumber == cardNumber {
			copied := *client
			return &copied, nil
		}
	}

	return nil, ErrClientNotFound
}

// CompleteProfile stores the validated name and marks the profile completed.
func (r *MemoryClientRepository) CompleteProfile(_ context.Context, clientID int64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[clientID]
	if !ok || !client.IsActive {
		return ErrClientNotFound
	}

	client.FullName = name
	client.FirstName = name
	client.ProfileCompleted = true

	return nil
}

// Deactivate soft-deletes the client.
func (r *MemoryClientRepository) Deactivate(_ context.Context, clientID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[clientID]
	if !ok {
		return ErrClientNotFound
	}

	client.IsActive = false

	return nil
}

var _ ClientRepository = (*MemoryClientRepository)(nil)
