// Package repository persists loyalty clients and owns the card-number counter.
package repository

import (
	"context"
	"errors"

	"github.com/rock-coffee/loyalty-bot/internal/domain"
)

// ErrClientNotFound indicates that no matching client record exists.
var ErrClientNotFound = errors.New("client not found")

// NewClientParams describes a prospective client for the find-or-create path.
// Phone must already be in canonical form.
type NewClientParams struct {
	TelegramID   int64
	Phone        string
	FirstName    string
	LastName     string
	WelcomeBonus int64
}

// Resolution is the outcome of FindOrCreateByPhone. PreviousTelegramID holds
// the chat identity the client was bound to before this call rebound it, and
// is zero when no rebinding took place.
type Resolution struct {
	Client             *domain.Client
	Created            bool
	PreviousTelegramID int64
}

// ClientRepository defines persistence operations for loyalty clients.
//
// FindOrCreateByPhone is the single atomic resolution step: lookup, card
// allocation and insert happen in one transaction so that two concurrent
// calls for the same phone produce exactly one client.
type ClientRepository interface {
	FindOrCreateByPhone(ctx context.Context, params NewClientParams) (*Resolution, error)
	FindByID(ctx context.Context, clientID int64) (*domain.Client, error)
	FindActiveByPhone(ctx context.Context, phone string) (*domain.Client, error)
	FindByTelegramID(ctx context.Context, telegramID int64) (*domain.Client, error)
	FindByCardNumber(ctx context.Context, cardNumber string) (*domain.Client, error)
	CompleteProfile(ctx context.Context, clientID int64, name string) error
	Deactivate(ctx context.Context, clientID int64) error
}
