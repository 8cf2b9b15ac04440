// Package registry resolves presented phone numbers to durable client
// identities and issues loyalty cards.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rock-coffee/loyalty-bot/internal/clientcache"
	"github.com/rock-coffee/loyalty-bot/internal/domain"
	"github.com/rock-coffee/loyalty-bot/internal/phone"
	"github.com/rock-coffee/loyalty-bot/internal/repository"
	"github.com/rock-coffee/loyalty-bot/pkg/metrics"
)

// ErrClientNotFound mirrors the repository sentinel for callers that do not
// import the storage layer.
var ErrClientNotFound = repository.ErrClientNotFound

// ContactInput carries the contact-share event delivered by the chat transport.
type ContactInput struct {
	RawPhone  string
	ChatID    int64
	FirstName string
	LastName  string
}

// Result is the resolution outcome exposed to the chat transport.
type Result struct {
	ClientID    int64
	IsNewClient bool
	CardNumber  string
	FullName    string
	Balance     int64
}

// Notifier delivers the asynchronous welcome notification for new clients.
type Notifier interface {
	NotifyNewClient(ctx context.Context, clientID int64) error
}

// Service provides business operations over loyalty clients.
type Service struct {
	repo         repository.ClientRepository
	cache        *clientcache.Cache
	notifier     Notifier
	log          *slog.Logger
	welcomeBonus func() int64
}

// NewService constructs a Service. cache and notifier may be nil; welcomeBonus
// is read per call so that configuration reloads take effect immediately.
func NewService(
	repo repository.ClientRepository,
	cache *clientcache.Cache,
	notifier Notifier,
	log *slog.Logger,
	welcomeBonus func() int64,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	if welcomeBonus == nil {
		welcomeBonus = func() int64 { return 0 }
	}

	return &Service{
		repo:         repo,
		cache:        cache,
		notifier:     notifier,
		log:          log,
		welcomeBonus: welcomeBonus,
	}
}

// ResolveOrCreate normalizes the presented phone and resolves it to exactly
// one client, creating the record with a fresh card number and the welcome
// bonus when no active client matches. The call is idempotent per phone:
// repeating it rebinds the chat identity and returns the same client.
func (s *Service) ResolveOrCreate(ctx context.Context, input ContactInput) (*Result, error) {
	canonical := phone.Normalize(input.RawPhone)

	started := time.Now()
	resolution, err := s.repo.FindOrCreateByPhone(ctx, repository.NewClientParams{
		TelegramID:   input.ChatID,
		Phone:        canonical,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		WelcomeBonus: s.welcomeBonus(),
	})
	if err != nil {
		s.logError("resolve_or_create", input.ChatID, err)
		return nil, fmt.Errorf("resolve client by phone: %w", err)
	}
	client, created := resolution.Client, resolution.Created

	result := "returning"
	if created {
		result = "new"
	}
	metrics.RecordRegistration(result, time.Since(started))

	// Rebinding moves the client to a new chat; the old chat must stop
	// resolving it immediately, not after the cache TTL.
	if old := resolution.PreviousTelegramID; old != 0 {
		if err := s.cache.Invalidate(ctx, old); err != nil {
			s.log.Warn("failed to invalidate rebound chat cache", slog.Int64("telegram_id", old), slog.Any("error", err))
		}
	}

	if err := s.cache.Set(ctx, client, clientcache.DefaultTTL); err != nil {
		s.log.Warn("failed to cache resolved client", slog.Int64("client_id", client.ID), slog.Any("error", err))
	}

	if created {
		s.log.Info("new client registered",
			slog.Int64("client_id", client.ID),
			slog.String("card_number", client.CardNumber),
		)

		if s.notifier != nil {
			if err := s.notifier.NotifyNewClient(ctx, client.ID); err != nil {
				s.log.Warn("failed to enqueue welcome notification", slog.Int64("client_id", client.ID), slog.Any("error", err))
			}
		}
	}

	return &Result{
		ClientID:    client.ID,
		IsNewClient: created,
		CardNumber:  client.CardNumber,
		FullName:    client.FullName,
		Balance:     client.Balance,
	}, nil
}

// GetByChatID returns the active client bound to the chat identity, used to
// fast-path returning users without a contact-share prompt.
func (s *Service) GetByChatID(ctx context.Context, chatID int64) (*domain.Client, error) {
	cached, err := s.cache.Get(ctx, chatID)
	if err != nil {
		s.log.Warn("client cache lookup failed", slog.Int64("telegram_id", chatID), slog.Any("error", err))
	}
	if cached != nil {
		return cached, nil
	}

	client, err := s.repo.FindByTelegramID(ctx, chatID)
	if err != nil {
		if !errors.Is(err, repository.ErrClientNotFound) {
			s.logError("get_by_chat_id", chatID, err)
		}
		return nil, err
	}

	if err := s.cache.Set(ctx, client, clientcache.DefaultTTL); err != nil {
		s.log.Warn("failed to cache client", slog.Int64("client_id", client.ID), slog.Any("error", err))
	}

	return client, nil
}

// GetByID returns the client with the given primary identifier.
func (s *Service) GetByID(ctx context.Context, clientID int64) (*domain.Client, error) {
	client, err := s.repo.FindByID(ctx, clientID)
	if err != nil {
		if !errors.Is(err, repository.ErrClientNotFound) {
			s.log.Error("failed to fetch client by id", slog.Int64("client_id", clientID), slog.Any("error", err))
		}
		return nil, err
	}

	return client, nil
}

// GetByCardNumber returns the client holding the card identifier.
func (s *Service) GetByCardNumber(ctx context.Context, cardNumber string) (*domain.Client, error) {
	client, err := s.repo.FindByCardNumber(ctx, cardNumber)
	if err != nil {
		if !errors.Is(err, repository.ErrClientNotFound) {
			s.log.Error("failed to fetch client by card number", slog.String("card_number", cardNumber), slog.Any("error", err))
		}
		return nil, err
	}

	return client, nil
}

// CompleteProfile stores the validated display name for the client and marks
// the profile completed. chatID identifies the cache entry to refresh.
func (s *Service) CompleteProfile(ctx context.Context, clientID, chatID int64, name string) error {
	if err := s.repo.CompleteProfile(ctx, clientID, name); err != nil {
		s.logError("complete_profile", chatID, err)
		return fmt.Errorf("complete profile: %w", err)
	}

	if err := s.cache.Invalidate(ctx, chatID); err != nil {
		s.log.Warn("failed to invalidate client cache", slog.Int64("telegram_id", chatID), slog.Any("error", err))
	}

	return nil
}

// Deactivate soft-deletes a client, freeing its phone for new registrations.
func (s *Service) Deactivate(ctx context.Context, clientID, chatID int64) error {
	if err := s.repo.Deactivate(ctx, clientID); err != nil {
		s.logError("deactivate", chatID, err)
		return fmt.Errorf("deactivate client: %w", err)
	}

	if err := s.cache.Invalidate(ctx, chatID); err != nil {
		s.log.Warn("failed to invalidate client cache", slog.Int64("telegram_id", chatID), slog.Any("error", err))
	}

	return nil
}

func (s *Service) logError(operation string, chatID int64, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("client registry operation failed",
		slog.String("operation", operation),
		slog.Int64("telegram_id", chatID),
		slog.Any("error", err),
	)
}
