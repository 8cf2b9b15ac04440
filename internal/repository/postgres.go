package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/rock-coffee/loyalty-bot/internal/apperrors"
	"github.com/rock-coffee/loyalty-bot/internal/domain"
)

const clientColumns = `
	id, telegram_id, card_number, phone, full_name, first_name,
	balance, auth_method, profile_completed, is_active, created_at
`

type clientRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewClientRepository creates a PostgreSQL-backed client repository.
func NewClientRepository(db *sql.DB, log *slog.Logger) ClientRepository {
	if log == nil {
		log = slog.Default()
	}

	return &clientRepository{
		db:  db,
		log: log,
	}
}

// FindOrCreateByPhone resolves the canonical phone to a client, creating one
// when no active record matches. Lookup, counter advance and insert run in a
// single transaction; unique-constraint races are retried, so concurrent
// calls for the same phone converge on one record.
func (r *clientRepository) FindOrCreateByPhone(ctx context.Context, params NewClientParams) (*Resolution, error) {
	var resolution *Resolution

	err := apperrors.WithRetry(ctx, func() error {
		var txErr error
		resolution, txErr = r.findOrCreateTx(ctx, params)
		if isUniqueViolation(txErr) {
			return apperrors.NewConflictError(txErr)
		}
		return txErr
	})
	if err != nil {
		return nil, err
	}

	return resolution, nil
}

func (r *clientRepository) findOrCreateTx(ctx context.Context, params NewClientParams) (*Resolution, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin resolve transaction: %w", err)
	}
	defer rollback(tx, r.log)

	existing, err := scanClient(tx.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE phone = $1 AND is_active = TRUE`,
		params.Phone,
	))
	switch {
	case err == nil:
		var previousTelegramID int64
		if existing.TelegramID != params.TelegramID {
			if _, err := tx.ExecContext(ctx,
				`UPDATE clients SET telegram_id = $1, updated_at = NOW() WHERE id = $2`,
				params.TelegramID, existing.ID,
			); err != nil {
				return nil, fmt.Errorf("rebind telegram id: %w", err)
			}
			previousTelegramID = existing.TelegramID
			existing.TelegramID = params.TelegramID
		}

		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit resolve transaction: %w", err)
		}
		return &Resolution{Client: existing, PreviousTelegramID: previousTelegramID}, nil

	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("select client by phone: %w", err)
	}

	cardNumber, err := nextCardNumber(ctx, tx)
	if err != nil {
		return nil, err
	}

	client := &domain.Client{
		TelegramID:       params.TelegramID,
		CardNumber:       cardNumber,
		Phone:            params.Phone,
		FullName:         domain.ComposeFullName(params.FirstName, params.LastName, cardNumber),
		FirstName:        params.FirstName,
		Balance:          params.WelcomeBonus,
		AuthMethod:       domain.AuthMethodPhoneContact,
		ProfileCompleted: params.LastName != "",
		IsActive:         true,
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO clients (
			telegram_id, card_number, phone, full_name, first_name,
			balance, auth_method, profile_completed, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
		RETURNING id, created_at
	`,
		client.TelegramID,
		client.CardNumber,
		client.Phone,
		client.FullName,
		client.FirstName,
		client.Balance,
		string(client.AuthMethod),
		client.ProfileCompleted,
	)
	if err := row.Scan(&client.ID, &client.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit resolve transaction: %w", err)
	}

	return &Resolution{Client: client, Created: true}, nil
}

// nextCardNumber advances the durable counter. The row update serializes
// concurrent allocations; a rolled-back transaction burns its value, which
// leaves a gap but never a duplicate.
func nextCardNumber(ctx context.Context, tx *sql.Tx) (string, error) {
	var next int64
	err := tx.QueryRowContext(ctx,
		`UPDATE card_counter SET last_value = last_value + 1 RETURNING last_value`,
	).Scan(&next)
	if err != nil {
		return "", fmt.Errorf("advance card counter: %w", err)
	}

	return fmt.Sprintf("%d", next), nil
}

// FindByID retrieves a client by its primary identifier.
func (r *clientRepository) FindByID(ctx context.Context, clientID int64) (*domain.Client, error) {
	client, err := scanClient(r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`,
		clientID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("select client by id: %w", err)
	}

	return client, nil
}

// FindActiveByPhone retrieves the active client holding the canonical phone.
func (r *clientRepository) FindActiveByPhone(ctx context.Context, phone string) (*domain.Client, error) {
	client, err := scanClient(r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE phone = $1 AND is_active = TRUE`,
		phone,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("select client by phone: %w", err)
	}

	return client, nil
}

// FindByTelegramID retrieves the active client bound to a Telegram chat identity.
func (r *clientRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.Client, error) {
	client, err := scanClient(r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE telegram_id = $1 AND is_active = TRUE`,
		telegramID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}

		r.log.Error("failed to fetch client by telegram id", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
		return nil, fmt.Errorf("select client by telegram id: %w", err)
	}

	return client, nil
}

// FindByCardNumber retrieves a client by the human-facing card identifier.
func (r *clientRepository) FindByCardNumber(ctx context.Context, cardNumber string) (*domain.Client, error) {
	client, err := scanClient(r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE card_number = $1`,
		cardNumber,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("select client by card number: %w", err)
	}

	return client, nil
}

// CompleteProfile stores the validated display name and marks the profile
// completed. profile_completed never transitions back to false here.
func (r *clientRepository) CompleteProfile(ctx context.Context, clientID int64, name string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE clients
		SET full_name = $1, first_name = $1, profile_completed = TRUE, updated_at = NOW()
		WHERE id = $2 AND is_active = TRUE
	`, name, clientID)
	if err != nil {
		r.log.Error("failed to complete profile", slog.Int64("client_id", clientID), slog.Any("error", err))
		return fmt.Errorf("update client name: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update client name: %w", err)
	}
	if affected == 0 {
		return ErrClientNotFound
	}

	return nil
}

// Deactivate soft-deletes the client, excluding it from phone lookups.
func (r *clientRepository) Deactivate(ctx context.Context, clientID int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE clients SET is_active = FALSE, updated_at = NOW() WHERE id = $1`,
		clientID,
	)
	if err != nil {
		return fmt.Errorf("deactivate client: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate client: %w", err)
	}
	if affected == 0 {
		return ErrClientNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*domain.Client, error) {
	var (
		client     domain.Client
		phone      sql.NullString
		authMethod string
	)

	if err := row.Scan(
		&client.ID,
		&client.TelegramID,
		&client.CardNumber,
		&phone,
		&client.FullName,
		&client.FirstName,
		&client.Balance,
		&authMethod,
		&client.ProfileCompleted,
		&client.IsActive,
		&client.CreatedAt,
	); err != nil {
		return nil, err
	}

	// Legacy rows imported before phone auth may carry a NULL phone.
	client.Phone = phone.String
	client.AuthMethod = domain.AuthMethod(authMethod)

	return &client, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}

func rollback(tx *sql.Tx, log *slog.Logger) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) && log != nil {
		log.Error("transaction rollback failed", slog.Any("error", err))
	}
}
