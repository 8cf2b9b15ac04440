package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rock-coffee/loyalty-bot/internal/apperrors"
	"github.com/rock-coffee/loyalty-bot/internal/domain"
	"github.com/rock-coffee/loyalty-bot/internal/name"
	"github.com/rock-coffee/loyalty-bot/internal/phone"
	"github.com/rock-coffee/loyalty-bot/internal/registry"
	"github.com/rock-coffee/loyalty-bot/pkg/metrics"
)

// ErrNotAwaitingName indicates that a name or skip event arrived while the
// chat is not in the name-capture window.
var ErrNotAwaitingName = errors.New("chat is not awaiting a name")

// ErrInvalidPhone indicates the shared contact does not normalize to a valid
// number, so no client may be keyed on it. The chat stays in contact capture.
var ErrInvalidPhone = apperrors.NewValidationError("номер телефона не распознан")

// ContactEvent carries a contact share delivered by the chat transport.
type ContactEvent struct {
	ChatID    int64
	Phone     string
	FirstName string
	LastName  string
}

// NameOutcome reports how a submitted name was classified. Reason is one of
// the name package sentinels when the submission was rejected.
type NameOutcome struct {
	Accepted bool
	Name     string
	Reason   error
}

// Workflow drives the registration state machine on top of the client
// registry and the name validator.
type Workflow struct {
	machine Machine
	clients *registry.Service
	log     *slog.Logger
}

// NewWorkflow constructs a Workflow.
func NewWorkflow(machine Machine, clients *registry.Service, log *slog.Logger) *Workflow {
	if log == nil {
		log = slog.Default()
	}

	return &Workflow{
		machine: machine,
		clients: clients,
		log:     log,
	}
}

// CurrentSession returns the stored session for the chat, or a synthetic
// unauthenticated session when none exists.
func (w *Workflow) CurrentSession(ctx context.Context, chatID int64) (*Session, error) {
	session, err := w.machine.GetSession(ctx, chatID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return &Session{ChatID: chatID, CurrentState: StateUnauthenticated}, nil
		}
		return nil, err
	}

	return session, nil
}

// ResumeReturning fast-paths a chat whose identity is already bound to an
// active client: the workflow completes immediately without a contact prompt.
func (w *Workflow) ResumeReturning(ctx context.Context, chatID int64) (*domain.Client, error) {
	client, err := w.clients.GetByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, registry.ErrClientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("resume returning client: %w", err)
	}

	if err := w.machine.TransitionTo(ctx, chatID, StateCompleted); err != nil {
		return nil, err
	}

	return client, nil
}

// BeginContactCapture marks the chat as waiting for a shared contact.
func (w *Workflow) BeginContactCapture(ctx context.Context, chatID int64) error {
	return w.machine.TransitionTo(ctx, chatID, StateAwaitingContact)
}

// HandleContact resolves the shared contact through the registry. A contact
// whose number does not normalize to a valid phone is rejected before any
// record is touched. A returning client completes immediately; a new client
// enters the name-capture window with its id carried in the session.
func (w *Workflow) HandleContact(ctx context.Context, event ContactEvent) (*registry.Result, error) {
	if !phone.IsValid(phone.Normalize(event.Phone)) {
		w.log.Info("contact rejected",
			slog.Int64("chat_id", event.ChatID),
			slog.String("reason", "invalid_phone"),
		)
		return nil, ErrInvalidPhone
	}

	result, err := w.clients.ResolveOrCreate(ctx, registry.ContactInput{
		RawPhone:  event.Phone,
		ChatID:    event.ChatID,
		FirstName: event.FirstName,
		LastName:  event.LastName,
	})
	if err != nil {
		return nil, err
	}

	if result.IsNewClient {
		if err := w.machine.SetSession(ctx, event.ChatID, StateAwaitingName, result.ClientID); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := w.machine.TransitionTo(ctx, event.ChatID, StateCompleted); err != nil {
		return nil, err
	}

	return result, nil
}

// HandleName classifies a text submission made inside the name-capture
// window. A rejected name keeps the chat in the window so the user can try
// again; an accepted name is persisted and completes the workflow.
func (w *Workflow) HandleName(ctx context.Context, chatID int64, text string) (*NameOutcome, error) {
	session, err := w.awaitingNameSession(ctx, chatID)
	if err != nil {
		return nil, err
	}

	normalized, validationErr := name.Validate(text)
	if validationErr != nil {
		metrics.RecordNameValidation(rejectionLabel(validationErr))
		w.log.Info("name rejected",
			slog.Int64("chat_id", chatID),
			slog.String("reason", rejectionLabel(validationErr)),
		)

		return &NameOutcome{Accepted: false, Reason: validationErr}, nil
	}

	if err := w.clients.CompleteProfile(ctx, session.ClientID, chatID, normalized); err != nil {
		return nil, err
	}

	if err := w.machine.TransitionTo(ctx, chatID, StateCompleted); err != nil {
		return nil, err
	}

	metrics.RecordNameValidation("accepted")

	return &NameOutcome{Accepted: true, Name: normalized}, nil
}

// HandleSkip completes the workflow without modifying the client; the name
// seeded from contact data stands.
func (w *Workflow) HandleSkip(ctx context.Context, chatID int64) error {
	if _, err := w.awaitingNameSession(ctx, chatID); err != nil {
		return err
	}

	return w.machine.TransitionTo(ctx, chatID, StateCompleted)
}

// Reset clears the chat session, restarting the workflow from scratch.
func (w *Workflow) Reset(ctx context.Context, chatID int64) error {
	return w.machine.ClearSession(ctx, chatID)
}

func (w *Workflow) awaitingNameSession(ctx context.Context, chatID int64) (*Session, error) {
	session, err := w.machine.GetSession(ctx, chatID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrNotAwaitingName
		}
		return nil, err
	}

	if session.CurrentState != StateAwaitingName {
		return nil, ErrNotAwaitingName
	}

	return session, nil
}

func rejectionLabel(err error) string {
	switch {
	case errors.Is(err, name.ErrEmpty):
		return "empty"
	case errors.Is(err, name.ErrMultiWord):
		return "multi_word"
	case errors.Is(err, name.ErrInvalidChars):
		return "invalid_chars"
	case errors.Is(err, name.ErrTooShort):
		return "too_short"
	case errors.Is(err, name.ErrTooLong):
		return "too_long"
	default:
		return "unknown"
	}
}
