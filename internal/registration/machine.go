package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	chatLockKeyPattern = "registration:lock:%d"
	lockTTL            = 5 * time.Second
)

var (
	// ErrInvalidTransition indicates that a requested workflow transition is not allowed.
	ErrInvalidTransition = errors.New("invalid registration transition")
	// ErrSessionNotFound indicates that a workflow session does not exist for the chat.
	ErrSessionNotFound = errors.New("registration session not found")
	// ErrSessionLocked indicates that a concurrent operation already holds the chat lock.
	ErrSessionLocked = errors.New("registration session is locked, try again later")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe workflow transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// Machine describes the operations supported by the workflow controller.
type Machine interface {
	GetSession(ctx context.Context, chatID int64) (*Session, error)
	SetSession(ctx context.Context, chatID int64, state State, clientID int64) error
	TransitionTo(ctx context.Context, chatID int64, newState State) error
	ClearSession(ctx context.Context, chatID int64) error
}

// machine is a concrete Machine backed by Storage and Redis locking. The
// lock serializes double-taps from the same chat; cross-chat requests never
// contend.
type machine struct {
	storage     Storage
	log         *slog.Logger
	redisClient *redis.Client
}

// NewMachine creates a workflow controller using the provided storage backend
// and redis client for locking. redisClient may be nil in single-instance
// setups, in which case locking is skipped.
func NewMachine(storage Storage, log *slog.Logger, redisClient *redis.Client) Machine {
	if log == nil {
		log = slog.Default()
	}

	return &machine{
		storage:     storage,
		log:         log,
		redisClient: redisClient,
	}
}

// GetSession proxies to the underlying storage implementation.
func (m *machine) GetSession(ctx context.Context, chatID int64) (*Session, error) {
	return m.storage.GetSession(ctx, chatID)
}

// SetSession stores the state and client id for the chat under the lock.
func (m *machine) SetSession(ctx context.Context, chatID int64, state State, clientID int64) error {
	if err := m.lock(ctx, chatID); err != nil {
		return err
	}
	defer m.unlock(ctx, chatID)

	return m.saveSession(ctx, chatID, state, clientID)
}

// TransitionTo changes the state if the transition is allowed, guarded by the
// lock. The stored client id is carried over.
func (m *machine) TransitionTo(ctx context.Context, chatID int64, newState State) error {
	if err := m.lock(ctx, chatID); err != nil {
		return err
	}
	defer m.unlock(ctx, chatID)

	current := StateUnauthenticated
	var clientID int64

	stored, err := m.storage.GetSession(ctx, chatID)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			return err
		}
	} else if stored != nil {
		current = stored.CurrentState
		clientID = stored.ClientID
	}

	if !IsTransitionAllowed(current, newState) {
		m.log.Warn("invalid registration transition", "chat_id", chatID, "from", current, "to", newState)
		return ErrInvalidTransition
	}

	transitionRecorder(string(current), string(newState))

	return m.saveSession(ctx, chatID, newState, clientID)
}

// ClearSession removes the stored session while holding the lock.
func (m *machine) ClearSession(ctx context.Context, chatID int64) error {
	if err := m.lock(ctx, chatID); err != nil {
		return err
	}
	defer m.unlock(ctx, chatID)

	return m.storage.ClearSession(ctx, chatID)
}

func (m *machine) saveSession(ctx context.Context, chatID int64, state State, clientID int64) error {
	session := &Session{
		ChatID:       chatID,
		CurrentState: state,
		ClientID:     clientID,
	}

	return m.storage.SetSession(ctx, chatID, session)
}

func (m *machine) lock(ctx context.Context, chatID int64) error {
	if m.redisClient == nil {
		return nil
	}

	key := fmt.Sprintf(chatLockKeyPattern, chatID)
	acquired, err := m.redisClient.SetNX(ctx, key, 1, lockTTL).Result()
	if err != nil {
		m.log.Error("failed to acquire registration lock", "chat_id", chatID, "error", err)
		return err
	}

	if !acquired {
		m.log.Warn("registration lock already held", "chat_id", chatID)
		return ErrSessionLocked
	}

	return nil
}

func (m *machine) unlock(ctx context.Context, chatID int64) {
	if m.redisClient == nil {
		return
	}

	key := fmt.Sprintf(chatLockKeyPattern, chatID)
	if err := m.redisClient.Del(ctx, key).Err(); err != nil {
		m.log.Error("failed to release registration lock", "chat_id", chatID, "error", err)
	}
}
