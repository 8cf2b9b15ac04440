package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Manager describes the minimal queue operations needed by the application.
type Manager interface {
	NotifyNewClient(ctx context.Context, clientID int64) error
	Close() error
}

type manager struct {
	client *asynq.Client
	log    *slog.Logger
}

// NewManager builds a Manager backed by an asynq client.
func NewManager(redisOpt asynq.RedisConnOpt, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		client: asynq.NewClient(redisOpt),
		log:    log,
	}
}

// NotifyNewClient enqueues the welcome notification for the client. It
// satisfies the registry's Notifier contract.
func (m *manager) NotifyNewClient(ctx context.Context, clientID int64) error {
	task, err := NewWelcomeTask(clientID)
	if err != nil {
		return err
	}

	info, err := m.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue welcome task: %w", err)
	}

	m.log.Debug("welcome task enqueued",
		slog.Int64("client_id", clientID),
		slog.String("task_id", info.ID),
	)

	return nil
}

func (m *manager) Close() error {
	return m.client.Close()
}
