// Package jobs enqueues and processes background tasks over Redis.
package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeWelcomeNotification delivers the welcome message to a new client.
const TypeWelcomeNotification = "client:welcome"

// WelcomePayload identifies the freshly created client to greet.
type WelcomePayload struct {
	ClientID int64 `json:"client_id"`
}

// NewWelcomeTask builds the welcome-notification task for the client.
func NewWelcomeTask(clientID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(WelcomePayload{ClientID: clientID})
	if err != nil {
		return nil, fmt.Errorf("marshal welcome payload: %w", err)
	}

	return asynq.NewTask(TypeWelcomeNotification, payload, asynq.MaxRetry(3)), nil
}
