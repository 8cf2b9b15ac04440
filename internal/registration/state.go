package registration

import "time"

// State represents a registration workflow state.
type State string

const (
	// StateUnauthenticated indicates that the chat has no resolved client yet.
	StateUnauthenticated State = "unauthenticated"
	// StateAwaitingContact indicates that the bot asked the user to share a contact.
	StateAwaitingContact State = "awaiting_contact"
	// StateAwaitingName indicates that a newly created client may submit a display name or skip.
	StateAwaitingName State = "awaiting_name"
	// StateCompleted indicates that registration finished for this workflow instance.
	StateCompleted State = "completed"
)

// Session captures the current workflow state for a Telegram chat. ClientID
// is set while a freshly created client is being asked for a name.
type Session struct {
	ChatID       int64     `json:"chat_id"`
	CurrentState State     `json:"current_state"`
	ClientID     int64     `json:"client_id,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}
