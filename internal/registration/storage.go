// Package registration sequences the contact-capture workflow for each chat:
// contact share, optional display name, completion.
package registration

import "context"

// Storage defines the persistence contract for workflow sessions.
type Storage interface {
	// GetSession returns the current session for the specified chat.
	GetSession(ctx context.Context, chatID int64) (*Session, error)
	// SetSession saves the provided session for the specified chat.
	SetSession(ctx context.Context, chatID int64, session *Session) error
	// ClearSession removes the session for the specified chat.
	ClearSession(ctx context.Context, chatID int64) error
}
