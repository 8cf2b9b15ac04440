package domain

import "time"

// AuthMethod tags how a client record was first authenticated.
type AuthMethod string

const (
	// AuthMethodPhoneContact marks clients created through Telegram contact sharing.
	AuthMethodPhoneContact AuthMethod = "phone_contact"
	// AuthMethodLegacy marks rows imported from the pre-phone-auth card registry.
	AuthMethodLegacy AuthMethod = "legacy"
)

// Client is the durable loyalty-program identity record stored in the database.
type Client struct {
	ID               int64
	TelegramID       int64
	CardNumber       string
	Phone            string
	FullName         string
	FirstName        string
	Balance          int64
	AuthMethod       AuthMethod
	ProfileCompleted bool
	IsActive         bool
	CreatedAt        time.Time
}
