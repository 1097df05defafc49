package entities

import (
	"fmt"
	"time"
)

// User is a chat platform user known to the bot.
type User struct {
	// ID is the platform numeric id of the user.
	ID int64 `json:"telegram_id" bson:"telegram_id"`

	// Handle is the platform username, without the leading "@". Optional.
	Handle string `json:"username,omitempty" bson:"username,omitempty"`

	// FirstName is the display name of the user. Optional.
	FirstName string `json:"first_name,omitempty" bson:"first_name,omitempty"`

	// CreatedAt is when the user was first seen.
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	// LastActiveAt is refreshed every time the user starts a session.
	LastActiveAt time.Time `json:"last_active" bson:"last_active"`
}

// Display returns how the user is shown to the administrator. Messages are
// plain text, so users without a handle get a mention link built from their id.
func (u User) Display() string {
	if u.Handle != "" {
		return "@" + u.Handle
	}
	name := u.FirstName
	if name == "" {
		name = fmt.Sprintf("user %d", u.ID)
	}
	return fmt.Sprintf("%s (tg://user?id=%d)", name, u.ID)
}
