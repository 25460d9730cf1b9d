package models

// User represents a chat account known to the bot.
//
// The ID is the external chat-account identifier, not a generated one.
// A user belongs to at most one group at a time.
type User struct {
	// ID is the external chat-account ID.
	ID int64

	// GroupID is the group the user belongs to, empty when unaffiliated.
	GroupID string

	// FirstName is the display name used in sprint reports.
	FirstName string

	// CreatedAt is the Unix timestamp when the user was first seen.
	CreatedAt int64
}
