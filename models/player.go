package models

import "time"

// Player is a session-scoped participant. ID is unique per connection;
// ExternalID (a linked account, e.g. a Telegram user) survives reconnects
// and drives identity-collision eviction on join.
type Player struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ExternalID string    `json:"externalId,omitempty"`
	JoinedAt   time.Time `json:"joinedAt"`
}
