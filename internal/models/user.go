package models

import "time"

// User is a registered account on the server.
type User struct {
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	ID           string     `json:"id"`       // UUID
	Username     string     `json:"username"` // unique
	PasswordHash string     `json:"-"`        // bcrypt hash, never serialized
}

// RefreshToken is a long-lived credential exchanged for fresh access
// tokens. Stored server-side so logout can revoke it.
type RefreshToken struct {
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
}
