package storage

import (
	"context"
	"time"
)

// AuthStorage stores the client session on disk.
type AuthStorage interface {
	// SaveAuth stores the session, replacing any existing one.
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves the stored session.
	// Returns ErrAuthNotFound if no session exists.
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes the stored session (logout).
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated reports whether a non-expired session exists.
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData is the persisted session for the logged-in user.
type AuthData struct {
	ExpiresAt    time.Time `json:"expires_at"`
	Username     string    `json:"username"`
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
}

// Expired reports whether the access token is past its expiry.
func (a *AuthData) Expired() bool {
	return !a.ExpiresAt.IsZero() && time.Now().After(a.ExpiresAt)
}
