package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	httpClient "github.com/scriba-app/scriba/internal/client/api"
	"github.com/scriba-app/scriba/internal/client/storage"
	"github.com/scriba-app/scriba/internal/validation"
	"github.com/scriba-app/scriba/pkg/api"
)

//go:generate moq -out service_mock.go . Service

// tokenRefreshMargin is how close to expiry an access token may get
// before AccessToken refreshes the pair instead of handing it out.
const tokenRefreshMargin = 30 * time.Second

// Service owns the account lifecycle and the locally stored session.
type Service interface {
	// Register creates a server account. It does not establish a
	// session; call Login afterwards.
	Register(ctx context.Context, username, password string) (*api.RegisterResponse, error)

	// Login authenticates against the server and stores the session
	// locally.
	Login(ctx context.Context, username, password string) (*storage.AuthData, error)

	// Logout revokes the session server-side (best effort) and always
	// clears the local copy.
	Logout(ctx context.Context) error

	// Session returns the stored session.
	// Returns storage.ErrAuthNotFound when nobody is logged in.
	Session(ctx context.Context) (*storage.AuthData, error)

	// AccessToken returns a currently valid access token, refreshing
	// the pair behind the scenes when it is about to lapse. Returns
	// ErrSessionExpired when the refresh token itself was rejected.
	AccessToken(ctx context.Context) (string, error)

	// IsAuthenticated reports whether a usable session exists.
	IsAuthenticated(ctx context.Context) (bool, error)
}

type service struct {
	apiClient httpClient.ClientAPI
	store     storage.AuthStorage
	logger    *slog.Logger

	// refreshMu single-flights token refreshes; concurrent callers wait
	// and reuse the fresh pair instead of racing the server.
	refreshMu sync.Mutex
}

// NewService creates the auth service.
func NewService(apiClient httpClient.ClientAPI, store storage.AuthStorage, logger *slog.Logger) Service {
	return &service{
		apiClient: apiClient,
		store:     store,
		logger:    logger,
	}
}

func (s *service) Register(ctx context.Context, username, password string) (*api.RegisterResponse, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.apiClient.Register(ctx, api.RegisterRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	s.logger.Info("account registered", "username", username, "user_id", resp.UserID)
	return resp, nil
}

func (s *service) Login(ctx context.Context, username, password string) (*storage.AuthData, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.apiClient.Login(ctx, api.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	auth := sessionFromTokens(resp)
	if err := s.store.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("logged in", "username", auth.Username, "user_id", auth.UserID)
	return auth, nil
}

func (s *service) Logout(ctx context.Context) error {
	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		s.logger.Debug("no session found during logout", "error", err)
	} else if logoutErr := s.apiClient.Logout(ctx, auth.AccessToken); logoutErr != nil {
		// The server may be unreachable; the local session goes anyway.
		s.logger.Warn("failed to logout on server", "error", logoutErr)
	}

	if err := s.store.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete local session: %w", err)
	}

	s.logger.Info("logged out")
	return nil
}

func (s *service) Session(ctx context.Context) (*storage.AuthData, error) {
	return s.store.GetAuth(ctx)
}

func (s *service) AccessToken(ctx context.Context) (string, error) {
	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		return "", err
	}
	if time.Until(auth.ExpiresAt) > tokenRefreshMargin {
		return auth.AccessToken, nil
	}
	return s.refresh(ctx)
}

func (s *service) IsAuthenticated(ctx context.Context) (bool, error) {
	return s.store.IsAuthenticated(ctx)
}

func (s *service) refresh(ctx context.Context) (string, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		return "", err
	}
	if time.Until(auth.ExpiresAt) > tokenRefreshMargin {
		return auth.AccessToken, nil
	}

	resp, err := s.apiClient.Refresh(ctx, auth.RefreshToken)
	if err != nil {
		if errors.Is(err, httpClient.ErrUnauthorized) {
			return "", ErrSessionExpired
		}
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	updated := sessionFromTokens(resp)
	if updated.UserID == "" {
		updated.UserID = auth.UserID
	}
	if updated.Username == "" {
		updated.Username = auth.Username
	}
	if err := s.store.SaveAuth(ctx, updated); err != nil {
		return "", fmt.Errorf("failed to save refreshed session: %w", err)
	}

	s.logger.Debug("access token refreshed", "expires_at", updated.ExpiresAt)
	return updated.AccessToken, nil
}

func sessionFromTokens(resp *api.TokenResponse) *storage.AuthData {
	return &storage.AuthData{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		UserID:       resp.UserID,
		Username:     resp.Username,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
}
