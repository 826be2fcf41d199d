package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/scriba-app/scriba/pkg/api"
)

//go:generate moq -out client_mock.go . ClientAPI

// ClientAPI is the server-facing surface used by the auth service and the
// sync reconciler.
type ClientAPI interface {
	// Register creates a new account.
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)

	// Login exchanges credentials for a token pair.
	Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error)

	// Refresh exchanges a refresh token for a fresh token pair.
	Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error)

	// Logout revokes the session server-side.
	Logout(ctx context.Context, accessToken string) error

	// CreateNote creates a note and returns it with its canonical ID and
	// version 1. Replaying the same ClientRef returns the note created
	// the first time.
	CreateNote(ctx context.Context, accessToken string, req api.CreateNoteRequest) (*api.Note, error)

	// GetNote fetches the current server state of one note.
	// Returns ErrNotFound if it doesn't exist.
	GetNote(ctx context.Context, accessToken, noteID string) (*api.Note, error)

	// ListNotes fetches notes changed since the given watermark
	// (unix nanoseconds; 0 means everything).
	ListNotes(ctx context.Context, accessToken string, since int64) (*api.ListNotesResponse, error)

	// UpdateNote applies a patch against a base version. A stale base
	// yields *ConflictError carrying the server's current note.
	UpdateNote(ctx context.Context, accessToken, noteID string, req api.UpdateNoteRequest) (*api.Note, error)

	// DeleteNote removes a note. Deleting an absent note succeeds.
	DeleteNote(ctx context.Context, accessToken, noteID string) error
}

// Client is the HTTP client for the notes server
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Keep the Authorization header across redirects
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Register creates a new account
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", "", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login exchanges credentials for a token pair
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", "", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Refresh exchanges a refresh token for a fresh token pair
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/refresh", refreshToken, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return &resp, nil
}

// Logout revokes the session server-side
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/logout", accessToken, nil, nil)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// CreateNote creates a note on the server
func (c *Client) CreateNote(ctx context.Context, accessToken string, req api.CreateNoteRequest) (*api.Note, error) {
	var resp api.Note
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/notes", accessToken, req, &resp)
	if err != nil {
		return nil, fmt.Errorf("create note request failed: %w", err)
	}
	return &resp, nil
}

// GetNote fetches the current server state of one note
func (c *Client) GetNote(ctx context.Context, accessToken, noteID string) (*api.Note, error) {
	var resp api.Note
	path := "/api/v1/notes/" + url.PathEscape(noteID)
	err := c.doRequest(ctx, http.MethodGet, path, accessToken, nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListNotes fetches notes changed since the given watermark
func (c *Client) ListNotes(ctx context.Context, accessToken string, since int64) (*api.ListNotesResponse, error) {
	var resp api.ListNotesResponse
	path := "/api/v1/notes"
	if since > 0 {
		path += "?since=" + strconv.FormatInt(since, 10)
	}
	err := c.doRequest(ctx, http.MethodGet, path, accessToken, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("list notes request failed: %w", err)
	}
	return &resp, nil
}

// UpdateNote applies a patch against a base version
func (c *Client) UpdateNote(ctx context.Context, accessToken, noteID string, req api.UpdateNoteRequest) (*api.Note, error) {
	var resp api.Note
	path := "/api/v1/notes/" + url.PathEscape(noteID)
	err := c.doRequest(ctx, http.MethodPatch, path, accessToken, req, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteNote removes a note from the server
func (c *Client) DeleteNote(ctx context.Context, accessToken, noteID string) error {
	path := "/api/v1/notes/" + url.PathEscape(noteID)
	err := c.doRequest(ctx, http.MethodDelete, path, accessToken, nil, nil)
	if err != nil {
		return fmt.Errorf("delete note request failed: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request and decodes the response
func (c *Client) doRequest(ctx context.Context, method, path, accessToken string, body, result any) error {
	reqURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// apiError maps a non-2xx response to a typed error.
func apiError(statusCode int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		msg = errResp.Message
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &ValidationError{Message: msg}
	case http.StatusConflict:
		// 409 also covers non-versioning conflicts (duplicate username),
		// so only the version_conflict body becomes a ConflictError.
		var conflict api.ConflictResponse
		if err := json.Unmarshal(body, &conflict); err == nil && conflict.Error == "version_conflict" {
			if conflict.CurrentNote.ID == "" {
				return &ConflictError{}
			}
			current := conflict.CurrentNote
			return &ConflictError{CurrentNote: &current}
		}
		return &ServerError{StatusCode: statusCode, Message: msg}
	default:
		return &ServerError{StatusCode: statusCode, Message: msg}
	}
}
