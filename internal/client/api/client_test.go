package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriba-app/scriba/pkg/api"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL)

	assert.NotNil(t, client)
	assert.Equal(t, baseURL, client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client := NewClient("http://localhost:8080/")
	assert.Equal(t, "http://localhost:8080", client.baseURL)
}

func TestClient_Register(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/auth/register", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req api.RegisterRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)
		assert.Equal(t, "testuser", req.Username)
		assert.Equal(t, "sw0rdfish-pass", req.Password)

		w.WriteHeader(http.StatusCreated)
		resp := api.RegisterResponse{
			UserID:  "2afeb7d9-7aea-47af-a96e-bbfbf3b3a5bf",
			Message: "Registration successful",
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	resp, err := client.Register(ctx, api.RegisterRequest{
		Username: "testuser",
		Password: "sw0rdfish-pass",
	})

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "2afeb7d9-7aea-47af-a96e-bbfbf3b3a5bf", resp.UserID)
	assert.Equal(t, "Registration successful", resp.Message)
}

func TestClient_Register_Errors(t *testing.T) {
	tests := []struct {
		name           string
		responseBody   string
		expectedErrMsg string
		statusCode     int
	}{
		{
			name:           "user already exists",
			statusCode:     http.StatusConflict,
			responseBody:   `{"error":"conflict","message":"user already exists"}`,
			expectedErrMsg: "server error (409): user already exists",
		},
		{
			name:           "internal server error",
			statusCode:     http.StatusInternalServerError,
			responseBody:   "Internal Server Error",
			expectedErrMsg: "server error (500)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			resp, err := client.Register(context.Background(), api.RegisterRequest{
				Username: "testuser",
				Password: "password123",
			})

			require.Error(t, err)
			assert.Nil(t, resp)
			assert.Contains(t, err.Error(), tt.expectedErrMsg)
		})
	}
}

func TestClient_Login(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		resp := api.TokenResponse{
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
			UserID:       "user-123",
			Username:     "testuser",
			ExpiresIn:    900,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Login(context.Background(), api.LoginRequest{
		Username: "testuser",
		Password: "password123",
	})

	require.NoError(t, err)
	assert.Equal(t, "access-token", resp.AccessToken)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	assert.Equal(t, "user-123", resp.UserID)
	assert.Equal(t, int64(900), resp.ExpiresIn)
}

func TestClient_Login_InvalidCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Message: "invalid credentials"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Login(context.Background(), api.LoginRequest{
		Username: "testuser",
		Password: "wrong",
	})

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestClient_Refresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/auth/refresh", r.URL.Path)
		assert.Equal(t, "Bearer refresh-token", r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(api.TokenResponse{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Refresh(context.Background(), "refresh-token")

	require.NoError(t, err)
	assert.Equal(t, "new-access", resp.AccessToken)
	assert.Equal(t, "new-refresh", resp.RefreshToken)
}

func TestClient_Logout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/auth/logout", r.URL.Path)
		assert.Equal(t, "Bearer test_token", r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Logout(context.Background(), "test_token")

	require.NoError(t, err)
}

func TestClient_CreateNote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/notes", r.URL.Path)
		assert.Equal(t, "Bearer test_token", r.Header.Get("Authorization"))

		var req api.CreateNoteRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)
		assert.Equal(t, "ref-1", req.ClientRef)
		assert.Equal(t, "Groceries", req.Title)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.Note{
			ID:      "note-abc",
			OwnerID: "user-123",
			Title:   req.Title,
			Body:    req.Body,
			Version: 1,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	note, err := client.CreateNote(context.Background(), "test_token", api.CreateNoteRequest{
		ClientRef: "ref-1",
		Title:     "Groceries",
		Body:      "milk, eggs",
	})

	require.NoError(t, err)
	assert.Equal(t, "note-abc", note.ID)
	assert.Equal(t, int64(1), note.Version)
}

func TestClient_GetNote_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Message: "note not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	note, err := client.GetNote(context.Background(), "test_token", "missing")

	require.Error(t, err)
	assert.Nil(t, note)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_ListNotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/v1/notes", r.URL.Path)
		assert.Equal(t, "12345", r.URL.Query().Get("since"))

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(api.ListNotesResponse{
			Notes: []api.Note{
				{ID: "note-1", Version: 3},
				{ID: "note-2", Version: 1},
			},
			ServerTime: 67890,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.ListNotes(context.Background(), "test_token", 12345)

	require.NoError(t, err)
	require.Len(t, resp.Notes, 2)
	assert.Equal(t, int64(67890), resp.ServerTime)
}

func TestClient_ListNotes_NoSince(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("since"))

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(api.ListNotesResponse{})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.ListNotes(context.Background(), "test_token", 0)
	require.NoError(t, err)
}

func TestClient_UpdateNote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PATCH", r.Method)
		assert.Equal(t, "/api/v1/notes/note-abc", r.URL.Path)

		var req api.UpdateNoteRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)
		assert.Equal(t, "mut-1", req.MutationID)
		assert.Equal(t, int64(2), req.BaseVersion)
		require.NotNil(t, req.Changes.Title)
		assert.Equal(t, "Updated", *req.Changes.Title)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(api.Note{ID: "note-abc", Title: "Updated", Version: 3})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	title := "Updated"
	note, err := client.UpdateNote(context.Background(), "test_token", "note-abc", api.UpdateNoteRequest{
		MutationID:  "mut-1",
		BaseVersion: 2,
		Changes:     api.NoteChanges{Title: &title},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(3), note.Version)
}

func TestClient_UpdateNote_Conflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(api.ConflictResponse{
			Error:   "version_conflict",
			Message: "stale base version",
			CurrentNote: api.Note{
				ID:      "note-abc",
				Title:   "Server title",
				Version: 5,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	title := "Local title"
	note, err := client.UpdateNote(context.Background(), "test_token", "note-abc", api.UpdateNoteRequest{
		MutationID:  "mut-1",
		BaseVersion: 2,
		Changes:     api.NoteChanges{Title: &title},
	})

	require.Error(t, err)
	assert.Nil(t, note)

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.NotNil(t, conflictErr.CurrentNote)
	assert.Equal(t, int64(5), conflictErr.CurrentNote.Version)
	assert.Equal(t, "Server title", conflictErr.CurrentNote.Title)
}

func TestClient_UpdateNote_ValidationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Message: "title too long"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	title := "way too long"
	_, err := client.UpdateNote(context.Background(), "test_token", "note-abc", api.UpdateNoteRequest{
		MutationID:  "mut-1",
		BaseVersion: 1,
		Changes:     api.NoteChanges{Title: &title},
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Message, "title too long")
}

func TestClient_DeleteNote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DELETE", r.Method)
		assert.Equal(t, "/api/v1/notes/note-abc", r.URL.Path)
		assert.Equal(t, "Bearer test_token", r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.DeleteNote(context.Background(), "test_token", "note-abc")

	require.NoError(t, err)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "conflict", err: &ConflictError{}, want: false},
		{name: "validation", err: &ValidationError{Message: "bad"}, want: false},
		{name: "unauthorized", err: ErrUnauthorized, want: false},
		{name: "wrapped unauthorized", err: errors.Join(errors.New("ctx"), ErrUnauthorized), want: false},
		{name: "not found", err: ErrNotFound, want: false},
		{name: "server 500", err: &ServerError{StatusCode: 500}, want: true},
		{name: "server 409 non-version", err: &ServerError{StatusCode: 409}, want: false},
		{name: "transport", err: errors.New("connection refused"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
