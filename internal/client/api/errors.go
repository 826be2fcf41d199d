package api

import (
	"errors"
	"fmt"

	"github.com/scriba-app/scriba/pkg/api"
)

var (
	// ErrUnauthorized means the access token was missing, invalid or
	// expired. The caller should refresh the session and retry.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound means the note does not exist on the server.
	ErrNotFound = errors.New("not found on server")
)

// ConflictError is the 409 outcome of an optimistic update: the server
// holds a newer version than the one the mutation was based on.
// CurrentNote is nil when the note was deleted remotely.
type ConflictError struct {
	CurrentNote *api.Note
	BaseVersion int64
}

func (e *ConflictError) Error() string {
	if e.CurrentNote == nil {
		return "version conflict: note no longer exists on server"
	}
	return fmt.Sprintf("version conflict: server has version %d, base was %d",
		e.CurrentNote.Version, e.BaseVersion)
}

// ValidationError is a 400/422 rejection. The mutation is malformed and
// must never be retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}

// ServerError is any other non-2xx response (5xx and unexpected codes).
type ServerError struct {
	Message    string
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether the reconciler should retry the request
// with backoff. Typed rejections (conflict, validation, auth, not-found)
// need a decision, not a retry; 5xx and transport failures are transient.
func IsRetryable(err error) bool {
	var (
		conflictErr   *ConflictError
		validationErr *ValidationError
		serverErr     *ServerError
	)
	switch {
	case errors.As(err, &conflictErr),
		errors.As(err, &validationErr),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrNotFound):
		return false
	case errors.As(err, &serverErr):
		return serverErr.StatusCode >= 500
	}
	return true
}
