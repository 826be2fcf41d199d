package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrTokenNotFound indicates that refresh token was not found
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrNoteNotFound indicates that note was not found or belongs to
	// another owner
	ErrNoteNotFound = errors.New("note not found")

	// ErrVersionMismatch indicates that a patch carried a stale base
	// version; the caller gets the current note to surface both sides
	ErrVersionMismatch = errors.New("version mismatch")
)
