package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no authentication data exists
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrNoteNotFound indicates that the note was not found
	ErrNoteNotFound = errors.New("note not found")

	// ErrMutationNotFound indicates that the queue entry was not found
	ErrMutationNotFound = errors.New("mutation not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
