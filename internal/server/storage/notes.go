package storage

import (
	"context"

	"github.com/scriba-app/scriba/internal/models"
)

// NoteStorage defines interface for server-side note persistence.
// Concurrent writers are serialized by the database's version
// compare-and-swap, not by locks in the handlers.
type NoteStorage interface {
	// CreateNote inserts the note with version 1. When the owner already
	// created a note with the same client ref, the previously stored note
	// is returned with created=false instead of a duplicate. That makes
	// create replays (client crash between request and acknowledgment)
	// idempotent.
	CreateNote(ctx context.Context, note *models.Note, clientRef string) (*models.Note, bool, error)

	// GetNote retrieves one note scoped to its owner.
	// Returns ErrNoteNotFound if the note doesn't exist or belongs to
	// another owner.
	GetNote(ctx context.Context, ownerID, noteID string) (*models.Note, error)

	// ListNotesSince returns the owner's notes updated strictly after
	// since (unix nanoseconds), oldest change first. since=0 returns
	// everything.
	ListNotesSince(ctx context.Context, ownerID string, since int64) ([]*models.Note, error)

	// UpdateNote applies a patch when baseVersion matches the stored
	// version, bumping the version and recording mutationID. Outcomes:
	//   - applied:                      (updated note, true, nil)
	//   - replay of applied mutationID: (current note, false, nil)
	//   - stale baseVersion:            (current note, false, ErrVersionMismatch)
	//   - unknown note:                 (nil, false, ErrNoteNotFound)
	// The current note is returned alongside ErrVersionMismatch so the
	// caller can hand both sides to the client.
	UpdateNote(ctx context.Context, ownerID, noteID, mutationID string, baseVersion int64, changes models.NoteChanges) (*models.Note, bool, error)

	// DeleteNote removes the note.
	// Returns ErrNoteNotFound if the note doesn't exist; callers that
	// need idempotent deletes treat that as success.
	DeleteNote(ctx context.Context, ownerID, noteID string) error
}
