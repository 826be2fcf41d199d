package storage

import (
	"context"
	"iter"

	"github.com/scriba-app/scriba/internal/models"
)

//go:generate moq -out notes_mock.go . NoteStorage

// Order selects the iteration order of ListNotes.
type Order string

const (
	// OrderUpdatedDesc walks the updated-at index, newest first. This is
	// the natural order of the index bucket and needs no sorting.
	OrderUpdatedDesc Order = "updated_desc"
	// OrderTitleAsc sorts by title; materializes the result set first.
	OrderTitleAsc Order = "title_asc"
)

// ListOptions narrows and orders a ListNotes scan.
type ListOptions struct {
	// Predicate filters records during the scan; nil accepts everything.
	Predicate func(*models.LocalNote) bool
	// Order defaults to OrderUpdatedDesc.
	Order Order
}

// NoteEventKind discriminates store change notifications.
type NoteEventKind string

const (
	// NoteEventSaved fires after every successful SaveNote.
	NoteEventSaved NoteEventKind = "saved"
	// NoteEventDeleted fires after every successful DeleteNote.
	NoteEventDeleted NoteEventKind = "deleted"
	// NoteEventRenamed fires when a temp ID is replaced by the canonical
	// one; OldID carries the retired identifier.
	NoteEventRenamed NoteEventKind = "renamed"
)

// NoteEvent is pushed to every subscriber after a successful write. UI
// layers render from these instead of polling.
type NoteEvent struct {
	Note   *models.LocalNote // nil for deletes
	Kind   NoteEventKind
	NoteID string
	OldID  string // renames only
}

// NoteStorage is the Local Record Store: a synchronous, indexed cache of
// every note the user can see, plus per-record sync metadata. Reads never
// touch the network.
type NoteStorage interface {
	// SaveNote stores or replaces a local record. Idempotent: writing the
	// same state twice changes nothing observable. Notifies subscribers.
	SaveNote(ctx context.Context, note *models.LocalNote) error

	// GetNote retrieves a record by note ID.
	// Returns ErrNoteNotFound if it doesn't exist.
	GetNote(ctx context.Context, id string) (*models.LocalNote, error)

	// DeleteNote removes a record. Notifies subscribers.
	// Returns ErrNoteNotFound if it doesn't exist.
	DeleteNote(ctx context.Context, id string) error

	// RenameNote re-keys a record from a temporary to the canonical ID,
	// in one transaction. Notifies subscribers with a rename event.
	RenameNote(ctx context.Context, oldID, newID string) error

	// ListNotes returns a lazily-produced, restartable sequence of the
	// owner's records in the requested order. Each restart re-reads the
	// store.
	ListNotes(ctx context.Context, ownerID string, opts ListOptions) iter.Seq2[*models.LocalNote, error]

	// ListNotesByStatus returns all records with the given sync status,
	// via the status index.
	ListNotesByStatus(ctx context.Context, status models.SyncStatus) ([]*models.LocalNote, error)

	// Subscribe registers a change observer. The returned cancel func
	// must be called to release the subscription; the channel is closed
	// afterwards. Events are dropped, not blocked on, when the subscriber
	// falls behind.
	Subscribe(ctx context.Context) (<-chan NoteEvent, func())

	// Clear removes every record and index entry (logout wipe).
	Clear(ctx context.Context) error
}
