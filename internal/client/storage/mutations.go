package storage

import (
	"context"

	"github.com/scriba-app/scriba/internal/models"
)

//go:generate moq -out mutations_mock.go . MutationStorage

// MutationStorage persists the mutation queue. Entries survive restarts;
// ordering is fixed by the sequence number assigned on append. Coalescing
// and state-machine rules live in the queue service, not here.
type MutationStorage interface {
	// AppendMutation stores a new entry and assigns its Seq.
	AppendMutation(ctx context.Context, m *models.Mutation) error

	// SaveMutation replaces an existing entry (state transitions, merged
	// payloads). Returns ErrMutationNotFound for an unknown entry.
	SaveMutation(ctx context.Context, m *models.Mutation) error

	// GetMutation retrieves an entry by mutation ID.
	// Returns ErrMutationNotFound if it doesn't exist.
	GetMutation(ctx context.Context, id string) (*models.Mutation, error)

	// DeleteMutation removes an entry by mutation ID.
	// Returns ErrMutationNotFound if it doesn't exist.
	DeleteMutation(ctx context.Context, id string) error

	// MutationsForNote returns the note's entries in queue order.
	MutationsForNote(ctx context.Context, noteID string) ([]*models.Mutation, error)

	// NotesWithMutations returns the distinct note IDs that have queued
	// work, ordered by their oldest entry.
	NotesWithMutations(ctx context.Context) ([]string, error)

	// RetargetNote rewrites the note ID on every entry for oldID. Used
	// when the server assigns a canonical identity.
	RetargetNote(ctx context.Context, oldID, newID string) error

	// ResetInFlight returns every in-flight entry to queued state. Called
	// on open: a crash mid-request leaves entries in flight, and replay
	// is safe because the server deduplicates by mutation ID.
	ResetInFlight(ctx context.Context) (int, error)

	// CountMutations returns the number of persisted entries.
	CountMutations(ctx context.Context) (int, error)

	// ClearMutations removes every entry (logout wipe).
	ClearMutations(ctx context.Context) error
}
