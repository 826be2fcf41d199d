package queue

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriba-app/scriba/internal/client/storage"
	"github.com/scriba-app/scriba/internal/client/storage/boltdb"
	"github.com/scriba-app/scriba/internal/models"
)

func createTestQueue(t *testing.T) (Queue, storage.MutationStorage) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	return NewService(store, logger), store
}

func strPtr(s string) *string { return &s }

func TestEnqueue_Create(t *testing.T) {
	q, store := createTestQueue(t)
	ctx := context.Background()

	m, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindCreate,
		NoteID:  "tmp-note-1",
		Changes: models.NoteChanges{Title: strPtr("Groceries")},
	})

	require.NoError(t, err)
	require.NotNil(t, m)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, models.MutationKindCreate, m.Kind)
	assert.Equal(t, models.MutationStateQueued, m.State)
	assert.False(t, m.EnqueuedAt.IsZero())

	stored, err := store.GetMutation(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "tmp-note-1", stored.NoteID)
}

func TestEnqueue_CoalescesUpdates(t *testing.T) {
	q, store := createTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("Draft"), Body: strPtr("first body")},
	})
	require.NoError(t, err)

	second, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("Final")},
	})
	require.NoError(t, err)

	// Same entry, later value wins, untouched field survives.
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.Changes.Title)
	assert.Equal(t, "Final", *second.Changes.Title)
	require.NotNil(t, second.Changes.Body)
	assert.Equal(t, "first body", *second.Changes.Body)

	entries, err := store.MutationsForNote(ctx, "note-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEnqueue_CreateAbsorbsEdits(t *testing.T) {
	q, store := createTestQueue(t)
	ctx := context.Background()

	created, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindCreate,
		NoteID:  "tmp-note-1",
		Changes: models.NoteChanges{Title: strPtr("New note"), Body: strPtr("")},
	})
	require.NoError(t, err)

	merged, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "tmp-note-1",
		Changes: models.NoteChanges{Body: strPtr("typed before first flush")},
	})
	require.NoError(t, err)

	// The edit folds into the pending create, which keeps its kind.
	assert.Equal(t, created.ID, merged.ID)
	assert.Equal(t, models.MutationKindCreate, merged.Kind)
	require.NotNil(t, merged.Changes.Body)
	assert.Equal(t, "typed before first flush", *merged.Changes.Body)

	entries, err := store.MutationsForNote(ctx, "tmp-note-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEnqueue_InFlightEntryNotTouched(t *testing.T) {
	q, store := createTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("on the wire")},
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkInFlight(ctx, first.ID))

	second, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("typed during flush")},
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// A third edit coalesces into the new queued entry, never the
	// in-flight one.
	third, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Body: strPtr("more typing")},
	})
	require.NoError(t, err)
	assert.Equal(t, second.ID, third.ID)

	entries, err := store.MutationsForNote(ctx, "note-1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestEnqueue_DeleteSupersedesQueuedUpdate(t *testing.T) {
	q, store := createTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("doomed edit")},
	})
	require.NoError(t, err)

	del, err := q.Enqueue(ctx, Op{
		Kind:        models.MutationKindDelete,
		NoteID:      "note-1",
		BaseVersion: 3,
	})
	require.NoError(t, err)
	require.NotNil(t, del)
	assert.Equal(t, models.MutationKindDelete, del.Kind)

	entries, err := store.MutationsForNote(ctx, "note-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, del.ID, entries[0].ID)
}

func TestEnqueue_DeleteOfUnsentCreateDropsBoth(t *testing.T) {
	q, store := createTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindCreate,
		NoteID:  "tmp-note-1",
		Changes: models.NoteChanges{Title: strPtr("never leaves the device")},
	})
	require.NoError(t, err)

	del, err := q.Enqueue(ctx, Op{
		Kind:   models.MutationKindDelete,
		NoteID: "tmp-note-1",
	})
	require.NoError(t, err)
	assert.Nil(t, del, "the server never saw the note, nothing to send")

	entries, err := store.MutationsForNote(ctx, "tmp-note-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEnqueue_DeleteKeepsInFlightCreate(t *testing.T) {
	q, store := createTestQueue(t)
	ctx := context.Background()

	create, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindCreate,
		NoteID:  "tmp-note-1",
		Changes: models.NoteChanges{Title: strPtr("already on the wire")},
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkInFlight(ctx, create.ID))

	// The create may land on the server, so the delete must follow it.
	del, err := q.Enqueue(ctx, Op{
		Kind:   models.MutationKindDelete,
		NoteID: "tmp-note-1",
	})
	require.NoError(t, err)
	require.NotNil(t, del)

	entries, err := store.MutationsForNote(ctx, "tmp-note-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, create.ID, entries[0].ID)
	assert.Equal(t, del.ID, entries[1].ID)
}

func TestEnqueue_EditAccumulatesOnRetainedConflict(t *testing.T) {
	q, store := createTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("rejected")},
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkInFlight(ctx, first.ID))
	require.NoError(t, q.MarkFailed(ctx, first.ID, "version conflict"))

	merged, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Body: strPtr("written while conflicted")},
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, merged.ID)
	assert.Equal(t, models.MutationStateFailed, merged.State, "accumulating edits must not wake a retained conflict")
	require.NotNil(t, merged.Changes.Body)
	assert.Equal(t, "written while conflicted", *merged.Changes.Body)

	entries, err := store.MutationsForNote(ctx, "note-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEnqueue_DeleteOnRetainedConflictStaysFrozen(t *testing.T) {
	q, store := createTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("rejected")},
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkInFlight(ctx, first.ID))
	require.NoError(t, q.MarkFailed(ctx, first.ID, "version conflict"))

	del, err := q.Enqueue(ctx, Op{
		Kind:   models.MutationKindDelete,
		NoteID: "note-1",
	})
	require.NoError(t, err)
	require.NotNil(t, del)

	// The delete folds into the retained entry instead of bypassing the
	// pending resolution.
	assert.Equal(t, first.ID, del.ID)
	assert.Equal(t, models.MutationKindDelete, del.Kind)
	assert.Equal(t, models.MutationStateFailed, del.State)

	entries, err := store.MutationsForNote(ctx, "note-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDequeueNext_EmptyQueue(t *testing.T) {
	q, _ := createTestQueue(t)

	m, err := q.DequeueNext(context.Background(), "note-1")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestDequeueNext_InFlightGatesNote(t *testing.T) {
	q, _ := createTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("one")},
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkInFlight(ctx, first.ID))

	second, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("two")},
	})
	require.NoError(t, err)

	m, err := q.DequeueNext(ctx, "note-1")
	require.NoError(t, err)
	assert.Nil(t, m, "nothing leaves while an entry is in flight")

	require.NoError(t, q.MarkCompleted(ctx, first.ID))

	m, err = q.DequeueNext(ctx, "note-1")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, second.ID, m.ID)
}

func TestDequeueNext_RetainedConflictGatesNote(t *testing.T) {
	q, _ := createTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("stale")},
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkInFlight(ctx, first.ID))
	require.NoError(t, q.MarkFailed(ctx, first.ID, "version conflict"))

	m, err := q.DequeueNext(ctx, "note-1")
	require.NoError(t, err)
	assert.Nil(t, m, "a retained conflict freezes the note until resolved")
}

func TestMarkInFlight_CountsAttempts(t *testing.T) {
	q, store := createTestQueue(t)
	ctx := context.Background()

	m, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("x")},
	})
	require.NoError(t, err)

	require.NoError(t, q.MarkInFlight(ctx, m.ID))
	require.NoError(t, q.Requeue(ctx, m.ID))
	require.NoError(t, q.MarkInFlight(ctx, m.ID))

	stored, err := store.GetMutation(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MutationStateInFlight, stored.State)
	assert.Equal(t, 2, stored.Attempts)
}

func TestMarkCompleted_RemovesEntry(t *testing.T) {
	q, store := createTestQueue(t)
	ctx := context.Background()

	m, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("x")},
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkCompleted(ctx, m.ID))

	_, err = store.GetMutation(ctx, m.ID)
	assert.ErrorIs(t, err, storage.ErrMutationNotFound)
}

func TestMarkFailed_FoldsLaterQueuedEntries(t *testing.T) {
	q, store := createTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("rejected title")},
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkInFlight(ctx, first.ID))

	// Typed while the first entry was in flight.
	_, err = q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Body: strPtr("typed during flush")},
	})
	require.NoError(t, err)

	require.NoError(t, q.MarkFailed(ctx, first.ID, "version conflict"))

	entries, err := store.MutationsForNote(ctx, "note-1")
	require.NoError(t, err)
	require.Len(t, entries, 1, "the note carries exactly one retained entry")

	retained := entries[0]
	assert.Equal(t, first.ID, retained.ID)
	assert.Equal(t, models.MutationStateFailed, retained.State)
	assert.Equal(t, "version conflict", retained.LastError)
	require.NotNil(t, retained.Changes.Title)
	assert.Equal(t, "rejected title", *retained.Changes.Title)
	require.NotNil(t, retained.Changes.Body)
	assert.Equal(t, "typed during flush", *retained.Changes.Body)
}

func TestMarkFailed_LaterDeleteWinsKind(t *testing.T) {
	q, store := createTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("x")},
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkInFlight(ctx, first.ID))

	_, err = q.Enqueue(ctx, Op{
		Kind:   models.MutationKindDelete,
		NoteID: "note-1",
	})
	require.NoError(t, err)

	require.NoError(t, q.MarkFailed(ctx, first.ID, "version conflict"))

	entries, err := store.MutationsForNote(ctx, "note-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.MutationKindDelete, entries[0].Kind)
}

func TestRequeue_OnlyInFlight(t *testing.T) {
	q, store := createTestQueue(t)
	ctx := context.Background()

	m, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("x")},
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkInFlight(ctx, m.ID))
	require.NoError(t, q.MarkFailed(ctx, m.ID, "version conflict"))

	// A retained conflict stays retained.
	require.NoError(t, q.Requeue(ctx, m.ID))
	stored, err := store.GetMutation(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MutationStateFailed, stored.State)
}

func TestRetargetNote_MovesEntries(t *testing.T) {
	q, store := createTestQueue(t)
	ctx := context.Background()

	m, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "tmp-note-1",
		Changes: models.NoteChanges{Title: strPtr("x")},
	})
	require.NoError(t, err)

	require.NoError(t, q.RetargetNote(ctx, "tmp-note-1", "server-id-1"))

	entries, err := store.MutationsForNote(ctx, "server-id-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, m.ID, entries[0].ID)

	old, err := store.MutationsForNote(ctx, "tmp-note-1")
	require.NoError(t, err)
	assert.Empty(t, old)
}

func TestDiscardNote_DropsEverything(t *testing.T) {
	q, store := createTestQueue(t)
	ctx := context.Background()

	m, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("x")},
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkInFlight(ctx, m.ID))
	require.NoError(t, q.MarkFailed(ctx, m.ID, "rejected"))

	require.NoError(t, q.DiscardNote(ctx, "note-1"))

	entries, err := store.MutationsForNote(ctx, "note-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRebaseNote_ReleasesRetainedConflict(t *testing.T) {
	q, store := createTestQueue(t)
	ctx := context.Background()

	m, err := q.Enqueue(ctx, Op{
		Kind:        models.MutationKindUpdate,
		NoteID:      "note-1",
		Changes:     models.NoteChanges{Title: strPtr("keep mine")},
		BaseVersion: 3,
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkInFlight(ctx, m.ID))
	require.NoError(t, q.MarkFailed(ctx, m.ID, "version conflict"))

	require.NoError(t, q.RebaseNote(ctx, "note-1", 7))

	stored, err := store.GetMutation(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MutationStateQueued, stored.State)
	assert.Equal(t, int64(7), stored.BaseVersion)
	assert.Empty(t, stored.LastError)

	next, err := q.DequeueNext(ctx, "note-1")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, m.ID, next.ID)
}

func TestNotesWithPending_SkipsRetainedOnly(t *testing.T) {
	q, _ := createTestQueue(t)
	ctx := context.Background()

	conflicted, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-a",
		Changes: models.NoteChanges{Title: strPtr("a")},
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkInFlight(ctx, conflicted.ID))
	require.NoError(t, q.MarkFailed(ctx, conflicted.ID, "version conflict"))

	_, err = q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-b",
		Changes: models.NoteChanges{Title: strPtr("b")},
	})
	require.NoError(t, err)

	pending, err := q.NotesWithPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"note-b"}, pending)
}

func TestPendingWork(t *testing.T) {
	q, _ := createTestQueue(t)
	ctx := context.Background()

	empty, err := q.PendingWork(ctx, "note-1")
	require.NoError(t, err)
	assert.False(t, empty.HasEntries)

	first, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("one")},
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkInFlight(ctx, first.ID))

	_, err = q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Body: strPtr("two")},
	})
	require.NoError(t, err)

	p, err := q.PendingWork(ctx, "note-1")
	require.NoError(t, err)
	assert.True(t, p.HasEntries)
	assert.False(t, p.HasDelete)
	assert.Equal(t, first.ID, p.OldestID)
	require.NotNil(t, p.Changes.Title)
	assert.Equal(t, "one", *p.Changes.Title)
	require.NotNil(t, p.Changes.Body)
	assert.Equal(t, "two", *p.Changes.Body)
}

func TestPendingWork_DeleteEntry(t *testing.T) {
	q, _ := createTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindCreate,
		NoteID:  "tmp-note-1",
		Changes: models.NoteChanges{Title: strPtr("x")},
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkInFlight(ctx, first.ID))

	_, err = q.Enqueue(ctx, Op{
		Kind:   models.MutationKindDelete,
		NoteID: "tmp-note-1",
	})
	require.NoError(t, err)

	p, err := q.PendingWork(ctx, "tmp-note-1")
	require.NoError(t, err)
	assert.True(t, p.HasDelete)
}

func TestHasPending(t *testing.T) {
	q, _ := createTestQueue(t)
	ctx := context.Background()

	ok, err := q.HasPending(ctx, "note-1")
	require.NoError(t, err)
	assert.False(t, ok)

	m, err := q.Enqueue(ctx, Op{
		Kind:    models.MutationKindUpdate,
		NoteID:  "note-1",
		Changes: models.NoteChanges{Title: strPtr("x")},
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkInFlight(ctx, m.ID))
	require.NoError(t, q.MarkFailed(ctx, m.ID, "rejected"))

	// Retained entries still count: remote updates must keep buffering.
	ok, err = q.HasPending(ctx, "note-1")
	require.NoError(t, err)
	assert.True(t, ok)
}
