package notes

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriba-app/scriba/internal/client/queue"
	"github.com/scriba-app/scriba/internal/client/storage"
	"github.com/scriba-app/scriba/internal/client/storage/boltdb"
	"github.com/scriba-app/scriba/internal/models"
)

type countingFlusher struct {
	triggers atomic.Int64
}

func (f *countingFlusher) Trigger() {
	f.triggers.Add(1)
}

func createTestService(t *testing.T) (Service, *boltdb.Storage, queue.Queue, *countingFlusher) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	require.NoError(t, store.SaveAuth(context.Background(), &storage.AuthData{
		UserID:       "user-1",
		Username:     "tester",
		AccessToken:  "test-token",
		RefreshToken: "test-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}))

	q := queue.NewService(store, logger)
	flusher := &countingFlusher{}
	svc := NewService(store, q, store, flusher, logger)

	return svc, store, q, flusher
}

func strPtr(s string) *string { return &s }

func TestCreate(t *testing.T) {
	svc, store, q, flusher := createTestService(t)
	ctx := context.Background()

	local, err := svc.Create(ctx, "groceries", "milk, eggs")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(local.Note.ID, models.TempIDPrefix))
	assert.Equal(t, "user-1", local.Note.OwnerID)
	assert.Equal(t, models.SyncStatusPending, local.SyncStatus)
	assert.NotEmpty(t, local.PendingMutationID)

	saved, err := store.GetNote(ctx, local.Note.ID)
	require.NoError(t, err)
	assert.Equal(t, "groceries", saved.Note.Title)
	assert.Equal(t, "milk, eggs", saved.Note.Body)
	assert.Equal(t, models.SyncStatusPending, saved.SyncStatus)

	m, err := q.DequeueNext(ctx, local.Note.ID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.MutationKindCreate, m.Kind)
	assert.Equal(t, local.PendingMutationID, m.ID)
	require.NotNil(t, m.Changes.Title)
	assert.Equal(t, "groceries", *m.Changes.Title)

	assert.Equal(t, int64(1), flusher.triggers.Load())
}

func TestCreate_InvalidTitleRejected(t *testing.T) {
	svc, _, q, flusher := createTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, strings.Repeat("x", 300), "body")
	require.Error(t, err)

	ids, err := q.NotesWithPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, int64(0), flusher.triggers.Load())
}

func TestCreate_WithoutSession(t *testing.T) {
	svc, store, _, _ := createTestService(t)
	ctx := context.Background()

	require.NoError(t, store.DeleteAuth(ctx))

	_, err := svc.Create(ctx, "title", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load session")
}

func TestEdit(t *testing.T) {
	svc, store, q, flusher := createTestService(t)
	ctx := context.Background()

	require.NoError(t, store.SaveNote(ctx, &models.LocalNote{
		Note: models.Note{
			ID:      "srv-1",
			OwnerID: "user-1",
			Title:   "old title",
			Body:    "old body",
			Version: 3,
		},
		SyncStatus: models.SyncStatusSynced,
	}))

	updated, err := svc.Edit(ctx, "srv-1", models.NoteChanges{Title: strPtr("new title")})
	require.NoError(t, err)

	assert.Equal(t, "new title", updated.Note.Title)
	assert.Equal(t, "old body", updated.Note.Body)
	assert.Equal(t, models.SyncStatusPending, updated.SyncStatus)

	m, err := q.DequeueNext(ctx, "srv-1")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.MutationKindUpdate, m.Kind)
	assert.Equal(t, int64(3), m.BaseVersion)
	require.NotNil(t, m.Changes.Title)
	assert.Equal(t, "new title", *m.Changes.Title)
	assert.Nil(t, m.Changes.Body)

	assert.Equal(t, int64(1), flusher.triggers.Load())
}

func TestEdit_CoalescesWithQueuedCreate(t *testing.T) {
	svc, store, q, _ := createTestService(t)
	ctx := context.Background()

	local, err := svc.Create(ctx, "draft", "first body")
	require.NoError(t, err)

	_, err = svc.Edit(ctx, local.Note.ID, models.NoteChanges{Body: strPtr("second body")})
	require.NoError(t, err)

	// The edit folds into the unsent create: one entry, full payload.
	m, err := q.DequeueNext(ctx, local.Note.ID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.MutationKindCreate, m.Kind)
	require.NotNil(t, m.Changes.Body)
	assert.Equal(t, "second body", *m.Changes.Body)

	require.NoError(t, q.MarkInFlight(ctx, m.ID))
	next, err := q.DequeueNext(ctx, local.Note.ID)
	require.NoError(t, err)
	assert.Nil(t, next)

	saved, err := store.GetNote(ctx, local.Note.ID)
	require.NoError(t, err)
	assert.Equal(t, "second body", saved.Note.Body)
}

func TestEdit_ClearsPriorRejection(t *testing.T) {
	svc, store, _, _ := createTestService(t)
	ctx := context.Background()

	require.NoError(t, store.SaveNote(ctx, &models.LocalNote{
		Note: models.Note{
			ID:      "srv-1",
			OwnerID: "user-1",
			Title:   "rejected",
			Version: 2,
		},
		SyncStatus: models.SyncStatusError,
		SyncError:  "title too long",
	}))

	updated, err := svc.Edit(ctx, "srv-1", models.NoteChanges{Title: strPtr("fixed")})
	require.NoError(t, err)

	assert.Equal(t, models.SyncStatusPending, updated.SyncStatus)
	assert.Empty(t, updated.SyncError)
}

func TestEdit_ConflictedNoteStaysFrozen(t *testing.T) {
	svc, store, q, _ := createTestService(t)
	ctx := context.Background()

	// A conflicted note holds a failed queue entry for the refused edit.
	m, err := q.Enqueue(ctx, queue.Op{
		Kind:        models.MutationKindUpdate,
		NoteID:      "srv-1",
		Changes:     models.NoteChanges{Title: strPtr("mine")},
		BaseVersion: 3,
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkInFlight(ctx, m.ID))
	require.NoError(t, q.MarkFailed(ctx, m.ID, "version conflict"))

	require.NoError(t, store.SaveNote(ctx, &models.LocalNote{
		Note: models.Note{
			ID:      "srv-1",
			OwnerID: "user-1",
			Title:   "mine",
			Version: 3,
		},
		SyncStatus: models.SyncStatusConflict,
		Conflict: &models.ConflictInfo{
			ServerNote:   models.Note{ID: "srv-1", Title: "theirs", Version: 5},
			LocalChanges: models.NoteChanges{Title: strPtr("mine")},
			BaseVersion:  3,
			DetectedAt:   time.Now(),
		},
	}))

	updated, err := svc.Edit(ctx, "srv-1", models.NoteChanges{Body: strPtr("more thoughts")})
	require.NoError(t, err)

	// Still conflicted, and nothing became eligible for flushing.
	assert.Equal(t, models.SyncStatusConflict, updated.SyncStatus)
	next, err := q.DequeueNext(ctx, "srv-1")
	require.NoError(t, err)
	assert.Nil(t, next)

	// The conflict's local side now shows the accumulated edit.
	require.NotNil(t, updated.Conflict)
	require.NotNil(t, updated.Conflict.LocalChanges.Title)
	assert.Equal(t, "mine", *updated.Conflict.LocalChanges.Title)
	require.NotNil(t, updated.Conflict.LocalChanges.Body)
	assert.Equal(t, "more thoughts", *updated.Conflict.LocalChanges.Body)
}

func TestEdit_EmptyChangesIsNoop(t *testing.T) {
	svc, store, q, flusher := createTestService(t)
	ctx := context.Background()

	require.NoError(t, store.SaveNote(ctx, &models.LocalNote{
		Note:       models.Note{ID: "srv-1", OwnerID: "user-1", Title: "t", Version: 1},
		SyncStatus: models.SyncStatusSynced,
	}))

	got, err := svc.Edit(ctx, "srv-1", models.NoteChanges{})
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, got.SyncStatus)

	ids, err := q.NotesWithPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, int64(0), flusher.triggers.Load())
}

func TestEdit_MissingNote(t *testing.T) {
	svc, _, _, _ := createTestService(t)

	_, err := svc.Edit(context.Background(), "nope", models.NoteChanges{Title: strPtr("x")})
	require.ErrorIs(t, err, storage.ErrNoteNotFound)
}

func TestDelete(t *testing.T) {
	svc, store, q, flusher := createTestService(t)
	ctx := context.Background()

	require.NoError(t, store.SaveNote(ctx, &models.LocalNote{
		Note:       models.Note{ID: "srv-1", OwnerID: "user-1", Title: "doomed", Version: 4},
		SyncStatus: models.SyncStatusSynced,
	}))

	require.NoError(t, svc.Delete(ctx, "srv-1"))

	_, err := store.GetNote(ctx, "srv-1")
	require.ErrorIs(t, err, storage.ErrNoteNotFound)

	m, err := q.DequeueNext(ctx, "srv-1")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.MutationKindDelete, m.Kind)
	assert.Equal(t, int64(4), m.BaseVersion)

	assert.Equal(t, int64(1), flusher.triggers.Load())
}

func TestDelete_UnsyncedCreateLeavesNothing(t *testing.T) {
	svc, store, q, _ := createTestService(t)
	ctx := context.Background()

	local, err := svc.Create(ctx, "ephemeral", "never synced")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, local.Note.ID))

	_, err = store.GetNote(ctx, local.Note.ID)
	require.ErrorIs(t, err, storage.ErrNoteNotFound)

	has, err := q.HasPending(ctx, local.Note.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDelete_ConflictedNoteKeepsRecord(t *testing.T) {
	svc, store, q, _ := createTestService(t)
	ctx := context.Background()

	m, err := q.Enqueue(ctx, queue.Op{
		Kind:        models.MutationKindUpdate,
		NoteID:      "srv-1",
		Changes:     models.NoteChanges{Title: strPtr("mine")},
		BaseVersion: 3,
	})
	require.NoError(t, err)
	require.NoError(t, q.MarkInFlight(ctx, m.ID))
	require.NoError(t, q.MarkFailed(ctx, m.ID, "version conflict"))

	require.NoError(t, store.SaveNote(ctx, &models.LocalNote{
		Note: models.Note{ID: "srv-1", OwnerID: "user-1", Title: "mine", Version: 3},
		SyncStatus: models.SyncStatusConflict,
		Conflict: &models.ConflictInfo{
			ServerNote:   models.Note{ID: "srv-1", Title: "theirs", Version: 5},
			LocalChanges: models.NoteChanges{Title: strPtr("mine")},
			BaseVersion:  3,
			DetectedAt:   time.Now(),
		},
	}))

	require.NoError(t, svc.Delete(ctx, "srv-1"))

	saved, err := store.GetNote(ctx, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusConflict, saved.SyncStatus)
	require.NotNil(t, saved.Conflict)
	require.NotNil(t, saved.Conflict.LocalChanges.Deleted)
	assert.True(t, *saved.Conflict.LocalChanges.Deleted)

	// The folded delete stays frozen with the conflict.
	next, err := q.DequeueNext(ctx, "srv-1")
	require.NoError(t, err)
	assert.Nil(t, next)
	pend, err := q.PendingWork(ctx, "srv-1")
	require.NoError(t, err)
	assert.True(t, pend.HasDelete)
}

func TestList(t *testing.T) {
	svc, store, _, _ := createTestService(t)
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"srv-1", "srv-2", "srv-3"} {
		require.NoError(t, store.SaveNote(ctx, &models.LocalNote{
			Note: models.Note{
				ID:        id,
				OwnerID:   "user-1",
				Title:     "note " + id,
				Version:   1,
				UpdatedAt: base.Add(time.Duration(i) * time.Minute),
			},
			SyncStatus: models.SyncStatusSynced,
		}))
	}
	// Someone else's record never surfaces.
	require.NoError(t, store.SaveNote(ctx, &models.LocalNote{
		Note:       models.Note{ID: "srv-9", OwnerID: "user-2", Title: "not mine", Version: 1, UpdatedAt: base},
		SyncStatus: models.SyncStatusSynced,
	}))

	got, err := svc.List(ctx, storage.ListOptions{})
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "srv-3", got[0].Note.ID)
	assert.Equal(t, "srv-2", got[1].Note.ID)
	assert.Equal(t, "srv-1", got[2].Note.ID)
}

func TestConflicts(t *testing.T) {
	svc, store, _, _ := createTestService(t)
	ctx := context.Background()

	require.NoError(t, store.SaveNote(ctx, &models.LocalNote{
		Note:       models.Note{ID: "srv-1", OwnerID: "user-1", Title: "fine", Version: 1},
		SyncStatus: models.SyncStatusSynced,
	}))
	require.NoError(t, store.SaveNote(ctx, &models.LocalNote{
		Note:       models.Note{ID: "srv-2", OwnerID: "user-1", Title: "contested", Version: 2},
		SyncStatus: models.SyncStatusConflict,
		Conflict: &models.ConflictInfo{
			ServerNote:  models.Note{ID: "srv-2", Title: "theirs", Version: 4},
			BaseVersion: 2,
			DetectedAt:  time.Now(),
		},
	}))

	got, err := svc.Conflicts(ctx)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "srv-2", got[0].Note.ID)
}

func TestWatch_DeliversLocalWrites(t *testing.T) {
	svc, _, _, _ := createTestService(t)
	ctx := context.Background()

	events, cancel := svc.Watch(ctx)
	defer cancel()

	local, err := svc.Create(ctx, "watched", "body")
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, storage.NoteEventSaved, ev.Kind)
		assert.Equal(t, local.Note.ID, ev.NoteID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for storage event")
	}
}
