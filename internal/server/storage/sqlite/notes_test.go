package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriba-app/scriba/internal/models"
	"github.com/scriba-app/scriba/internal/server/storage"
)

func TestNoteStorage_CreateNote(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)

	note := &models.Note{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Title:   "groceries",
		Body:    "milk, eggs",
	}

	created, isNew, err := s.CreateNote(ctx, note, "ref-1")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, note.ID, created.ID)
	assert.Equal(t, int64(1), created.Version)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())

	// Verify it round-trips
	retrieved, err := s.GetNote(ctx, ownerID, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "groceries", retrieved.Title)
	assert.Equal(t, "milk, eggs", retrieved.Body)
	assert.Equal(t, int64(1), retrieved.Version)
	assert.False(t, retrieved.Trashed)
	assert.False(t, retrieved.Archived)
}

func TestNoteStorage_CreateNote_ClientRefReplay(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)

	first := &models.Note{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Title:   "original",
	}
	created, isNew, err := s.CreateNote(ctx, first, "ref-dup")
	require.NoError(t, err)
	require.True(t, isNew)

	// Replaying the same client ref must return the note created the
	// first time, even when the retry carries a different payload.
	retry := &models.Note{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Title:   "retry payload",
	}
	replayed, isNew, err := s.CreateNote(ctx, retry, "ref-dup")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, created.ID, replayed.ID)
	assert.Equal(t, "original", replayed.Title)

	// A different ref creates a fresh note
	other, isNew, err := s.CreateNote(ctx, retry, "ref-other")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.NotEqual(t, created.ID, other.ID)
}

func TestNoteStorage_CreateNote_SameRefDifferentOwners(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	owner1 := createTestUser(t, ctx, s)
	owner2 := createTestUser(t, ctx, s)

	// Client refs are scoped per owner, so two users may reuse one
	_, isNew, err := s.CreateNote(ctx, &models.Note{ID: uuid.New().String(), OwnerID: owner1, Title: "mine"}, "ref-shared")
	require.NoError(t, err)
	assert.True(t, isNew)

	_, isNew, err = s.CreateNote(ctx, &models.Note{ID: uuid.New().String(), OwnerID: owner2, Title: "yours"}, "ref-shared")
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestNoteStorage_GetNote(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)
	otherID := createTestUser(t, ctx, s)
	note := createTestNote(t, ctx, s, ownerID, "findme")

	tests := []struct {
		wantError error
		name      string
		ownerID   string
		noteID    string
	}{
		{
			name:      "get existing note",
			ownerID:   ownerID,
			noteID:    note.ID,
			wantError: nil,
		},
		{
			name:      "get non-existent note",
			ownerID:   ownerID,
			noteID:    "nonexistent",
			wantError: storage.ErrNoteNotFound,
		},
		{
			name:      "get another owner's note",
			ownerID:   otherID,
			noteID:    note.ID,
			wantError: storage.ErrNoteNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retrieved, err := s.GetNote(ctx, tt.ownerID, tt.noteID)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, retrieved)
			} else {
				require.NoError(t, err)
				assert.Equal(t, note.ID, retrieved.ID)
				assert.Equal(t, "findme", retrieved.Title)
			}
		})
	}
}

func TestNoteStorage_ListNotesSince(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)
	otherID := createTestUser(t, ctx, s)

	first := createTestNote(t, ctx, s, ownerID, "first")
	time.Sleep(time.Millisecond)
	second := createTestNote(t, ctx, s, ownerID, "second")
	time.Sleep(time.Millisecond)
	third := createTestNote(t, ctx, s, ownerID, "third")

	// Another owner's notes never leak into the listing
	createTestNote(t, ctx, s, otherID, "hidden")

	// since=0 returns everything, oldest change first
	all, err := s.ListNotesSince(ctx, ownerID, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
	assert.Equal(t, third.ID, all[2].ID)

	// The watermark is exclusive: a note updated exactly at since is
	// already on the client and must not be resent.
	tail, err := s.ListNotesSince(ctx, ownerID, second.UpdatedAt.UnixNano())
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, third.ID, tail[0].ID)

	// Updating an old note moves it to the end of the change feed
	time.Sleep(time.Millisecond)
	newTitle := "first, revised"
	_, applied, err := s.UpdateNote(ctx, ownerID, first.ID, uuid.New().String(), 1, models.NoteChanges{Title: &newTitle})
	require.NoError(t, err)
	require.True(t, applied)

	all, err = s.ListNotesSince(ctx, ownerID, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, first.ID, all[2].ID)
	assert.Equal(t, "first, revised", all[2].Title)
}

func TestNoteStorage_ListNotesSince_Empty(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)

	notes, err := s.ListNotesSince(ctx, ownerID, 0)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestNoteStorage_UpdateNote(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)
	note := createTestNote(t, ctx, s, ownerID, "draft")

	mutationID := uuid.New().String()
	newBody := "rewritten body"

	updated, applied, err := s.UpdateNote(ctx, ownerID, note.ID, mutationID, 1, models.NoteChanges{Body: &newBody})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "rewritten body", updated.Body)
	assert.Equal(t, "draft", updated.Title, "untouched fields keep their value")
	assert.True(t, updated.UpdatedAt.After(note.UpdatedAt))
}

func TestNoteStorage_UpdateNote_MutationReplay(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)
	note := createTestNote(t, ctx, s, ownerID, "draft")

	mutationID := uuid.New().String()
	newTitle := "applied once"

	_, applied, err := s.UpdateNote(ctx, ownerID, note.ID, mutationID, 1, models.NoteChanges{Title: &newTitle})
	require.NoError(t, err)
	require.True(t, applied)

	// The client crashed before seeing the ack and replays the same
	// mutation. The stored state must not advance a second time.
	replayTitle := "applied twice?"
	current, applied, err := s.UpdateNote(ctx, ownerID, note.ID, mutationID, 1, models.NoteChanges{Title: &replayTitle})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, int64(2), current.Version)
	assert.Equal(t, "applied once", current.Title)
}

func TestNoteStorage_UpdateNote_VersionMismatch(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)
	note := createTestNote(t, ctx, s, ownerID, "shared")

	winner := "first writer wins"
	_, applied, err := s.UpdateNote(ctx, ownerID, note.ID, uuid.New().String(), 1, models.NoteChanges{Title: &winner})
	require.NoError(t, err)
	require.True(t, applied)

	// A second writer still holding base version 1 must be rejected
	// and handed the current state for conflict presentation.
	loser := "second writer"
	current, applied, err := s.UpdateNote(ctx, ownerID, note.ID, uuid.New().String(), 1, models.NoteChanges{Title: &loser})
	assert.ErrorIs(t, err, storage.ErrVersionMismatch)
	assert.False(t, applied)
	require.NotNil(t, current)
	assert.Equal(t, int64(2), current.Version)
	assert.Equal(t, "first writer wins", current.Title)
}

func TestNoteStorage_UpdateNote_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)
	otherID := createTestUser(t, ctx, s)
	note := createTestNote(t, ctx, s, ownerID, "private")

	title := "patch"

	tests := []struct {
		name    string
		ownerID string
		noteID  string
	}{
		{
			name:    "unknown note",
			ownerID: ownerID,
			noteID:  "nonexistent",
		},
		{
			name:    "another owner's note",
			ownerID: otherID,
			noteID:  note.ID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, applied, err := s.UpdateNote(ctx, tt.ownerID, tt.noteID, uuid.New().String(), 1, models.NoteChanges{Title: &title})
			assert.ErrorIs(t, err, storage.ErrNoteNotFound)
			assert.False(t, applied)
			assert.Nil(t, current)
		})
	}
}

func TestNoteStorage_UpdateNote_SoftStateFlags(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)
	note := createTestNote(t, ctx, s, ownerID, "keeper")

	trashed := true
	updated, applied, err := s.UpdateNote(ctx, ownerID, note.ID, uuid.New().String(), 1, models.NoteChanges{Trashed: &trashed})
	require.NoError(t, err)
	require.True(t, applied)
	assert.True(t, updated.Trashed)
	assert.False(t, updated.Archived)

	archived := true
	restored := false
	updated, applied, err = s.UpdateNote(ctx, ownerID, note.ID, uuid.New().String(), 2, models.NoteChanges{Trashed: &restored, Archived: &archived})
	require.NoError(t, err)
	require.True(t, applied)
	assert.False(t, updated.Trashed)
	assert.True(t, updated.Archived)
}

func TestNoteStorage_DeleteNote(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)
	otherID := createTestUser(t, ctx, s)
	note := createTestNote(t, ctx, s, ownerID, "doomed")

	// Another owner cannot delete it
	err := s.DeleteNote(ctx, otherID, note.ID)
	assert.ErrorIs(t, err, storage.ErrNoteNotFound)

	_, err = s.GetNote(ctx, ownerID, note.ID)
	require.NoError(t, err, "note survives a foreign delete attempt")

	err = s.DeleteNote(ctx, ownerID, note.ID)
	require.NoError(t, err)

	_, err = s.GetNote(ctx, ownerID, note.ID)
	assert.ErrorIs(t, err, storage.ErrNoteNotFound)

	// Deleting again reports not found; the handler layer turns that
	// into an idempotent success.
	err = s.DeleteNote(ctx, ownerID, note.ID)
	assert.ErrorIs(t, err, storage.ErrNoteNotFound)
}

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// In-memory database keeps the tests self-contained
	storage, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = storage.Close()
	}

	return storage, cleanup
}

func createTestUser(t *testing.T, ctx context.Context, s *Storage) string {
	userID := uuid.New().String()
	user := &models.User{
		ID:           userID,
		Username:     "testuser_" + userID[:8],
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
		LastLogin:    nil,
	}

	err := s.CreateUser(ctx, user)
	require.NoError(t, err)

	return userID
}

func createTestNote(t *testing.T, ctx context.Context, s *Storage, ownerID, title string) *models.Note {
	note := &models.Note{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Title:   title,
		Body:    "body of " + title,
	}

	created, isNew, err := s.CreateNote(ctx, note, "ref-"+note.ID)
	require.NoError(t, err)
	require.True(t, isNew)

	return created
}
