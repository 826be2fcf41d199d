package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriba-app/scriba/internal/client/notes"
	"github.com/scriba-app/scriba/internal/client/storage"
	"github.com/scriba-app/scriba/internal/models"
)

func strPtr(s string) *string { return &s }

func TestRunGet(t *testing.T) {
	io, output := newTestIO()

	notesMock := &notes.ServiceMock{
		GetFunc: func(ctx context.Context, id string) (*models.LocalNote, error) {
			return &models.LocalNote{
				Note: models.Note{
					ID:        "srv-1",
					Title:     "groceries",
					Body:      "milk, eggs",
					Version:   3,
					UpdatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
				},
				SyncStatus: models.SyncStatusSynced,
			}, nil
		},
	}
	cli := &Cli{io: io, notesService: notesMock}

	require.NoError(t, cli.Run(context.Background(), "get", []string{"srv-1"}))

	calls := notesMock.GetCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "srv-1", calls[0].ID)

	out := output()
	assert.Contains(t, out, "groceries")
	assert.Contains(t, out, "milk, eggs")
	assert.Contains(t, out, "Version: 3")
	assert.Contains(t, out, "synced")
}

func TestRunGet_ConflictShowsBothSides(t *testing.T) {
	io, output := newTestIO()

	notesMock := &notes.ServiceMock{
		GetFunc: func(ctx context.Context, id string) (*models.LocalNote, error) {
			return &models.LocalNote{
				Note: models.Note{ID: "srv-1", Title: "mine", Body: "my body", Version: 3},
				SyncStatus: models.SyncStatusConflict,
				Conflict: &models.ConflictInfo{
					ServerNote:   models.Note{ID: "srv-1", Title: "theirs", Body: "their body", Version: 5},
					LocalChanges: models.NoteChanges{Title: strPtr("mine")},
					BaseVersion:  3,
					DetectedAt:   time.Now(),
				},
			}, nil
		},
	}
	cli := &Cli{io: io, notesService: notesMock}

	require.NoError(t, cli.Run(context.Background(), "get", []string{"srv-1"}))

	out := output()
	assert.Contains(t, out, "sync conflict")
	assert.Contains(t, out, "Server version 5")
	assert.Contains(t, out, "theirs")
	assert.Contains(t, out, "Your unconfirmed changes")
	assert.Contains(t, out, "mine")
	assert.Contains(t, out, "resolve srv-1")
}

func TestRunGet_RemoteDeletionConflict(t *testing.T) {
	io, output := newTestIO()

	notesMock := &notes.ServiceMock{
		GetFunc: func(ctx context.Context, id string) (*models.LocalNote, error) {
			return &models.LocalNote{
				Note:       models.Note{ID: "srv-1", Title: "mine", Version: 3},
				SyncStatus: models.SyncStatusConflict,
				Conflict: &models.ConflictInfo{
					ServerNote:    models.Note{ID: "srv-1", Title: "mine", Version: 3},
					LocalChanges:  models.NoteChanges{Body: strPtr("more")},
					BaseVersion:   3,
					ServerDeleted: true,
					DetectedAt:    time.Now(),
				},
			}, nil
		},
	}
	cli := &Cli{io: io, notesService: notesMock}

	require.NoError(t, cli.Run(context.Background(), "get", []string{"srv-1"}))

	assert.Contains(t, output(), "deleted on the server")
}

func TestRunGet_NotFound(t *testing.T) {
	io, _ := newTestIO()

	notesMock := &notes.ServiceMock{
		GetFunc: func(ctx context.Context, id string) (*models.LocalNote, error) {
			return nil, storage.ErrNoteNotFound
		},
	}
	cli := &Cli{io: io, notesService: notesMock}

	err := cli.Run(context.Background(), "get", []string{"nope"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "note not found: nope")
}

func TestRunGet_MissingID(t *testing.T) {
	io, _ := newTestIO()
	cli := &Cli{io: io}

	err := cli.Run(context.Background(), "get", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing note ID")
}
