package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriba-app/scriba/internal/client/notes"
	"github.com/scriba-app/scriba/internal/client/storage"
	"github.com/scriba-app/scriba/internal/client/sync"
	"github.com/scriba-app/scriba/internal/models"
)

func TestRunAdd(t *testing.T) {
	io, output := newTestIO()
	scriptInputs(io, "groceries", "milk, eggs")

	notesMock := &notes.ServiceMock{
		CreateFunc: func(ctx context.Context, title, body string) (*models.LocalNote, error) {
			return &models.LocalNote{
				Note:       models.Note{ID: "tmp-abc", Title: title, Body: body},
				SyncStatus: models.SyncStatusPending,
			}, nil
		},
	}
	cli := &Cli{io: io, notesService: notesMock}

	require.NoError(t, cli.Run(context.Background(), "add", nil))

	calls := notesMock.CreateCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "groceries", calls[0].Title)
	assert.Equal(t, "milk, eggs", calls[0].Body)

	assert.Contains(t, output(), "Note added")
	assert.Contains(t, output(), "tmp-abc")
	assert.Contains(t, output(), "stored locally")
}

func TestRunAdd_WithSyncReportsCanonicalID(t *testing.T) {
	io, output := newTestIO()
	scriptInputs(io, "groceries", "milk")

	events := make(chan storage.NoteEvent, 4)
	notesMock := &notes.ServiceMock{
		CreateFunc: func(ctx context.Context, title, body string) (*models.LocalNote, error) {
			return &models.LocalNote{
				Note:       models.Note{ID: "tmp-abc", Title: title, Body: body},
				SyncStatus: models.SyncStatusPending,
			}, nil
		},
		WatchFunc: func(ctx context.Context) (<-chan storage.NoteEvent, func()) {
			return events, func() { close(events) }
		},
	}
	syncMock := &sync.ServiceMock{
		ReconcileNoteFunc: func(ctx context.Context, noteID string) error {
			// The flush renames the note to its server identity.
			events <- storage.NoteEvent{
				Kind:   storage.NoteEventRenamed,
				NoteID: "srv-1",
				OldID:  "tmp-abc",
			}
			events <- storage.NoteEvent{
				Kind:   storage.NoteEventSaved,
				NoteID: "srv-1",
				Note: &models.LocalNote{
					Note:       models.Note{ID: "srv-1", Version: 1, UpdatedAt: time.Now()},
					SyncStatus: models.SyncStatusSynced,
				},
			}
			return nil
		},
	}
	cli := &Cli{io: io, notesService: notesMock, syncService: syncMock}

	require.NoError(t, cli.Run(context.Background(), "add", []string{"--sync"}))

	calls := syncMock.ReconcileNoteCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "tmp-abc", calls[0].NoteID)

	assert.Contains(t, output(), "Synced as srv-1")
}

func TestRunAdd_CreateFails(t *testing.T) {
	io, _ := newTestIO()
	scriptInputs(io, "notes", "body")

	notesMock := &notes.ServiceMock{
		CreateFunc: func(ctx context.Context, title, body string) (*models.LocalNote, error) {
			return nil, errors.New("note body exceeds maximum size")
		},
	}
	cli := &Cli{io: io, notesService: notesMock}

	err := cli.Run(context.Background(), "add", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to add note")
}
