package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestNewTempID(t *testing.T) {
	id := NewTempID()
	assert.True(t, IsTempID(id))
	assert.NotEqual(t, NewTempID(), id)
}

func TestIsTempID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		expected bool
	}{
		{
			name:     "temp id",
			id:       "tmp-b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5",
			expected: true,
		},
		{
			name:     "canonical id",
			id:       "b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5",
			expected: false,
		},
		{
			name:     "empty",
			id:       "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTempID(tt.id))
		})
	}
}

func TestNoteChanges_Merge(t *testing.T) {
	tests := []struct {
		name     string
		base     NoteChanges
		newer    NoteChanges
		expected NoteChanges
	}{
		{
			name:     "newer title wins",
			base:     NoteChanges{Title: strPtr("Draft")},
			newer:    NoteChanges{Title: strPtr("Final")},
			expected: NoteChanges{Title: strPtr("Final")},
		},
		{
			name:     "untouched fields survive",
			base:     NoteChanges{Title: strPtr("Draft"), Body: strPtr("text")},
			newer:    NoteChanges{Title: strPtr("Final")},
			expected: NoteChanges{Title: strPtr("Final"), Body: strPtr("text")},
		},
		{
			name:     "flags merge independently",
			base:     NoteChanges{Trashed: boolPtr(true)},
			newer:    NoteChanges{Archived: boolPtr(true)},
			expected: NoteChanges{Trashed: boolPtr(true), Archived: boolPtr(true)},
		},
		{
			name:     "empty newer is a no-op",
			base:     NoteChanges{Body: strPtr("keep")},
			newer:    NoteChanges{},
			expected: NoteChanges{Body: strPtr("keep")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.base.Merge(tt.newer)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNoteChanges_ApplyTo(t *testing.T) {
	note := &Note{
		ID:      "n-1",
		Title:   "Draft",
		Body:    "original",
		Version: 3,
	}

	changes := NoteChanges{
		Title:   strPtr("Final"),
		Trashed: boolPtr(true),
	}
	changes.ApplyTo(note)

	assert.Equal(t, "Final", note.Title)
	assert.Equal(t, "original", note.Body)
	assert.True(t, note.Trashed)
	// Version is server-owned and must never move on a local apply.
	assert.Equal(t, int64(3), note.Version)
}

func TestNoteChanges_IsEmpty(t *testing.T) {
	assert.True(t, NoteChanges{}.IsEmpty())
	assert.False(t, NoteChanges{Title: strPtr("x")}.IsEmpty())
	assert.False(t, NoteChanges{Deleted: boolPtr(true)}.IsEmpty())
}

func TestChangesFromNote(t *testing.T) {
	note := &Note{
		ID:       "n-1",
		Title:    "Title",
		Body:     "Body",
		Trashed:  true,
		Archived: false,
	}

	changes := ChangesFromNote(note)

	require.NotNil(t, changes.Title)
	require.NotNil(t, changes.Body)
	require.NotNil(t, changes.Trashed)
	require.NotNil(t, changes.Archived)
	assert.Equal(t, "Title", *changes.Title)
	assert.Equal(t, "Body", *changes.Body)
	assert.True(t, *changes.Trashed)
	assert.False(t, *changes.Archived)
	assert.Nil(t, changes.Deleted)

	// The snapshot must be detached from the note.
	note.Title = "mutated"
	assert.Equal(t, "Title", *changes.Title)
}

func TestLocalNote_Clone(t *testing.T) {
	original := &LocalNote{
		Note:              Note{ID: "n-1", Title: "Draft", Version: 2},
		SyncStatus:        SyncStatusConflict,
		PendingMutationID: "m-1",
		Conflict: &ConflictInfo{
			ServerNote:   Note{ID: "n-1", Title: "Server", Version: 3},
			LocalChanges: NoteChanges{Title: strPtr("Draft")},
			BaseVersion:  2,
		},
	}

	clone := original.Clone()

	assert.Equal(t, original, clone)

	// Mutating the clone's conflict must not reach the original.
	clone.Conflict.ServerNote.Title = "changed"
	assert.Equal(t, "Server", original.Conflict.ServerNote.Title)
}
