package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TempIDPrefix marks client-generated identifiers that the server has not
// yet replaced with a canonical one.
const TempIDPrefix = "tmp-"

// Note is the entity replicated between the server and every client that
// can see it. Version is owned by the server: a client never advances it
// on its own, only after a server acknowledgment.
type Note struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`       // canonical UUID, or "tmp-<uuid>" before server assignment
	OwnerID   string    `json:"owner_id"` // user that owns the note
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Version   int64     `json:"version"`  // optimistic concurrency token, monotonically increasing
	Trashed   bool      `json:"trashed"`  // soft-state flag, participates in conflict checks
	Archived  bool      `json:"archived"` // soft-state flag, participates in conflict checks
}

// NewTempID returns a fresh client-generated temporary note ID.
func NewTempID() string {
	return TempIDPrefix + uuid.New().String()
}

// IsTempID reports whether id is a client-generated temporary identifier.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Clone returns a deep copy of the note.
func (n *Note) Clone() *Note {
	c := *n
	return &c
}

// SyncStatus describes where a locally cached note stands relative to the
// server copy.
type SyncStatus string

const (
	// SyncStatusSynced means the local copy matches the last acknowledged
	// server state.
	SyncStatusSynced SyncStatus = "synced"
	// SyncStatusPending means at least one local mutation has not been
	// confirmed by the server yet.
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusConflict means the server rejected a mutation because the
	// baseline version was stale. Never cleared automatically.
	SyncStatusConflict SyncStatus = "conflict"
	// SyncStatusError means the server rejected a mutation as invalid; the
	// mutation was discarded and will not be retried.
	SyncStatusError SyncStatus = "error"
)

// LocalNote is the client-side record wrapper: the note payload plus the
// per-record sync metadata the reconciler maintains.
type LocalNote struct {
	Note              Note          `json:"note"`
	Conflict          *ConflictInfo `json:"conflict,omitempty"` // non-nil iff SyncStatus == conflict
	SyncStatus        SyncStatus    `json:"sync_status"`
	PendingMutationID string        `json:"pending_mutation_id,omitempty"` // queue back-reference while pending
	SyncError         string        `json:"sync_error,omitempty"`          // terminal rejection detail when status is error
}

// Clone returns a deep copy of the local record.
func (l *LocalNote) Clone() *LocalNote {
	c := *l
	if l.Conflict != nil {
		cc := *l.Conflict
		c.Conflict = &cc
	}
	return &c
}

// ConflictInfo captures both sides of a version conflict so the user can
// resolve it explicitly. Nothing here is merged automatically.
type ConflictInfo struct {
	DetectedAt    time.Time   `json:"detected_at"`
	ServerNote    Note        `json:"server_note"`   // authoritative state at rejection time
	LocalChanges  NoteChanges `json:"local_changes"` // the edit the server refused
	BaseVersion   int64       `json:"base_version"`  // version the rejected edit was computed against
	ServerDeleted bool        `json:"server_deleted,omitempty"` // the note is gone on the server; ServerNote holds the last known copy
}

// NoteChanges is a field-level patch. Nil pointers mean "leave the field
// alone"; set pointers overwrite. Successive patches to the same note
// coalesce last-value-wins via Merge.
type NoteChanges struct {
	Title    *string `json:"title,omitempty"`
	Body     *string `json:"body,omitempty"`
	Trashed  *bool   `json:"trashed,omitempty"`
	Archived *bool   `json:"archived,omitempty"`
	Deleted  *bool   `json:"deleted,omitempty"` // broadcast-only: tells room members the note is gone
}

// IsEmpty reports whether the patch changes nothing.
func (c NoteChanges) IsEmpty() bool {
	return c.Title == nil && c.Body == nil && c.Trashed == nil && c.Archived == nil && c.Deleted == nil
}

// Merge overlays newer onto c, field by field. The newer value wins
// wherever both patches touch the same field.
func (c NoteChanges) Merge(newer NoteChanges) NoteChanges {
	out := c
	if newer.Title != nil {
		out.Title = newer.Title
	}
	if newer.Body != nil {
		out.Body = newer.Body
	}
	if newer.Trashed != nil {
		out.Trashed = newer.Trashed
	}
	if newer.Archived != nil {
		out.Archived = newer.Archived
	}
	if newer.Deleted != nil {
		out.Deleted = newer.Deleted
	}
	return out
}

// ApplyTo writes the set fields of the patch into dst. Identity, version
// and timestamps are left untouched.
func (c NoteChanges) ApplyTo(dst *Note) {
	if c.Title != nil {
		dst.Title = *c.Title
	}
	if c.Body != nil {
		dst.Body = *c.Body
	}
	if c.Trashed != nil {
		dst.Trashed = *c.Trashed
	}
	if c.Archived != nil {
		dst.Archived = *c.Archived
	}
}

// ChangesFromNote builds a full-snapshot patch from a note. Used for
// creates, where the queue coalesces later edits into one
// create-with-latest-payload.
func ChangesFromNote(n *Note) NoteChanges {
	title := n.Title
	body := n.Body
	trashed := n.Trashed
	archived := n.Archived
	return NoteChanges{
		Title:    &title,
		Body:     &body,
		Trashed:  &trashed,
		Archived: &archived,
	}
}
