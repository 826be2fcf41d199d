package api

import "time"

// Note is the wire representation of a note as the server knows it.
type Note struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Version   int64     `json:"version"`
	Trashed   bool      `json:"trashed"`
	Archived  bool      `json:"archived"`
}

// NoteChanges is a field-level patch; nil means "leave alone".
type NoteChanges struct {
	Title    *string `json:"title,omitempty"`
	Body     *string `json:"body,omitempty"`
	Trashed  *bool   `json:"trashed,omitempty"`
	Archived *bool   `json:"archived,omitempty"`
	Deleted  *bool   `json:"deleted,omitempty"`
}

// CreateNoteRequest creates a note. ClientRef is the client-generated
// idempotency key: replaying the same ref returns the note created the
// first time instead of a duplicate.
type CreateNoteRequest struct {
	ClientRef string `json:"client_ref"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Trashed   bool   `json:"trashed,omitempty"`
	Archived  bool   `json:"archived,omitempty"`
}

// UpdateNoteRequest patches a note. BaseVersion is the optimistic
// concurrency token: the server rejects the patch with 409 when the
// stored version differs. MutationID deduplicates replays after a client
// crash.
type UpdateNoteRequest struct {
	MutationID  string      `json:"mutation_id"`
	BaseVersion int64       `json:"base_version"`
	Changes     NoteChanges `json:"changes"`
}

// ListNotesResponse is the bootstrap/refresh payload. ServerTime is the
// watermark the client stores and sends back as ?since= next time.
type ListNotesResponse struct {
	Notes      []Note `json:"notes"`
	ServerTime int64  `json:"server_time"` // unix nanoseconds
}

// ConflictResponse is the 409 body: the authoritative current state so
// the client can surface both sides to the user.
type ConflictResponse struct {
	Error       string `json:"error"` // always "version_conflict"
	Message     string `json:"message,omitempty"`
	CurrentNote Note   `json:"current_note"`
}
