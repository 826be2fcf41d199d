package models

import "time"

// MutationKind is the operation a queue entry performs against the server.
type MutationKind string

const (
	MutationKindCreate MutationKind = "create"
	MutationKindUpdate MutationKind = "update"
	MutationKindDelete MutationKind = "delete"
)

// MutationState tracks a queue entry through its lifecycle. Entries are
// persisted, so InFlight is transient: storage resets it to Queued on open
// after a crash and the server deduplicates the replay by mutation ID.
type MutationState string

const (
	// MutationStateQueued means the entry is waiting its turn. At most one
	// entry per note leaves this state at a time.
	MutationStateQueued MutationState = "queued"
	// MutationStateInFlight means the entry's request is on the wire.
	MutationStateInFlight MutationState = "inflight"
	// MutationStateFailed means the server rejected the entry for a stale
	// version. The entry is retained for explicit resolution and is never
	// retried automatically.
	MutationStateFailed MutationState = "failed"
)

// Mutation is one locally-originated, not-yet-confirmed write. Seq fixes
// the queue order; BaseVersion is the note version the edit was computed
// against and is what the server's compare-and-swap checks.
type Mutation struct {
	EnqueuedAt  time.Time     `json:"enqueued_at"`
	ID          string        `json:"id"` // UUID, doubles as the server-side idempotency key
	NoteID      string        `json:"note_id"`
	Kind        MutationKind  `json:"kind"`
	State       MutationState `json:"state"`
	LastError   string        `json:"last_error,omitempty"`
	Changes     NoteChanges   `json:"changes"` // field patch; full snapshot for creates
	Seq         uint64        `json:"seq"`
	BaseVersion int64         `json:"base_version"`
	Attempts    int           `json:"attempts"`
}

// Flushable reports whether the entry is waiting to be sent. Failed
// entries are excluded: they hold a conflict awaiting user resolution.
func (m *Mutation) Flushable() bool {
	return m.State == MutationStateQueued
}

// Clone returns a deep copy of the mutation.
func (m *Mutation) Clone() *Mutation {
	c := *m
	return &c
}
