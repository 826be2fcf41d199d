package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/scriba-app/scriba/internal/client/storage"
	"github.com/scriba-app/scriba/internal/models"
)

//go:generate moq -out service_mock.go . Queue

// Op is a locally-originated write to record in the queue.
type Op struct {
	Kind        models.MutationKind
	NoteID      string
	Changes     models.NoteChanges
	BaseVersion int64
}

// Pending summarizes what remains queued for one note.
type Pending struct {
	// Changes is the merge of every remaining entry's patch, in queue
	// order.
	Changes models.NoteChanges
	// OldestID is the mutation ID of the oldest remaining entry.
	OldestID string
	// HasDelete reports that a delete entry remains; the local record is
	// already gone and must not be resurrected.
	HasDelete bool
	// HasEntries reports whether any entry remains at all.
	HasEntries bool
}

// Queue is the persisted mutation queue: ordered per note, coalescing,
// one entry in flight per note at a time.
type Queue interface {
	// Enqueue records the operation, coalescing with queued work for the
	// same note. Returns the resulting entry, or nil when the operation
	// annihilated the queued work (deleting a note whose create was never
	// sent leaves nothing to tell the server).
	Enqueue(ctx context.Context, op Op) (*models.Mutation, error)

	// DequeueNext returns the note's oldest queued entry, or nil when the
	// note has an entry in flight, a retained conflict, or nothing queued.
	DequeueNext(ctx context.Context, noteID string) (*models.Mutation, error)

	// NotesWithPending returns the IDs of notes that have queued entries,
	// ordered by their oldest entry.
	NotesWithPending(ctx context.Context) ([]string, error)

	// HasPending reports whether the note has any entry at all, whatever
	// its state.
	HasPending(ctx context.Context, noteID string) (bool, error)

	// PendingWork summarizes the note's remaining entries: the merged
	// patch they describe plus delete/existence flags. Used to rebuild
	// the local record on top of fresh server state.
	PendingWork(ctx context.Context, noteID string) (Pending, error)

	// MarkInFlight transitions a queued entry onto the wire.
	MarkInFlight(ctx context.Context, mutationID string) error

	// MarkCompleted removes a confirmed entry.
	MarkCompleted(ctx context.Context, mutationID string) error

	// MarkFailed retains a rejected entry for user resolution. Later
	// queued entries for the same note are folded into it so the note
	// carries exactly one entry describing all unsynced local changes.
	MarkFailed(ctx context.Context, mutationID, reason string) error

	// Requeue returns an in-flight entry to queued state (flush aborted
	// before an outcome was known).
	Requeue(ctx context.Context, mutationID string) error

	// RetargetNote rewrites the note ID on the note's entries after the
	// server assigns a canonical identity.
	RetargetNote(ctx context.Context, tempID, canonicalID string) error

	// DiscardNote drops every entry for the note.
	DiscardNote(ctx context.Context, noteID string) error

	// RebaseNote points the note's entries at a new base version and
	// returns retained entries to queued state (conflict keep-local path;
	// also fixes queued follow-ups after a create is confirmed).
	RebaseNote(ctx context.Context, noteID string, newBaseVersion int64) error
}

type service struct {
	mutations storage.MutationStorage
	logger    *slog.Logger
}

// NewService creates a queue service over the given mutation storage.
func NewService(mutations storage.MutationStorage, logger *slog.Logger) Queue {
	return &service{
		mutations: mutations,
		logger:    logger,
	}
}

func (s *service) Enqueue(ctx context.Context, op Op) (*models.Mutation, error) {
	if op.Kind == models.MutationKindDelete {
		return s.enqueueDelete(ctx, op)
	}

	entries, err := s.mutations.MutationsForNote(ctx, op.NoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue entries: %w", err)
	}

	// Coalesce into the newest entry that is not on the wire. A queued
	// create absorbs edits into create-with-latest-payload; a retained
	// conflict keeps accumulating the user's changes without waking up.
	if target := coalesceTarget(entries); target != nil && op.Kind == models.MutationKindUpdate {
		target.Changes = target.Changes.Merge(op.Changes)
		if err := s.mutations.SaveMutation(ctx, target); err != nil {
			return nil, fmt.Errorf("failed to save coalesced entry: %w", err)
		}
		s.logger.Debug("coalesced mutation",
			"note_id", op.NoteID,
			"mutation_id", target.ID,
			"kind", target.Kind,
		)
		return target, nil
	}

	m := &models.Mutation{
		ID:          uuid.NewString(),
		Kind:        op.Kind,
		NoteID:      op.NoteID,
		Changes:     op.Changes,
		BaseVersion: op.BaseVersion,
		State:       models.MutationStateQueued,
		EnqueuedAt:  time.Now(),
	}
	if err := s.mutations.AppendMutation(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to append mutation: %w", err)
	}

	s.logger.Debug("enqueued mutation",
		"note_id", op.NoteID,
		"mutation_id", m.ID,
		"kind", m.Kind,
		"seq", m.Seq,
	)
	return m, nil
}

// enqueueDelete applies the delete-supersedes rule: queued creates and
// updates for the note are cancelled. When a cancelled entry was a create
// the server never saw the note, so the delete itself is dropped too. A
// retained conflict instead absorbs the delete and stays frozen until the
// user resolves it.
func (s *service) enqueueDelete(ctx context.Context, op Op) (*models.Mutation, error) {
	entries, err := s.mutations.MutationsForNote(ctx, op.NoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue entries: %w", err)
	}

	for _, entry := range entries {
		if entry.State != models.MutationStateFailed {
			continue
		}
		entry.Kind = models.MutationKindDelete
		if err := s.mutations.SaveMutation(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to fold delete into retained entry: %w", err)
		}
		return entry, nil
	}

	unsentCreate := false
	for _, entry := range entries {
		if entry.State == models.MutationStateInFlight {
			continue
		}
		if entry.Kind == models.MutationKindCreate {
			unsentCreate = true
		}
		if err := s.mutations.DeleteMutation(ctx, entry.ID); err != nil {
			return nil, fmt.Errorf("failed to cancel superseded entry: %w", err)
		}
		s.logger.Debug("delete superseded queued entry",
			"note_id", op.NoteID,
			"mutation_id", entry.ID,
			"kind", entry.Kind,
		)
	}

	if unsentCreate {
		s.logger.Debug("dropped delete of never-synced note", "note_id", op.NoteID)
		return nil, nil
	}

	m := &models.Mutation{
		ID:          uuid.NewString(),
		Kind:        models.MutationKindDelete,
		NoteID:      op.NoteID,
		BaseVersion: op.BaseVersion,
		State:       models.MutationStateQueued,
		EnqueuedAt:  time.Now(),
	}
	if err := s.mutations.AppendMutation(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to append delete mutation: %w", err)
	}
	return m, nil
}

func (s *service) DequeueNext(ctx context.Context, noteID string) (*models.Mutation, error) {
	entries, err := s.mutations.MutationsForNote(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue entries: %w", err)
	}

	var next *models.Mutation
	for _, entry := range entries {
		switch entry.State {
		case models.MutationStateInFlight, models.MutationStateFailed:
			// One at a time; a retained conflict freezes the note until
			// the user resolves it.
			return nil, nil
		case models.MutationStateQueued:
			if next == nil {
				next = entry
			}
		}
	}
	return next, nil
}

func (s *service) NotesWithPending(ctx context.Context) ([]string, error) {
	ids, err := s.mutations.NotesWithMutations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes with mutations: %w", err)
	}

	var pending []string
	for _, id := range ids {
		entries, err := s.mutations.MutationsForNote(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load queue entries: %w", err)
		}
		for _, entry := range entries {
			if entry.Flushable() {
				pending = append(pending, id)
				break
			}
		}
	}
	return pending, nil
}

func (s *service) HasPending(ctx context.Context, noteID string) (bool, error) {
	entries, err := s.mutations.MutationsForNote(ctx, noteID)
	if err != nil {
		return false, fmt.Errorf("failed to load queue entries: %w", err)
	}
	return len(entries) > 0, nil
}

func (s *service) PendingWork(ctx context.Context, noteID string) (Pending, error) {
	entries, err := s.mutations.MutationsForNote(ctx, noteID)
	if err != nil {
		return Pending{}, fmt.Errorf("failed to load queue entries: %w", err)
	}

	var p Pending
	for _, entry := range entries {
		if !p.HasEntries {
			p.OldestID = entry.ID
		}
		p.HasEntries = true
		p.Changes = p.Changes.Merge(entry.Changes)
		if entry.Kind == models.MutationKindDelete {
			p.HasDelete = true
		}
	}
	return p, nil
}

func (s *service) MarkInFlight(ctx context.Context, mutationID string) error {
	m, err := s.mutations.GetMutation(ctx, mutationID)
	if err != nil {
		return err
	}

	m.State = models.MutationStateInFlight
	m.Attempts++
	if err := s.mutations.SaveMutation(ctx, m); err != nil {
		return fmt.Errorf("failed to mark entry in flight: %w", err)
	}
	return nil
}

func (s *service) MarkCompleted(ctx context.Context, mutationID string) error {
	if err := s.mutations.DeleteMutation(ctx, mutationID); err != nil {
		return fmt.Errorf("failed to remove completed entry: %w", err)
	}
	return nil
}

func (s *service) MarkFailed(ctx context.Context, mutationID, reason string) error {
	m, err := s.mutations.GetMutation(ctx, mutationID)
	if err != nil {
		return err
	}

	m.State = models.MutationStateFailed
	m.LastError = reason

	// Fold later queued entries in, so the retained entry carries every
	// unsynced local change for the note.
	entries, err := s.mutations.MutationsForNote(ctx, m.NoteID)
	if err != nil {
		return fmt.Errorf("failed to load queue entries: %w", err)
	}
	for _, entry := range entries {
		if entry.Seq <= m.Seq || entry.State != models.MutationStateQueued {
			continue
		}
		m.Changes = m.Changes.Merge(entry.Changes)
		if entry.Kind == models.MutationKindDelete {
			m.Kind = models.MutationKindDelete
		}
		if err := s.mutations.DeleteMutation(ctx, entry.ID); err != nil {
			return fmt.Errorf("failed to fold queued entry: %w", err)
		}
	}

	if err := s.mutations.SaveMutation(ctx, m); err != nil {
		return fmt.Errorf("failed to mark entry failed: %w", err)
	}

	s.logger.Info("mutation retained for resolution",
		"note_id", m.NoteID,
		"mutation_id", m.ID,
		"reason", reason,
	)
	return nil
}

func (s *service) Requeue(ctx context.Context, mutationID string) error {
	m, err := s.mutations.GetMutation(ctx, mutationID)
	if err != nil {
		return err
	}
	if m.State != models.MutationStateInFlight {
		return nil
	}

	m.State = models.MutationStateQueued
	if err := s.mutations.SaveMutation(ctx, m); err != nil {
		return fmt.Errorf("failed to requeue entry: %w", err)
	}
	return nil
}

func (s *service) RetargetNote(ctx context.Context, tempID, canonicalID string) error {
	if err := s.mutations.RetargetNote(ctx, tempID, canonicalID); err != nil {
		return fmt.Errorf("failed to retarget queue entries: %w", err)
	}
	return nil
}

func (s *service) DiscardNote(ctx context.Context, noteID string) error {
	entries, err := s.mutations.MutationsForNote(ctx, noteID)
	if err != nil {
		return fmt.Errorf("failed to load queue entries: %w", err)
	}
	for _, entry := range entries {
		if err := s.mutations.DeleteMutation(ctx, entry.ID); err != nil {
			return fmt.Errorf("failed to discard entry: %w", err)
		}
	}
	return nil
}

func (s *service) RebaseNote(ctx context.Context, noteID string, newBaseVersion int64) error {
	entries, err := s.mutations.MutationsForNote(ctx, noteID)
	if err != nil {
		return fmt.Errorf("failed to load queue entries: %w", err)
	}
	for _, entry := range entries {
		entry.BaseVersion = newBaseVersion
		if entry.State == models.MutationStateFailed {
			entry.State = models.MutationStateQueued
			entry.LastError = ""
		}
		if err := s.mutations.SaveMutation(ctx, entry); err != nil {
			return fmt.Errorf("failed to rebase entry: %w", err)
		}
	}
	return nil
}

// coalesceTarget returns the newest entry edits may merge into, or nil
// when every entry is on the wire.
func coalesceTarget(entries []*models.Mutation) *models.Mutation {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].State != models.MutationStateInFlight && entries[i].Kind != models.MutationKindDelete {
			return entries[i]
		}
	}
	return nil
}
