package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scriba-app/scriba/internal/client/queue"
	"github.com/scriba-app/scriba/internal/client/storage"
	"github.com/scriba-app/scriba/internal/models"
	"github.com/scriba-app/scriba/internal/validation"
)

//go:generate moq -out service_mock.go . Service

// Service is the note API the UI talks to. Reads come straight from the
// local store; writes apply locally first and queue a mutation for the
// reconciler, so every operation works offline.
type Service interface {
	// Create stores a new note under a temporary ID and queues its
	// creation. The server assigns the canonical ID on first flush.
	Create(ctx context.Context, title, body string) (*models.LocalNote, error)

	// Get retrieves one local record.
	// Returns storage.ErrNoteNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*models.LocalNote, error)

	// List returns the session owner's records.
	List(ctx context.Context, opts storage.ListOptions) ([]*models.LocalNote, error)

	// Edit applies a partial change locally and queues it. Editing a
	// conflicted note accumulates into the retained mutation without
	// waking it up.
	Edit(ctx context.Context, id string, changes models.NoteChanges) (*models.LocalNote, error)

	// Delete removes the record locally and queues the deletion. A note
	// whose create never reached the server is dropped outright; a
	// conflicted note stays visible until the conflict is resolved.
	Delete(ctx context.Context, id string) error

	// Conflicts lists the records awaiting conflict resolution.
	Conflicts(ctx context.Context) ([]*models.LocalNote, error)

	// Watch exposes the store's change feed.
	Watch(ctx context.Context) (<-chan storage.NoteEvent, func())
}

// Flusher nudges the background reconciler after an optimistic write.
// May be nil; one-shot commands flush explicitly instead.
type Flusher interface {
	Trigger()
}

type service struct {
	notes   storage.NoteStorage
	queue   queue.Queue
	auth    storage.AuthStorage
	flusher Flusher
	logger  *slog.Logger
}

// NewService creates the notes facade.
func NewService(
	notes storage.NoteStorage,
	q queue.Queue,
	auth storage.AuthStorage,
	flusher Flusher,
	logger *slog.Logger,
) Service {
	return &service{
		notes:   notes,
		queue:   q,
		auth:    auth,
		flusher: flusher,
		logger:  logger,
	}
}

func (s *service) Create(ctx context.Context, title, body string) (*models.LocalNote, error) {
	if err := validation.ValidateNoteTitle(title); err != nil {
		return nil, err
	}
	if err := validation.ValidateNoteBody(body); err != nil {
		return nil, err
	}

	auth, err := s.auth.GetAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	now := time.Now()
	local := &models.LocalNote{
		Note: models.Note{
			ID:        models.NewTempID(),
			OwnerID:   auth.UserID,
			Title:     title,
			Body:      body,
			CreatedAt: now,
			UpdatedAt: now,
		},
		SyncStatus: models.SyncStatusPending,
	}

	m, err := s.queue.Enqueue(ctx, queue.Op{
		Kind:    models.MutationKindCreate,
		NoteID:  local.Note.ID,
		Changes: models.ChangesFromNote(&local.Note),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to queue create: %w", err)
	}
	local.PendingMutationID = m.ID

	if err := s.notes.SaveNote(ctx, local); err != nil {
		return nil, fmt.Errorf("failed to save note: %w", err)
	}

	s.logger.Info("note created locally", "note_id", local.Note.ID)
	s.nudge()
	return local, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.LocalNote, error) {
	return s.notes.GetNote(ctx, id)
}

func (s *service) List(ctx context.Context, opts storage.ListOptions) ([]*models.LocalNote, error) {
	auth, err := s.auth.GetAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var out []*models.LocalNote
	for note, err := range s.notes.ListNotes(ctx, auth.UserID, opts) {
		if err != nil {
			return nil, fmt.Errorf("failed to list notes: %w", err)
		}
		out = append(out, note)
	}
	return out, nil
}

func (s *service) Edit(ctx context.Context, id string, changes models.NoteChanges) (*models.LocalNote, error) {
	if changes.IsEmpty() {
		return s.notes.GetNote(ctx, id)
	}
	if changes.Title != nil {
		if err := validation.ValidateNoteTitle(*changes.Title); err != nil {
			return nil, err
		}
	}
	if changes.Body != nil {
		if err := validation.ValidateNoteBody(*changes.Body); err != nil {
			return nil, err
		}
	}

	local, err := s.notes.GetNote(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load note %s: %w", id, err)
	}

	m, err := s.queue.Enqueue(ctx, queue.Op{
		Kind:        models.MutationKindUpdate,
		NoteID:      id,
		Changes:     changes,
		BaseVersion: local.Note.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to queue update: %w", err)
	}

	updated := local.Clone()
	changes.ApplyTo(&updated.Note)
	updated.Note.UpdatedAt = time.Now()
	updated.PendingMutationID = m.ID

	if updated.SyncStatus == models.SyncStatusConflict {
		// Frozen until resolved; keep the conflict's local side current
		// for display.
		if updated.Conflict != nil {
			pend, err := s.queue.PendingWork(ctx, id)
			if err != nil {
				s.logger.Warn("failed to refresh conflict summary", "note_id", id, "error", err)
			} else {
				updated.Conflict.LocalChanges = pend.Changes
			}
		}
	} else {
		updated.SyncStatus = models.SyncStatusPending
		updated.SyncError = ""
	}

	if err := s.notes.SaveNote(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to save note %s: %w", id, err)
	}

	s.logger.Info("note updated locally", "note_id", id)
	s.nudge()
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	local, err := s.notes.GetNote(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load note %s: %w", id, err)
	}

	if local.SyncStatus == models.SyncStatusConflict {
		// The record stays visible until the conflict is resolved; the
		// delete folds into the retained mutation.
		if _, err := s.queue.Enqueue(ctx, queue.Op{
			Kind:        models.MutationKindDelete,
			NoteID:      id,
			BaseVersion: local.Note.Version,
		}); err != nil {
			return fmt.Errorf("failed to queue delete: %w", err)
		}

		if local.Conflict != nil {
			updated := local.Clone()
			deleted := true
			updated.Conflict.LocalChanges.Deleted = &deleted
			if err := s.notes.SaveNote(ctx, updated); err != nil {
				return fmt.Errorf("failed to save note %s: %w", id, err)
			}
		}
		s.logger.Info("delete folded into retained conflict", "note_id", id)
		return nil
	}

	m, err := s.queue.Enqueue(ctx, queue.Op{
		Kind:        models.MutationKindDelete,
		NoteID:      id,
		BaseVersion: local.Note.Version,
	})
	if err != nil {
		return fmt.Errorf("failed to queue delete: %w", err)
	}

	if err := s.notes.DeleteNote(ctx, id); err != nil && !errors.Is(err, storage.ErrNoteNotFound) {
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}

	if m == nil {
		// The create never left this device; the server has nothing to
		// forget.
		s.logger.Info("unsynced note dropped", "note_id", id)
		return nil
	}

	s.logger.Info("note deleted locally", "note_id", id)
	s.nudge()
	return nil
}

func (s *service) Conflicts(ctx context.Context) ([]*models.LocalNote, error) {
	return s.notes.ListNotesByStatus(ctx, models.SyncStatusConflict)
}

func (s *service) Watch(ctx context.Context) (<-chan storage.NoteEvent, func()) {
	return s.notes.Subscribe(ctx)
}

func (s *service) nudge() {
	if s.flusher != nil {
		s.flusher.Trigger()
	}
}
