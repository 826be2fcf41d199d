package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	httpClient "github.com/scriba-app/scriba/internal/client/api"
	"github.com/scriba-app/scriba/internal/client/queue"
	"github.com/scriba-app/scriba/internal/client/storage"
	"github.com/scriba-app/scriba/internal/models"
	"github.com/scriba-app/scriba/pkg/api"

	"golang.org/x/sync/errgroup"
)

//go:generate moq -out service_mock.go . Service

const (
	// defaultPollInterval is the safety-net pass; normal flushes are
	// driven by Trigger.
	defaultPollInterval = 30 * time.Second

	retryBaseDelay = 1 * time.Second
	retryCapDelay  = 30 * time.Second

	// maxConcurrentNotes bounds cross-note parallelism. Entries for one
	// note always flush in order on a single goroutine.
	maxConcurrentNotes = 4
)

// Service is the reconciler: it drains the mutation queue to the server,
// folds confirmed state and remote broadcasts back into the local store,
// and surfaces conflicts for explicit resolution.
type Service interface {
	// Start runs the reconcile loop until ctx is cancelled: one pass
	// immediately, then on every Trigger and on a safety-net ticker.
	Start(ctx context.Context) error

	// Trigger nudges the running loop. Never blocks.
	Trigger()

	// ReconcileAll flushes every note with queued work, bounded-concurrent
	// across notes.
	ReconcileAll(ctx context.Context) (*Result, error)

	// ReconcileNote flushes one note's queue until it is empty or frozen.
	ReconcileNote(ctx context.Context, noteID string) error

	// Bootstrap pulls the user's notes changed since the last pull
	// watermark into the store. Returns the number of notes received.
	Bootstrap(ctx context.Context) (int, error)

	// FetchAndReconcile pulls current server state for the given notes.
	// Used after a reconnect for every open room, because broadcasts
	// missed while offline are never assumed delivered.
	FetchAndReconcile(ctx context.Context, noteIDs []string) error

	// ApplyRemoteUpdate folds a broadcast into the store: applied when
	// the note has no pending work and the version is newer, buffered
	// until the local mutation settles otherwise.
	ApplyRemoteUpdate(ctx context.Context, ev RemoteUpdate) error

	// ResolveKeepLocal re-bases the retained mutation onto the server
	// version and queues it again.
	ResolveKeepLocal(ctx context.Context, noteID string) error

	// ResolveAcceptServer discards the retained mutation and adopts the
	// server copy.
	ResolveAcceptServer(ctx context.Context, noteID string) error
}

// TokenSource supplies a currently valid access token, refreshing behind
// the scenes when needed.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Publisher is the realtime side the reconciler informs about confirmed
// changes. Implementations tolerate being disconnected.
type Publisher interface {
	PublishUpdate(noteID string, changes models.NoteChanges, version int64) error
	RetargetRoom(oldID, newID string)
}

// RemoteUpdate is a confirmed change some other session made, delivered
// over the realtime channel or re-fetched after a reconnect.
type RemoteUpdate struct {
	Changes   models.NoteChanges
	UpdatedAt time.Time
	NoteID    string
	Version   int64
}

// Result counts the outcomes of one reconcile pass.
type Result struct {
	Flushed   int // mutations the server confirmed
	Conflicts int // mutations retained for user resolution
	Discarded int // mutations the server rejected as invalid
}

type flushOutcome int

const (
	outcomeFlushed flushOutcome = iota
	outcomeConflict
	outcomeDiscarded
)

type service struct {
	apiClient httpClient.ClientAPI
	notes     storage.NoteStorage
	queue     queue.Queue
	metadata  storage.MetadataStorage
	tokens    TokenSource
	publisher Publisher
	logger    *slog.Logger

	pollInterval time.Duration
	retryBase    time.Duration
	retryCap     time.Duration

	trigger chan struct{}

	// mu serializes remote applies, conflict bookkeeping and resolution
	// against each other. Flushes of a note never race these paths: while
	// an entry is pending, remote events for that note only touch the
	// buffer.
	mu       sync.Mutex
	buffered map[string]RemoteUpdate
}

// NewService creates the reconciler. publisher may be nil when no
// realtime channel is attached.
func NewService(
	apiClient httpClient.ClientAPI,
	notes storage.NoteStorage,
	q queue.Queue,
	metadata storage.MetadataStorage,
	tokens TokenSource,
	publisher Publisher,
	logger *slog.Logger,
) Service {
	return &service{
		apiClient:    apiClient,
		notes:        notes,
		queue:        q,
		metadata:     metadata,
		tokens:       tokens,
		publisher:    publisher,
		logger:       logger,
		pollInterval: defaultPollInterval,
		retryBase:    retryBaseDelay,
		retryCap:     retryCapDelay,
		trigger:      make(chan struct{}, 1),
		buffered:     make(map[string]RemoteUpdate),
	}
}

func (s *service) Start(ctx context.Context) error {
	s.logger.Info("reconciler started", "poll_interval", s.pollInterval)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if _, err := s.ReconcileAll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("reconcile pass failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.trigger:
		case <-ticker.C:
		}
	}
}

func (s *service) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *service) ReconcileAll(ctx context.Context) (*Result, error) {
	noteIDs, err := s.queue.NotesWithPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes with pending work: %w", err)
	}
	if len(noteIDs) == 0 {
		return &Result{}, nil
	}

	var (
		resultMu sync.Mutex
		result   Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentNotes)
	for _, noteID := range noteIDs {
		g.Go(func() error {
			r, err := s.reconcileNote(gctx, noteID)

			resultMu.Lock()
			result.Flushed += r.Flushed
			result.Conflicts += r.Conflicts
			result.Discarded += r.Discarded
			resultMu.Unlock()

			return err
		})
	}
	if err := g.Wait(); err != nil {
		return &result, err
	}

	s.logger.Debug("reconcile pass completed",
		"flushed", result.Flushed,
		"conflicts", result.Conflicts,
		"discarded", result.Discarded,
	)
	return &result, nil
}

func (s *service) ReconcileNote(ctx context.Context, noteID string) error {
	_, err := s.reconcileNote(ctx, noteID)
	return err
}

// reconcileNote drains one note's queue. DequeueNext returning nil means
// the note is done or frozen behind an in-flight entry or a retained
// conflict. A settled create moves the note and its remaining entries to
// the server-assigned ID, so the drain follows it there.
func (s *service) reconcileNote(ctx context.Context, noteID string) (Result, error) {
	var result Result
	for {
		m, err := s.queue.DequeueNext(ctx, noteID)
		if err != nil {
			return result, fmt.Errorf("failed to dequeue for note %s: %w", noteID, err)
		}
		if m == nil {
			return result, nil
		}

		outcome, currentID, err := s.flushMutation(ctx, m)
		if err != nil {
			return result, err
		}
		noteID = currentID

		switch outcome {
		case outcomeFlushed:
			result.Flushed++
		case outcomeConflict:
			result.Conflicts++
		case outcomeDiscarded:
			result.Discarded++
		}
	}
}

// flushMutation pushes one entry to the server and reports the ID the
// note lives under afterwards. Transport failures retry with capped
// backoff for as long as the context lives; server verdicts settle the
// entry.
func (s *service) flushMutation(ctx context.Context, m *models.Mutation) (flushOutcome, string, error) {
	if err := s.queue.MarkInFlight(ctx, m.ID); err != nil {
		return 0, "", fmt.Errorf("failed to mark mutation in flight: %w", err)
	}

	var serverNote *api.Note
	backoff := retry.WithCappedDuration(s.retryCap, retry.NewExponential(s.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		accessToken, err := s.tokens.AccessToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to get access token: %w", err)
		}

		note, err := s.send(ctx, accessToken, m)
		if err != nil {
			if httpClient.IsRetryable(err) {
				s.logger.Debug("transient flush failure, retrying",
					"note_id", m.NoteID,
					"mutation_id", m.ID,
					"error", err,
				)
				return retry.RetryableError(err)
			}
			return err
		}

		serverNote = note
		return nil
	})
	if err != nil {
		outcome, settleErr := s.settleFailure(ctx, m, err)
		return outcome, m.NoteID, settleErr
	}
	return s.settleSuccess(ctx, m, serverNote)
}

func (s *service) send(ctx context.Context, accessToken string, m *models.Mutation) (*api.Note, error) {
	switch m.Kind {
	case models.MutationKindCreate:
		req := api.CreateNoteRequest{ClientRef: m.ID}
		if m.Changes.Title != nil {
			req.Title = *m.Changes.Title
		}
		if m.Changes.Body != nil {
			req.Body = *m.Changes.Body
		}
		if m.Changes.Trashed != nil {
			req.Trashed = *m.Changes.Trashed
		}
		if m.Changes.Archived != nil {
			req.Archived = *m.Changes.Archived
		}
		return s.apiClient.CreateNote(ctx, accessToken, req)

	case models.MutationKindUpdate:
		req := api.UpdateNoteRequest{
			MutationID:  m.ID,
			BaseVersion: m.BaseVersion,
			Changes:     changesToAPI(m.Changes),
		}
		return s.apiClient.UpdateNote(ctx, accessToken, m.NoteID, req)

	case models.MutationKindDelete:
		return nil, s.apiClient.DeleteNote(ctx, accessToken, m.NoteID)

	default:
		return nil, fmt.Errorf("unknown mutation kind %q", m.Kind)
	}
}

func (s *service) settleSuccess(ctx context.Context, m *models.Mutation, serverNote *api.Note) (flushOutcome, string, error) {
	noteID := m.NoteID
	var err error
	switch m.Kind {
	case models.MutationKindCreate:
		err = s.adoptCreatedNote(ctx, m, serverNote)
		noteID = serverNote.ID
	case models.MutationKindUpdate:
		err = s.adoptUpdatedNote(ctx, m, serverNote)
	case models.MutationKindDelete:
		err = s.finishDelete(ctx, m)
	}
	if err != nil {
		return 0, "", err
	}
	return outcomeFlushed, noteID, nil
}

func (s *service) settleFailure(ctx context.Context, m *models.Mutation, sendErr error) (flushOutcome, error) {
	var conflictErr *httpClient.ConflictError
	var validationErr *httpClient.ValidationError

	switch {
	case errors.As(sendErr, &conflictErr):
		if err := s.retainConflict(ctx, m, conflictErr.CurrentNote, false); err != nil {
			return 0, err
		}
		return outcomeConflict, nil

	case errors.Is(sendErr, httpClient.ErrNotFound):
		if m.Kind == models.MutationKindDelete {
			// Already gone on the server; same terminal state.
			if err := s.finishDelete(ctx, m); err != nil {
				return 0, err
			}
			return outcomeFlushed, nil
		}
		// The note was deleted remotely while we edited it: a conflict
		// between the local change and the remote delete.
		if err := s.retainConflict(ctx, m, nil, true); err != nil {
			return 0, err
		}
		return outcomeConflict, nil

	case errors.As(sendErr, &validationErr):
		if err := s.discardRejected(ctx, m, validationErr.Message); err != nil {
			return 0, err
		}
		return outcomeDiscarded, nil

	default:
		// Context cancelled or the session is unusable. The entry returns
		// to queued; replay is safe because the server deduplicates by
		// mutation ID.
		if err := s.queue.Requeue(ctx, m.ID); err != nil {
			s.logger.Warn("failed to requeue mutation", "mutation_id", m.ID, "error", err)
		}
		return 0, fmt.Errorf("flush of note %s failed: %w", m.NoteID, sendErr)
	}
}

// adoptCreatedNote runs the temp-ID resolution sequence: the store key,
// the queued entries, the realtime room and the queued base versions all
// move to the canonical identity before the entry completes.
func (s *service) adoptCreatedNote(ctx context.Context, m *models.Mutation, serverNote *api.Note) error {
	tempID := m.NoteID
	canonicalID := serverNote.ID

	if tempID != canonicalID {
		err := s.notes.RenameNote(ctx, tempID, canonicalID)
		if err != nil && !errors.Is(err, storage.ErrNoteNotFound) {
			return fmt.Errorf("failed to rename note %s: %w", tempID, err)
		}
		if err := s.queue.RetargetNote(ctx, tempID, canonicalID); err != nil {
			return fmt.Errorf("failed to retarget queue entries: %w", err)
		}
		if s.publisher != nil {
			s.publisher.RetargetRoom(tempID, canonicalID)
		}

		s.mu.Lock()
		if ev, ok := s.buffered[tempID]; ok {
			delete(s.buffered, tempID)
			ev.NoteID = canonicalID
			s.buffered[canonicalID] = ev
		}
		s.mu.Unlock()
	}

	// Entries queued while the create was in flight carry base version 0;
	// the note now exists at the server's version.
	if err := s.queue.RebaseNote(ctx, canonicalID, serverNote.Version); err != nil {
		return fmt.Errorf("failed to rebase queued entries: %w", err)
	}
	if err := s.queue.MarkCompleted(ctx, m.ID); err != nil {
		return fmt.Errorf("failed to complete mutation: %w", err)
	}
	if err := s.saveServerCopy(ctx, serverNote); err != nil {
		return err
	}

	s.logger.Info("note created on server",
		"temp_id", tempID,
		"note_id", canonicalID,
		"version", serverNote.Version,
	)
	s.flushBuffered(ctx, canonicalID)
	return nil
}

func (s *service) adoptUpdatedNote(ctx context.Context, m *models.Mutation, serverNote *api.Note) error {
	if err := s.queue.MarkCompleted(ctx, m.ID); err != nil {
		return fmt.Errorf("failed to complete mutation: %w", err)
	}
	if err := s.saveServerCopy(ctx, serverNote); err != nil {
		return err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishUpdate(m.NoteID, m.Changes, serverNote.Version); err != nil {
			s.logger.Debug("realtime publish skipped", "note_id", m.NoteID, "error", err)
		}
	}

	s.logger.Info("note updated on server", "note_id", m.NoteID, "version", serverNote.Version)
	s.flushBuffered(ctx, m.NoteID)
	return nil
}

func (s *service) finishDelete(ctx context.Context, m *models.Mutation) error {
	if err := s.queue.MarkCompleted(ctx, m.ID); err != nil {
		return fmt.Errorf("failed to complete mutation: %w", err)
	}
	err := s.notes.DeleteNote(ctx, m.NoteID)
	if err != nil && !errors.Is(err, storage.ErrNoteNotFound) {
		return fmt.Errorf("failed to delete note %s: %w", m.NoteID, err)
	}

	s.mu.Lock()
	delete(s.buffered, m.NoteID)
	s.mu.Unlock()

	if s.publisher != nil {
		deleted := true
		changes := models.NoteChanges{Deleted: &deleted}
		if err := s.publisher.PublishUpdate(m.NoteID, changes, m.BaseVersion); err != nil {
			s.logger.Debug("realtime publish skipped", "note_id", m.NoteID, "error", err)
		}
	}

	s.logger.Info("note deleted on server", "note_id", m.NoteID)
	return nil
}

// saveServerCopy writes the server-confirmed note into the store, with
// any still-queued local edits re-applied on top so the user never sees
// their own typing roll back.
func (s *service) saveServerCopy(ctx context.Context, serverNote *api.Note) error {
	pend, err := s.queue.PendingWork(ctx, serverNote.ID)
	if err != nil {
		return fmt.Errorf("failed to summarize pending work: %w", err)
	}
	if pend.HasDelete {
		// The record is locally gone and a delete entry will follow.
		return nil
	}

	local := &models.LocalNote{
		Note:       noteFromAPI(serverNote),
		SyncStatus: models.SyncStatusSynced,
	}
	if pend.HasEntries {
		pend.Changes.ApplyTo(&local.Note)
		local.SyncStatus = models.SyncStatusPending
		local.PendingMutationID = pend.OldestID
	}

	if err := s.notes.SaveNote(ctx, local); err != nil {
		return fmt.Errorf("failed to save note %s: %w", serverNote.ID, err)
	}
	return nil
}

func (s *service) retainConflict(ctx context.Context, m *models.Mutation, current *api.Note, serverDeleted bool) error {
	reason := "version conflict"
	if serverDeleted {
		reason = "note deleted on server"
	}
	if err := s.queue.MarkFailed(ctx, m.ID, reason); err != nil {
		return fmt.Errorf("failed to retain mutation: %w", err)
	}

	s.mu.Lock()
	err := s.retainConflictLocked(ctx, m, current, serverDeleted)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	// A broadcast buffered during the flush may carry an even newer
	// server state; fold it into the conflict.
	s.flushBuffered(ctx, m.NoteID)
	return nil
}

func (s *service) retainConflictLocked(ctx context.Context, m *models.Mutation, current *api.Note, serverDeleted bool) error {
	local, err := s.notes.GetNote(ctx, m.NoteID)
	if err != nil {
		if errors.Is(err, storage.ErrNoteNotFound) {
			s.logger.Warn("conflicted note missing locally, discarding its queue entries", "note_id", m.NoteID)
			return s.queue.DiscardNote(ctx, m.NoteID)
		}
		return fmt.Errorf("failed to load note %s: %w", m.NoteID, err)
	}

	// MarkFailed folded later queued entries into the retained one; the
	// summary is the complete local side of the conflict.
	pend, err := s.queue.PendingWork(ctx, m.NoteID)
	if err != nil {
		return fmt.Errorf("failed to summarize pending work: %w", err)
	}

	info := &models.ConflictInfo{
		DetectedAt:    time.Now(),
		LocalChanges:  pend.Changes,
		BaseVersion:   m.BaseVersion,
		ServerDeleted: serverDeleted,
	}
	if current != nil {
		info.ServerNote = noteFromAPI(current)
	} else {
		info.ServerNote = local.Note
	}

	updated := local.Clone()
	updated.SyncStatus = models.SyncStatusConflict
	updated.Conflict = info
	updated.PendingMutationID = m.ID
	if err := s.notes.SaveNote(ctx, updated); err != nil {
		return fmt.Errorf("failed to save conflicted note %s: %w", m.NoteID, err)
	}

	s.logger.Warn("mutation conflicted, awaiting resolution",
		"note_id", m.NoteID,
		"mutation_id", m.ID,
		"server_deleted", serverDeleted,
	)
	return nil
}

// discardRejected drops a mutation the server called invalid. It is never
// retried; the record carries the rejection detail.
func (s *service) discardRejected(ctx context.Context, m *models.Mutation, message string) error {
	if err := s.queue.MarkCompleted(ctx, m.ID); err != nil {
		return fmt.Errorf("failed to drop rejected mutation: %w", err)
	}

	local, err := s.notes.GetNote(ctx, m.NoteID)
	if err != nil {
		if errors.Is(err, storage.ErrNoteNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load note %s: %w", m.NoteID, err)
	}

	updated := local.Clone()
	updated.SyncStatus = models.SyncStatusError
	updated.SyncError = message
	updated.PendingMutationID = ""
	if err := s.notes.SaveNote(ctx, updated); err != nil {
		return fmt.Errorf("failed to save note %s: %w", m.NoteID, err)
	}

	s.logger.Warn("mutation rejected as invalid",
		"note_id", m.NoteID,
		"mutation_id", m.ID,
		"reason", message,
	)
	s.flushBuffered(ctx, m.NoteID)
	return nil
}

func (s *service) ApplyRemoteUpdate(ctx context.Context, ev RemoteUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyRemoteLocked(ctx, ev)
}

func (s *service) applyRemoteLocked(ctx context.Context, ev RemoteUpdate) error {
	local, err := s.notes.GetNote(ctx, ev.NoteID)
	switch {
	case errors.Is(err, storage.ErrNoteNotFound):
		local = nil
	case err != nil:
		return fmt.Errorf("failed to load note %s: %w", ev.NoteID, err)
	}

	deleted := ev.Changes.Deleted != nil && *ev.Changes.Deleted

	switch {
	case local == nil:
		if deleted {
			return nil
		}
		// First sight of this note (a shared room we never pulled); the
		// patch alone cannot materialize it.
		return s.adoptUnknownLocked(ctx, ev.NoteID)

	case local.SyncStatus == models.SyncStatusConflict:
		return s.mergeIntoConflictLocked(ctx, local, ev)

	default:
		pending, err := s.queue.HasPending(ctx, ev.NoteID)
		if err != nil {
			return fmt.Errorf("failed to check pending work: %w", err)
		}
		if pending {
			// Latest event per note wins; it replays once the local
			// mutation settles. A reconnect fetch racing a broadcast can
			// deliver out of order, so keep the higher version.
			if cur, ok := s.buffered[ev.NoteID]; !ok || ev.Version >= cur.Version {
				s.buffered[ev.NoteID] = ev
			}
			s.logger.Debug("buffered remote update", "note_id", ev.NoteID, "version", ev.Version)
			return nil
		}

		if deleted {
			err := s.notes.DeleteNote(ctx, ev.NoteID)
			if err != nil && !errors.Is(err, storage.ErrNoteNotFound) {
				return fmt.Errorf("failed to delete note %s: %w", ev.NoteID, err)
			}
			return nil
		}

		if ev.Version <= local.Note.Version {
			return nil
		}

		updated := local.Clone()
		ev.Changes.ApplyTo(&updated.Note)
		updated.Note.Version = ev.Version
		if !ev.UpdatedAt.IsZero() {
			updated.Note.UpdatedAt = ev.UpdatedAt
		} else {
			updated.Note.UpdatedAt = time.Now()
		}
		updated.SyncStatus = models.SyncStatusSynced
		updated.PendingMutationID = ""
		if err := s.notes.SaveNote(ctx, updated); err != nil {
			return fmt.Errorf("failed to save note %s: %w", ev.NoteID, err)
		}
		return nil
	}
}

// mergeIntoConflictLocked keeps the server side of a retained conflict
// current, so resolution always works against the freshest copy.
func (s *service) mergeIntoConflictLocked(ctx context.Context, local *models.LocalNote, ev RemoteUpdate) error {
	updated := local.Clone()
	switch {
	case ev.Changes.Deleted != nil && *ev.Changes.Deleted:
		updated.Conflict.ServerDeleted = true
	case ev.Version > updated.Conflict.ServerNote.Version:
		ev.Changes.ApplyTo(&updated.Conflict.ServerNote)
		updated.Conflict.ServerNote.Version = ev.Version
	default:
		return nil
	}

	if err := s.notes.SaveNote(ctx, updated); err != nil {
		return fmt.Errorf("failed to save note %s: %w", ev.NoteID, err)
	}
	return nil
}

func (s *service) adoptUnknownLocked(ctx context.Context, noteID string) error {
	accessToken, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	serverNote, err := s.apiClient.GetNote(ctx, accessToken, noteID)
	if err != nil {
		if errors.Is(err, httpClient.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to fetch note %s: %w", noteID, err)
	}

	local := &models.LocalNote{
		Note:       noteFromAPI(serverNote),
		SyncStatus: models.SyncStatusSynced,
	}
	if err := s.notes.SaveNote(ctx, local); err != nil {
		return fmt.Errorf("failed to save note %s: %w", noteID, err)
	}
	return nil
}

// flushBuffered replays the note's buffered broadcast after its local
// mutation reached a terminal state.
func (s *service) flushBuffered(ctx context.Context, noteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.buffered[noteID]
	if !ok {
		return
	}
	delete(s.buffered, noteID)

	if err := s.applyRemoteLocked(ctx, ev); err != nil {
		s.logger.Warn("failed to replay buffered update", "note_id", noteID, "error", err)
	}
}

func (s *service) FetchAndReconcile(ctx context.Context, noteIDs []string) error {
	accessToken, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	for _, noteID := range noteIDs {
		serverNote, err := s.apiClient.GetNote(ctx, accessToken, noteID)
		switch {
		case errors.Is(err, httpClient.ErrNotFound):
			deleted := true
			ev := RemoteUpdate{
				NoteID:  noteID,
				Changes: models.NoteChanges{Deleted: &deleted},
			}
			if err := s.ApplyRemoteUpdate(ctx, ev); err != nil {
				return err
			}
		case err != nil:
			return fmt.Errorf("failed to fetch note %s: %w", noteID, err)
		default:
			if err := s.applyServerNote(ctx, serverNote); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *service) Bootstrap(ctx context.Context) (int, error) {
	since, err := s.metadata.GetLastPullTimestamp(ctx)
	if err != nil {
		s.logger.Warn("failed to read pull watermark, pulling everything", "error", err)
		since = 0
	}

	accessToken, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get access token: %w", err)
	}

	resp, err := s.apiClient.ListNotes(ctx, accessToken, since)
	if err != nil {
		return 0, fmt.Errorf("failed to list notes: %w", err)
	}

	for _, serverNote := range resp.Notes {
		if err := s.applyServerNote(ctx, &serverNote); err != nil {
			return 0, err
		}
	}

	if err := s.metadata.SaveLastPullTimestamp(ctx, resp.ServerTime); err != nil {
		s.logger.Warn("failed to save pull watermark", "error", err)
	}

	s.logger.Info("bootstrap pull completed", "since", since, "pulled", len(resp.Notes))
	return len(resp.Notes), nil
}

// applyServerNote routes a full server copy through the same rules as a
// broadcast patch, so pending and conflicted notes stay protected. Notes
// never seen before are stored as-is; unlike a patch, the full copy
// needs no refetch to materialize.
func (s *service) applyServerNote(ctx context.Context, serverNote *api.Note) error {
	n := noteFromAPI(serverNote)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.notes.GetNote(ctx, n.ID)
	if errors.Is(err, storage.ErrNoteNotFound) {
		local := &models.LocalNote{Note: n, SyncStatus: models.SyncStatusSynced}
		if err := s.notes.SaveNote(ctx, local); err != nil {
			return fmt.Errorf("failed to save note %s: %w", n.ID, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load note %s: %w", n.ID, err)
	}

	return s.applyRemoteLocked(ctx, RemoteUpdate{
		NoteID:    n.ID,
		Changes:   models.ChangesFromNote(&n),
		Version:   n.Version,
		UpdatedAt: n.UpdatedAt,
	})
}

func (s *service) ResolveKeepLocal(ctx context.Context, noteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	local, err := s.notes.GetNote(ctx, noteID)
	if err != nil {
		return fmt.Errorf("failed to load note %s: %w", noteID, err)
	}
	if local.SyncStatus != models.SyncStatusConflict || local.Conflict == nil {
		return ErrNoConflict
	}

	updated := local.Clone()
	if local.Conflict.ServerDeleted {
		// The server copy is gone: keeping ours means creating the note
		// again, under a fresh identity the next flush will assign.
		if err := s.queue.DiscardNote(ctx, noteID); err != nil {
			return fmt.Errorf("failed to discard queue entries: %w", err)
		}

		m, err := s.queue.Enqueue(ctx, queue.Op{
			Kind:    models.MutationKindCreate,
			NoteID:  noteID,
			Changes: models.ChangesFromNote(&local.Note),
		})
		if err != nil {
			return fmt.Errorf("failed to enqueue re-create: %w", err)
		}
		updated.Note.Version = 0
		updated.PendingMutationID = m.ID
	} else {
		// Re-base the retained entry onto the version that beat it and
		// let it race again.
		if err := s.queue.RebaseNote(ctx, noteID, local.Conflict.ServerNote.Version); err != nil {
			return fmt.Errorf("failed to rebase queue entries: %w", err)
		}
		updated.Note.Version = local.Conflict.ServerNote.Version
	}

	updated.SyncStatus = models.SyncStatusPending
	updated.Conflict = nil
	if err := s.notes.SaveNote(ctx, updated); err != nil {
		return fmt.Errorf("failed to save note %s: %w", noteID, err)
	}

	s.logger.Info("conflict resolved keeping local changes", "note_id", noteID)
	s.Trigger()
	return nil
}

func (s *service) ResolveAcceptServer(ctx context.Context, noteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	local, err := s.notes.GetNote(ctx, noteID)
	if err != nil {
		return fmt.Errorf("failed to load note %s: %w", noteID, err)
	}
	if local.SyncStatus != models.SyncStatusConflict || local.Conflict == nil {
		return ErrNoConflict
	}

	if err := s.queue.DiscardNote(ctx, noteID); err != nil {
		return fmt.Errorf("failed to discard queue entries: %w", err)
	}

	if local.Conflict.ServerDeleted {
		err := s.notes.DeleteNote(ctx, noteID)
		if err != nil && !errors.Is(err, storage.ErrNoteNotFound) {
			return fmt.Errorf("failed to delete note %s: %w", noteID, err)
		}
	} else {
		updated := local.Clone()
		updated.Note = local.Conflict.ServerNote
		updated.SyncStatus = models.SyncStatusSynced
		updated.Conflict = nil
		updated.PendingMutationID = ""
		if err := s.notes.SaveNote(ctx, updated); err != nil {
			return fmt.Errorf("failed to save note %s: %w", noteID, err)
		}
	}

	s.logger.Info("conflict resolved accepting server state", "note_id", noteID)
	return nil
}

func noteFromAPI(n *api.Note) models.Note {
	return models.Note{
		ID:        n.ID,
		OwnerID:   n.OwnerID,
		Title:     n.Title,
		Body:      n.Body,
		Version:   n.Version,
		Trashed:   n.Trashed,
		Archived:  n.Archived,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func changesToAPI(c models.NoteChanges) api.NoteChanges {
	return api.NoteChanges{
		Title:    c.Title,
		Body:     c.Body,
		Trashed:  c.Trashed,
		Archived: c.Archived,
		Deleted:  c.Deleted,
	}
}
