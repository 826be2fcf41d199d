package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/scriba-app/scriba/internal/models"
	"github.com/scriba-app/scriba/internal/server/storage"
	"github.com/scriba-app/scriba/internal/validation"
	"github.com/scriba-app/scriba/pkg/api"
)

// NotesHandler handles the note CRUD and change-feed endpoints
type NotesHandler struct {
	logger  *slog.Logger
	storage storage.NoteStorage
}

// NewNotesHandler creates a new notes handler
func NewNotesHandler(logger *slog.Logger, storage storage.NoteStorage) *NotesHandler {
	return &NotesHandler{
		logger:  logger,
		storage: storage,
	}
}

// Create handles POST /api/v1/notes
// Replaying the same client_ref returns the already created note with
// 200 instead of a duplicate, so clients can retry blindly.
func (h *NotesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode create note request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.ClientRef == "" {
		h.sendError(w, "client_ref is required", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateNoteTitle(req.Title); err != nil {
		h.sendError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err := validation.ValidateNoteBody(req.Body); err != nil {
		h.sendError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	note := &models.Note{
		ID:       uuid.New().String(),
		OwnerID:  userID,
		Title:    req.Title,
		Body:     req.Body,
		Trashed:  req.Trashed,
		Archived: req.Archived,
	}

	created, isNew, err := h.storage.CreateNote(ctx, note, req.ClientRef)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create note", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	status := http.StatusCreated
	if !isNew {
		status = http.StatusOK
		h.logger.InfoContext(ctx, "create replay resolved to existing note",
			slog.String("note_id", created.ID),
			slog.String("client_ref", req.ClientRef))
	} else {
		h.logger.InfoContext(ctx, "note created",
			slog.String("note_id", created.ID),
			slog.String("user_id", userID))
	}

	h.sendJSON(w, noteToAPI(created), status)
}

// List handles GET /api/v1/notes?since=<unixnano>
// since=0 (or absent) returns the full set; otherwise only notes
// changed after the watermark, oldest first.
func (h *NotesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.sendError(w, "invalid since parameter", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	// Captured before the read: a write racing the read then lands both
	// in this response and in the next incremental one, and re-applying
	// it is harmless. Capturing after could lose it forever.
	serverTime := time.Now().UnixNano()

	notes, err := h.storage.ListNotesSince(ctx, userID, since)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list notes", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.ListNotesResponse{
		Notes:      make([]api.Note, 0, len(notes)),
		ServerTime: serverTime,
	}
	for _, note := range notes {
		resp.Notes = append(resp.Notes, noteToAPI(note))
	}

	h.logger.InfoContext(ctx, "notes listed",
		slog.String("user_id", userID),
		slog.Int64("since", since),
		slog.Int("count", len(resp.Notes)))

	h.sendJSON(w, resp, http.StatusOK)
}

// Get handles GET /api/v1/notes/{id}
func (h *NotesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	noteID := r.PathValue("id")
	if noteID == "" {
		h.sendError(w, "note ID is required", http.StatusBadRequest)
		return
	}

	note, err := h.storage.GetNote(ctx, userID, noteID)
	if err != nil {
		if errors.Is(err, storage.ErrNoteNotFound) {
			h.sendError(w, "note not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get note", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, noteToAPI(note), http.StatusOK)
}

// Update handles PATCH /api/v1/notes/{id}
// The patch carries the base version the client edited against. A stale
// base version yields 409 with the current server state so the client
// can raise a conflict instead of silently overwriting someone's edit.
func (h *NotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	noteID := r.PathValue("id")
	if noteID == "" {
		h.sendError(w, "note ID is required", http.StatusBadRequest)
		return
	}

	var req api.UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode update note request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.MutationID == "" {
		h.sendError(w, "mutation_id is required", http.StatusBadRequest)
		return
	}

	if req.Changes.Title != nil {
		if err := validation.ValidateNoteTitle(*req.Changes.Title); err != nil {
			h.sendError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
	}
	if req.Changes.Body != nil {
		if err := validation.ValidateNoteBody(*req.Changes.Body); err != nil {
			h.sendError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
	}

	changes := changesFromAPI(req.Changes)

	updated, applied, err := h.storage.UpdateNote(ctx, userID, noteID, req.MutationID, req.BaseVersion, changes)
	if err != nil {
		if errors.Is(err, storage.ErrNoteNotFound) {
			h.sendError(w, "note not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, storage.ErrVersionMismatch) {
			h.logger.InfoContext(ctx, "version conflict",
				slog.String("note_id", noteID),
				slog.Int64("base_version", req.BaseVersion),
				slog.Int64("current_version", updated.Version))
			h.sendJSON(w, api.ConflictResponse{
				Error:       "version_conflict",
				Message:     "note was changed since the base version",
				CurrentNote: noteToAPI(updated),
			}, http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to update note", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if !applied {
		h.logger.InfoContext(ctx, "mutation replay resolved to current state",
			slog.String("note_id", noteID),
			slog.String("mutation_id", req.MutationID))
	} else {
		h.logger.InfoContext(ctx, "note updated",
			slog.String("note_id", noteID),
			slog.Int64("version", updated.Version))
	}

	h.sendJSON(w, noteToAPI(updated), http.StatusOK)
}

// Delete handles DELETE /api/v1/notes/{id}
// Deleting a note that is already gone is a success: the client retries
// deletes like any other mutation.
func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	noteID := r.PathValue("id")
	if noteID == "" {
		h.sendError(w, "note ID is required", http.StatusBadRequest)
		return
	}

	if err := h.storage.DeleteNote(ctx, userID, noteID); err != nil {
		if !errors.Is(err, storage.ErrNoteNotFound) {
			h.logger.ErrorContext(ctx, "failed to delete note", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
			return
		}
	} else {
		h.logger.InfoContext(ctx, "note deleted",
			slog.String("note_id", noteID),
			slog.String("user_id", userID))
	}

	w.WriteHeader(http.StatusNoContent)
}

func noteToAPI(n *models.Note) api.Note {
	return api.Note{
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

// changesFromAPI drops the Deleted flag: it only exists for realtime
// broadcasts, the REST surface deletes with the DELETE verb.
func changesFromAPI(c api.NoteChanges) models.NoteChanges {
	return models.NoteChanges{
		Title:    c.Title,
		Body:     c.Body,
		Trashed:  c.Trashed,
		Archived: c.Archived,
	}
}

// sendJSON writes a JSON response
func (h *NotesHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError writes a JSON error response
func (h *NotesHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	h.sendJSON(w, resp, statusCode)
}
