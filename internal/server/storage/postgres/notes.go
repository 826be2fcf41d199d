package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/scriba-app/scriba/internal/models"
	"github.com/scriba-app/scriba/internal/server/storage"
)

const noteColumns = `id, owner_id, title, body, version, trashed, archived, last_mutation_id, created_at, updated_at`

// CreateNote inserts the note with version 1, or returns the note
// previously created with the same client ref (idempotent replay).
func (s *Storage) CreateNote(ctx context.Context, note *models.Note, clientRef string) (*models.Note, bool, error) {
	query := `
		INSERT INTO notes (
			id, owner_id, title, body, version, trashed, archived,
			client_ref, last_mutation_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (owner_id, client_ref) DO NOTHING
	`

	stored := note.Clone()
	stored.Version = 1
	now := time.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	result, err := s.db.ExecContext(ctx, query,
		stored.ID,
		stored.OwnerID,
		stored.Title,
		stored.Body,
		stored.Version,
		stored.Trashed,
		stored.Archived,
		clientRef,
		"",
		stored.CreatedAt.UnixNano(),
		stored.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert note: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	// Conflict on the client ref: a retry of a create the server
	// already applied. Hand back the original.
	if rows == 0 {
		existing, _, err := s.getNoteByClientRef(ctx, note.OwnerID, clientRef)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	return stored, true, nil
}

// GetNote retrieves one note scoped to its owner
func (s *Storage) GetNote(ctx context.Context, ownerID, noteID string) (*models.Note, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE id = $1 AND owner_id = $2
	`

	note, _, err := scanNote(s.db.QueryRowContext(ctx, query, noteID, ownerID))
	return note, err
}

// ListNotesSince returns the owner's notes updated strictly after since
// (unix nanoseconds), oldest change first
func (s *Storage) ListNotesSince(ctx context.Context, ownerID string, since int64) ([]*models.Note, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE owner_id = $1 AND updated_at > $2
		ORDER BY updated_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var notes []*models.Note

	for rows.Next() {
		note, _, err := scanNoteRow(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return notes, nil
}

// UpdateNote applies a compare-and-swap patch. See storage.NoteStorage
// for the outcome contract.
func (s *Storage) UpdateNote(ctx context.Context, ownerID, noteID, mutationID string, baseVersion int64, changes models.NoteChanges) (*models.Note, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE id = $1 AND owner_id = $2
	`

	current, lastMutationID, err := scanNote(tx.QueryRowContext(ctx, query, noteID, ownerID))
	if err != nil {
		return nil, false, err
	}

	// A mutation the server already applied: the client is replaying
	// after a crash. Success, nothing to redo.
	if mutationID != "" && lastMutationID == mutationID {
		return current, false, nil
	}

	if current.Version != baseVersion {
		return current, false, storage.ErrVersionMismatch
	}

	updated := current.Clone()
	changes.ApplyTo(updated)
	updated.Version = current.Version + 1
	updated.UpdatedAt = time.Now()

	update := `
		UPDATE notes
		SET title = $1, body = $2, trashed = $3, archived = $4,
		    version = $5, last_mutation_id = $6, updated_at = $7
		WHERE id = $8 AND owner_id = $9 AND version = $10
	`

	result, err := tx.ExecContext(ctx, update,
		updated.Title,
		updated.Body,
		updated.Trashed,
		updated.Archived,
		updated.Version,
		mutationID,
		updated.UpdatedAt.UnixNano(),
		noteID,
		ownerID,
		current.Version,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to update note: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	// Another connection advanced the version between our read and
	// write. Re-read so the caller sees the state that beat it.
	if rows == 0 {
		current, lastMutationID, err = scanNote(tx.QueryRowContext(ctx, query, noteID, ownerID))
		if err != nil {
			return nil, false, err
		}
		if mutationID != "" && lastMutationID == mutationID {
			return current, false, nil
		}
		return current, false, storage.ErrVersionMismatch
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit: %w", err)
	}

	return updated, true, nil
}

// DeleteNote removes the note
func (s *Storage) DeleteNote(ctx context.Context, ownerID, noteID string) error {
	query := `DELETE FROM notes WHERE id = $1 AND owner_id = $2`

	result, err := s.db.ExecContext(ctx, query, noteID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrNoteNotFound
	}

	return nil
}

func (s *Storage) getNoteByClientRef(ctx context.Context, ownerID, clientRef string) (*models.Note, string, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE owner_id = $1 AND client_ref = $2
	`

	return scanNote(s.db.QueryRowContext(ctx, query, ownerID, clientRef))
}

// scanTarget abstracts *sql.Row and *sql.Rows
type scanTarget interface {
	Scan(dest ...any) error
}

func scanNote(row *sql.Row) (*models.Note, string, error) {
	note, lastMutationID, err := scanNoteFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", storage.ErrNoteNotFound
		}
		return nil, "", fmt.Errorf("failed to get note: %w", err)
	}
	return note, lastMutationID, nil
}

func scanNoteRow(rows *sql.Rows) (*models.Note, string, error) {
	note, lastMutationID, err := scanNoteFrom(rows)
	if err != nil {
		return nil, "", fmt.Errorf("failed to scan note: %w", err)
	}
	return note, lastMutationID, nil
}

func scanNoteFrom(row scanTarget) (*models.Note, string, error) {
	note := &models.Note{}
	var lastMutationID string
	var createdAt, updatedAt int64

	err := row.Scan(
		&note.ID,
		&note.OwnerID,
		&note.Title,
		&note.Body,
		&note.Version,
		&note.Trashed,
		&note.Archived,
		&lastMutationID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, "", err
	}

	note.CreatedAt = time.Unix(0, createdAt)
	note.UpdatedAt = time.Unix(0, updatedAt)

	return note, lastMutationID, nil
}
