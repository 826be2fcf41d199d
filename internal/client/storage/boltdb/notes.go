package boltdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"math"
	"sort"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/scriba-app/scriba/internal/client/storage"
	"github.com/scriba-app/scriba/internal/models"
)

// errStopIteration breaks out of a cursor scan when the consumer stops early.
var errStopIteration = errors.New("stop iteration")

// ownerIndexKey builds "ownerID|invertedUpdatedAt|noteID". The timestamp is
// inverted so a forward scan over the owner's prefix yields newest-first.
func ownerIndexKey(ownerID string, updatedAt time.Time, noteID string) []byte {
	inverted := math.MaxInt64 - updatedAt.UnixNano()
	return []byte(fmt.Sprintf("%s|%020d|%s", ownerID, inverted, noteID))
}

// statusIndexKey builds "status|noteID".
func statusIndexKey(status models.SyncStatus, noteID string) []byte {
	return []byte(fmt.Sprintf("%s|%s", status, noteID))
}

// putNote writes the note record and both index entries, removing stale
// index entries left by the previous revision.
func putNote(tx *bbolt.Tx, note *models.LocalNote) error {
	notes := tx.Bucket(bucketNotes)
	if notes == nil {
		return fmt.Errorf("notes bucket not found")
	}

	if old := notes.Get([]byte(note.Note.ID)); old != nil {
		var prev models.LocalNote
		if err := json.Unmarshal(old, &prev); err != nil {
			return fmt.Errorf("failed to unmarshal previous note: %w", err)
		}
		if err := deleteIndexEntries(tx, &prev); err != nil {
			return err
		}
	}

	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal note: %w", err)
	}
	if err := notes.Put([]byte(note.Note.ID), data); err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}

	ownerIdx := tx.Bucket(bucketNotesOwner)
	if ownerIdx == nil {
		return fmt.Errorf("owner index bucket not found")
	}
	if err := ownerIdx.Put(ownerIndexKey(note.Note.OwnerID, note.Note.UpdatedAt, note.Note.ID), []byte(note.Note.ID)); err != nil {
		return fmt.Errorf("failed to save owner index entry: %w", err)
	}

	statusIdx := tx.Bucket(bucketNotesStatus)
	if statusIdx == nil {
		return fmt.Errorf("status index bucket not found")
	}
	if err := statusIdx.Put(statusIndexKey(note.SyncStatus, note.Note.ID), []byte(note.Note.ID)); err != nil {
		return fmt.Errorf("failed to save status index entry: %w", err)
	}

	return nil
}

// deleteIndexEntries removes the index entries belonging to the stored note.
func deleteIndexEntries(tx *bbolt.Tx, note *models.LocalNote) error {
	ownerIdx := tx.Bucket(bucketNotesOwner)
	if ownerIdx == nil {
		return fmt.Errorf("owner index bucket not found")
	}
	if err := ownerIdx.Delete(ownerIndexKey(note.Note.OwnerID, note.Note.UpdatedAt, note.Note.ID)); err != nil {
		return fmt.Errorf("failed to delete owner index entry: %w", err)
	}

	statusIdx := tx.Bucket(bucketNotesStatus)
	if statusIdx == nil {
		return fmt.Errorf("status index bucket not found")
	}
	if err := statusIdx.Delete(statusIndexKey(note.SyncStatus, note.Note.ID)); err != nil {
		return fmt.Errorf("failed to delete status index entry: %w", err)
	}

	return nil
}

// SaveNote stores or replaces a note and updates its index entries.
// Subscribers receive a saved event after the transaction commits.
func (s *Storage) SaveNote(ctx context.Context, note *models.LocalNote) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return putNote(tx, note)
	})
	if err != nil {
		return fmt.Errorf("save note transaction failed: %w", err)
	}

	s.publish(storage.NoteEvent{
		Kind:   storage.NoteEventSaved,
		NoteID: note.Note.ID,
		Note:   note.Clone(),
	})

	return nil
}

// GetNote retrieves a note by ID
func (s *Storage) GetNote(ctx context.Context, id string) (*models.LocalNote, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var note *models.LocalNote

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketNotes)
		if bucket == nil {
			return fmt.Errorf("notes bucket not found")
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			return storage.ErrNoteNotFound
		}

		note = &models.LocalNote{}
		if err := json.Unmarshal(data, note); err != nil {
			return fmt.Errorf("failed to unmarshal note: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return note, nil
}

// DeleteNote removes a note and its index entries.
// Subscribers receive a deleted event after the transaction commits.
func (s *Storage) DeleteNote(ctx context.Context, id string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketNotes)
		if bucket == nil {
			return fmt.Errorf("notes bucket not found")
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			return storage.ErrNoteNotFound
		}

		var note models.LocalNote
		if err := json.Unmarshal(data, &note); err != nil {
			return fmt.Errorf("failed to unmarshal note: %w", err)
		}

		if err := deleteIndexEntries(tx, &note); err != nil {
			return err
		}
		if err := bucket.Delete([]byte(id)); err != nil {
			return fmt.Errorf("failed to delete note: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.publish(storage.NoteEvent{
		Kind:   storage.NoteEventDeleted,
		NoteID: id,
	})

	return nil
}

// RenameNote re-keys a note from oldID to newID in one transaction. Used
// when the server replaces a temporary ID with a canonical one.
// Subscribers receive a renamed event carrying both IDs.
func (s *Storage) RenameNote(ctx context.Context, oldID, newID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	var renamed *models.LocalNote

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketNotes)
		if bucket == nil {
			return fmt.Errorf("notes bucket not found")
		}

		data := bucket.Get([]byte(oldID))
		if data == nil {
			return storage.ErrNoteNotFound
		}

		var note models.LocalNote
		if err := json.Unmarshal(data, &note); err != nil {
			return fmt.Errorf("failed to unmarshal note: %w", err)
		}

		if err := deleteIndexEntries(tx, &note); err != nil {
			return err
		}
		if err := bucket.Delete([]byte(oldID)); err != nil {
			return fmt.Errorf("failed to delete old note key: %w", err)
		}

		note.Note.ID = newID
		if err := putNote(tx, &note); err != nil {
			return err
		}

		renamed = &note
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(storage.NoteEvent{
		Kind:   storage.NoteEventRenamed,
		NoteID: newID,
		OldID:  oldID,
		Note:   renamed.Clone(),
	})

	return nil
}

// ListNotes returns the owner's notes as a lazy sequence. The default order
// is newest-first straight off the owner index; OrderTitleAsc materializes
// the result set before yielding. The sequence is restartable: each range
// over it opens a fresh read transaction.
func (s *Storage) ListNotes(ctx context.Context, ownerID string, opts storage.ListOptions) iter.Seq2[*models.LocalNote, error] {
	return func(yield func(*models.LocalNote, error) bool) {
		if s.db == nil {
			yield(nil, storage.ErrStorageClosed)
			return
		}

		if opts.Order == storage.OrderTitleAsc {
			s.yieldNotesByTitle(ctx, ownerID, opts, yield)
			return
		}

		err := s.db.View(func(tx *bbolt.Tx) error {
			idx := tx.Bucket(bucketNotesOwner)
			notes := tx.Bucket(bucketNotes)
			if idx == nil || notes == nil {
				return nil
			}

			prefix := []byte(ownerID + "|")
			c := idx.Cursor()
			for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}

				data := notes.Get(v)
				if data == nil {
					// Dangling index entry, skip it.
					continue
				}

				var note models.LocalNote
				if err := json.Unmarshal(data, &note); err != nil {
					return fmt.Errorf("failed to unmarshal note: %w", err)
				}
				if opts.Predicate != nil && !opts.Predicate(&note) {
					continue
				}
				if !yield(&note, nil) {
					return errStopIteration
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopIteration) {
			yield(nil, err)
		}
	}
}

// yieldNotesByTitle loads the owner's notes, sorts them by title and yields
// outside the read transaction.
func (s *Storage) yieldNotesByTitle(ctx context.Context, ownerID string, opts storage.ListOptions, yield func(*models.LocalNote, error) bool) {
	var collected []*models.LocalNote

	err := s.db.View(func(tx *bbolt.Tx) error {
		idx := tx.Bucket(bucketNotesOwner)
		notes := tx.Bucket(bucketNotes)
		if idx == nil || notes == nil {
			return nil
		}

		prefix := []byte(ownerID + "|")
		c := idx.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			data := notes.Get(v)
			if data == nil {
				continue
			}

			var note models.LocalNote
			if err := json.Unmarshal(data, &note); err != nil {
				return fmt.Errorf("failed to unmarshal note: %w", err)
			}
			if opts.Predicate != nil && !opts.Predicate(&note) {
				continue
			}
			collected = append(collected, &note)
		}
		return nil
	})
	if err != nil {
		yield(nil, err)
		return
	}

	sort.Slice(collected, func(i, j int) bool {
		ti, tj := strings.ToLower(collected[i].Note.Title), strings.ToLower(collected[j].Note.Title)
		if ti != tj {
			return ti < tj
		}
		return collected[i].Note.ID < collected[j].Note.ID
	})

	for _, note := range collected {
		if !yield(note, nil) {
			return
		}
	}
}

// ListNotesByStatus returns all notes with the given sync status.
func (s *Storage) ListNotesByStatus(ctx context.Context, status models.SyncStatus) ([]*models.LocalNote, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var result []*models.LocalNote

	err := s.db.View(func(tx *bbolt.Tx) error {
		idx := tx.Bucket(bucketNotesStatus)
		notes := tx.Bucket(bucketNotes)
		if idx == nil || notes == nil {
			return nil
		}

		prefix := []byte(string(status) + "|")
		c := idx.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			data := notes.Get(v)
			if data == nil {
				continue
			}

			var note models.LocalNote
			if err := json.Unmarshal(data, &note); err != nil {
				return fmt.Errorf("failed to unmarshal note: %w", err)
			}
			result = append(result, &note)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notes by status: %w", err)
	}

	return result, nil
}

// Clear removes all notes and their index entries.
func (s *Storage) Clear(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketNotes, bucketNotesOwner, bucketNotesStatus} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return fmt.Errorf("failed to delete %s bucket: %w", name, err)
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear transaction failed: %w", err)
	}

	return nil
}
