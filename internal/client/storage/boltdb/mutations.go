package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/scriba-app/scriba/internal/client/storage"
	"github.com/scriba-app/scriba/internal/models"
)

// seqKey encodes a queue sequence number as a big-endian key so cursor
// order matches enqueue order.
func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// AppendMutation stores a new queue entry, assigning its sequence number
// from the bucket sequence.
func (s *Storage) AppendMutation(ctx context.Context, m *models.Mutation) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMutations)
		if bucket == nil {
			return fmt.Errorf("mutations bucket not found")
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get next sequence: %w", err)
		}
		m.Seq = seq

		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal mutation: %w", err)
		}
		if err := bucket.Put(seqKey(seq), data); err != nil {
			return fmt.Errorf("failed to save mutation: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("append mutation transaction failed: %w", err)
	}

	return nil
}

// SaveMutation replaces an existing queue entry, keeping its position.
func (s *Storage) SaveMutation(ctx context.Context, m *models.Mutation) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMutations)
		if bucket == nil {
			return fmt.Errorf("mutations bucket not found")
		}

		key, _, err := findMutation(bucket, m.ID)
		if err != nil {
			return err
		}

		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal mutation: %w", err)
		}
		if err := bucket.Put(key, data); err != nil {
			return fmt.Errorf("failed to save mutation: %w", err)
		}

		return nil
	})
}

// GetMutation retrieves a queue entry by mutation ID
func (s *Storage) GetMutation(ctx context.Context, id string) (*models.Mutation, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var m *models.Mutation

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMutations)
		if bucket == nil {
			return fmt.Errorf("mutations bucket not found")
		}

		_, found, err := findMutation(bucket, id)
		if err != nil {
			return err
		}
		m = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

// DeleteMutation removes a queue entry by mutation ID
func (s *Storage) DeleteMutation(ctx context.Context, id string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMutations)
		if bucket == nil {
			return fmt.Errorf("mutations bucket not found")
		}

		key, _, err := findMutation(bucket, id)
		if err != nil {
			return err
		}
		if err := bucket.Delete(key); err != nil {
			return fmt.Errorf("failed to delete mutation: %w", err)
		}

		return nil
	})
}

// MutationsForNote returns the note's queue entries in enqueue order.
func (s *Storage) MutationsForNote(ctx context.Context, noteID string) ([]*models.Mutation, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var result []*models.Mutation

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMutations)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var m models.Mutation
			if err := json.Unmarshal(v, &m); err != nil {
				return fmt.Errorf("failed to unmarshal mutation: %w", err)
			}
			if m.NoteID == noteID {
				result = append(result, &m)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list mutations for note: %w", err)
	}

	return result, nil
}

// NotesWithMutations returns distinct note IDs with queued work, ordered
// by each note's oldest entry.
func (s *Storage) NotesWithMutations(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var (
		ids  []string
		seen = make(map[string]struct{})
	)

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMutations)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var m models.Mutation
			if err := json.Unmarshal(v, &m); err != nil {
				return fmt.Errorf("failed to unmarshal mutation: %w", err)
			}
			if _, ok := seen[m.NoteID]; !ok {
				seen[m.NoteID] = struct{}{}
				ids = append(ids, m.NoteID)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notes with mutations: %w", err)
	}

	return ids, nil
}

// RetargetNote rewrites the note ID on every queue entry for oldID.
func (s *Storage) RetargetNote(ctx context.Context, oldID, newID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMutations)
		if bucket == nil {
			return fmt.Errorf("mutations bucket not found")
		}

		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var m models.Mutation
			if err := json.Unmarshal(v, &m); err != nil {
				return fmt.Errorf("failed to unmarshal mutation: %w", err)
			}
			if m.NoteID != oldID {
				continue
			}

			m.NoteID = newID
			data, err := json.Marshal(&m)
			if err != nil {
				return fmt.Errorf("failed to marshal mutation: %w", err)
			}
			if err := bucket.Put(k, data); err != nil {
				return fmt.Errorf("failed to save retargeted mutation: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("retarget transaction failed: %w", err)
	}

	return nil
}

// ResetInFlight returns every in-flight entry to queued state and reports
// how many were reset. Called on open after an unclean shutdown.
func (s *Storage) ResetInFlight(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var count int

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMutations)
		if bucket == nil {
			return fmt.Errorf("mutations bucket not found")
		}

		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var m models.Mutation
			if err := json.Unmarshal(v, &m); err != nil {
				return fmt.Errorf("failed to unmarshal mutation: %w", err)
			}
			if m.State != models.MutationStateInFlight {
				continue
			}

			m.State = models.MutationStateQueued
			data, err := json.Marshal(&m)
			if err != nil {
				return fmt.Errorf("failed to marshal mutation: %w", err)
			}
			if err := bucket.Put(k, data); err != nil {
				return fmt.Errorf("failed to save reset mutation: %w", err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reset in-flight transaction failed: %w", err)
	}

	return count, nil
}

// CountMutations returns the number of persisted queue entries.
func (s *Storage) CountMutations(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var count int

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMutations)
		if bucket == nil {
			return nil
		}
		count = bucket.Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count mutations: %w", err)
	}

	return count, nil
}

// ClearMutations removes every queue entry.
func (s *Storage) ClearMutations(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketMutations); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return fmt.Errorf("failed to delete mutations bucket: %w", err)
		}
		if _, err := tx.CreateBucket(bucketMutations); err != nil {
			return fmt.Errorf("failed to create mutations bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear mutations transaction failed: %w", err)
	}

	return nil
}

// findMutation scans the bucket for the entry with the given mutation ID.
// Queue depth is small so a linear scan is fine.
func findMutation(bucket *bbolt.Bucket, id string) ([]byte, *models.Mutation, error) {
	c := bucket.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var m models.Mutation
		if err := json.Unmarshal(v, &m); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal mutation: %w", err)
		}
		if m.ID == id {
			key := make([]byte, len(k))
			copy(key, k)
			return key, &m, nil
		}
	}
	return nil, nil, storage.ErrMutationNotFound
}
