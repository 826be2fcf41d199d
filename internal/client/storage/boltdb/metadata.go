package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/scriba-app/scriba/internal/client/storage"
)

const (
	keyLastPullTimestamp = "last_pull_timestamp"
)

// SaveLastPullTimestamp saves the server watermark of the last successful pull
func (s *Storage) SaveLastPullTimestamp(ctx context.Context, timestamp int64) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		timestampBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(timestampBytes, uint64(timestamp))

		if err := bucket.Put([]byte(keyLastPullTimestamp), timestampBytes); err != nil {
			return fmt.Errorf("failed to save last pull timestamp: %w", err)
		}

		return nil
	})
}

// GetLastPullTimestamp retrieves the watermark of the last successful pull
// Returns 0 if no pull has been performed yet
func (s *Storage) GetLastPullTimestamp(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var timestamp int64

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		timestampBytes := bucket.Get([]byte(keyLastPullTimestamp))
		if timestampBytes == nil {
			timestamp = 0
			return nil
		}

		timestamp = int64(binary.BigEndian.Uint64(timestampBytes))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get last pull timestamp: %w", err)
	}

	return timestamp, nil
}
