package boltdb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.etcd.io/bbolt"
)

var (
	// BoltDB bucket names
	bucketAuth        = []byte("auth")
	bucketNotes       = []byte("notes")
	bucketNotesOwner  = []byte("idx_notes_owner")
	bucketNotesStatus = []byte("idx_notes_status")
	bucketMutations   = []byte("mutations")
	bucketMetadata    = []byte("metadata")
)

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db     *bbolt.DB
	logger *slog.Logger

	subsMu sync.RWMutex
	subs   map[string]*subscriber
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string, logger *slog.Logger) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{
		db:     db,
		logger: logger,
		subs:   make(map[string]*subscriber),
	}

	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database connection. Subsequent calls are no-ops and
// storage methods return ErrStorageClosed.
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	s.closeSubscribers()
	err := s.db.Close()
	s.db = nil
	return err
}

// initBuckets creates the required buckets if they don't exist
func (s *Storage) initBuckets() error {
	buckets := [][]byte{
		bucketAuth,
		bucketNotes,
		bucketNotesOwner,
		bucketNotesStatus,
		bucketMutations,
		bucketMetadata,
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}
