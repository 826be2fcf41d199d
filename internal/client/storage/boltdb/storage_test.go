package boltdb

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

// createTestStorage creates a temporary store for tests
func createTestStorage(t *testing.T) (*Storage, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := context.Background()
	store, err := New(ctx, dbPath, logger)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		if store.db != nil {
			require.NoError(t, store.Close())
		}
	}

	return store, cleanup
}

func TestNew_Success(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "testdb.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := context.Background()
	store, err := New(ctx, dbPath, logger)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() {
		require.NoError(t, store.Close())
	}()

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	err = store.db.View(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{
			bucketAuth,
			bucketNotes,
			bucketNotesOwner,
			bucketNotesStatus,
			bucketMutations,
			bucketMetadata,
		} {
			if tx.Bucket(b) == nil {
				return os.ErrNotExist
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestNew_InvalidPath(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	invalidPath := string([]byte{0})
	store, err := New(ctx, invalidPath, logger)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "testdb.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := context.Background()
	store, err := New(ctx, dbPath, logger)
	require.NoError(t, err)
	require.NotNil(t, store)

	err = store.Close()
	assert.NoError(t, err)
	assert.Nil(t, store.db)

	// Second Close is a no-op
	err = store.Close()
	assert.NoError(t, err)
}

func TestClosedStorage_ReturnsErr(t *testing.T) {
	store, _ := createTestStorage(t)
	require.NoError(t, store.Close())

	ctx := context.Background()

	_, err := store.GetNote(ctx, "some-id")
	assert.Error(t, err)

	_, err = store.GetAuth(ctx)
	assert.Error(t, err)

	_, err = store.CountMutations(ctx)
	assert.Error(t, err)
}
