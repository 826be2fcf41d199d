package boltdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func TestSaveAndGetLastPullTimestamp(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	// No pull recorded yet, expect 0
	ts, err := store.GetLastPullTimestamp(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)

	expectedTS := time.Now().UnixNano()
	err = store.SaveLastPullTimestamp(ctx, expectedTS)
	require.NoError(t, err)

	gotTS, err := store.GetLastPullTimestamp(ctx)
	require.NoError(t, err)
	assert.Equal(t, expectedTS, gotTS)

	// Overwriting moves the watermark
	err = store.SaveLastPullTimestamp(ctx, expectedTS+1)
	require.NoError(t, err)

	gotTS, err = store.GetLastPullTimestamp(ctx)
	require.NoError(t, err)
	assert.Equal(t, expectedTS+1, gotTS)
}

func TestLastPullTimestamp_BucketMissing(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket(bucketMetadata)
	})
	require.NoError(t, err)

	_, err = store.GetLastPullTimestamp(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "metadata bucket not found")

	err = store.SaveLastPullTimestamp(ctx, 42)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "metadata bucket not found")
}
