package storage

import "context"

//go:generate moq -out metadata_mock.go . MetadataStorage

// MetadataStorage stores client bookkeeping values.
type MetadataStorage interface {
	// SaveLastPullTimestamp saves the server watermark (unix nanoseconds)
	// of the last successful pull.
	SaveLastPullTimestamp(ctx context.Context, timestamp int64) error

	// GetLastPullTimestamp retrieves the watermark of the last successful
	// pull. Returns 0 if no pull has been performed yet.
	GetLastPullTimestamp(ctx context.Context) (int64, error)
}
