package storage

import "context"

// Storage combines every persistence interface the server needs. Both
// backends (sqlite, postgres) implement it; the DSN scheme picks one at
// startup.
type Storage interface {
	UserStorage
	TokenStorage
	NoteStorage

	// Ping reports whether the database is reachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
