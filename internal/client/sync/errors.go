package sync

import "errors"

// ErrNoConflict is returned by the resolve operations when the note has
// no retained conflict.
var ErrNoConflict = errors.New("note has no conflict to resolve")
