package repository

import "errors"

// Store-level sentinel errors. Driver errors are translated at the
// repository boundary so callers never match on mongo types.
var (
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicate means a write violated a unique index.
	ErrDuplicate = errors.New("repository: duplicate entry")
)
