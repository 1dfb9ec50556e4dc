package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey indicates a unique constraint rejected the write.
	ErrDuplicateKey = errors.New("duplicate key")
)
