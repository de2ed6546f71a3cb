package domain

import "github.com/pkg/errors"

var (
	// ErrKeyNotFound is returned by reads and deletes of a key with no live value.
	ErrKeyNotFound = errors.New("key not found")

	// ErrEmptyKey is returned when a write names an empty key.
	ErrEmptyKey = errors.New("key should not be empty")

	// ErrCorruptRecord is returned when stored bytes violate the record layout,
	// or when the index and the log disagree.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrIO is returned when the underlying storage cannot be read or written.
	ErrIO = errors.New("storage i/o failure")

	// ErrOpenFailed is returned when a database handle cannot be established.
	ErrOpenFailed = errors.New("open failed")
)
