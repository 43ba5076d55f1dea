package store

import "errors"

var (
	// ErrNotFound is returned when no record has the given identifier.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateID is returned when a record with the same identifier already exists.
	ErrDuplicateID = errors.New("duplicate record id")
)
