package service

import (
	"errors"

	"github.com/emrgen/bookshelf/internal/blob"
	"github.com/emrgen/bookshelf/internal/store"
)

var (
	// ErrNotFound is returned when no record has the given identifier.
	ErrNotFound = store.ErrNotFound
	// ErrDuplicateID is returned when a generated identifier is already used by a record.
	ErrDuplicateID = store.ErrDuplicateID
	// ErrDuplicateBlob is returned when a generated identifier collides with a stored blob.
	ErrDuplicateBlob = blob.ErrDuplicateBlob
	// ErrBlobNotFound is returned when a record exists but its file is missing from the shard tree.
	ErrBlobNotFound = blob.ErrBlobNotFound
	// ErrDirectoryMissing is returned when a required directory is absent and could not be created.
	ErrDirectoryMissing = blob.ErrDirectoryMissing
	// ErrSourceNotFound is returned when the file to add does not exist.
	ErrSourceNotFound = blob.ErrSourceNotFound
	// ErrInvalidRef is returned when a record's id or filename cannot name a blob in the shard tree.
	ErrInvalidRef = blob.ErrInvalidRef
	// ErrUnknownSearchMode is returned for a search mode other than exact or fuzzy.
	ErrUnknownSearchMode = errors.New("unknown search mode")
)
