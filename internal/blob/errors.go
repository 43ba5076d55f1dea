package blob

import "errors"

var (
	// ErrDuplicateBlob is returned when a blob already occupies the destination path.
	ErrDuplicateBlob = errors.New("blob already exists")
	// ErrBlobNotFound is returned when a blob is missing from its shard path.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrDirectoryMissing is returned when a required directory is absent and could not be created.
	ErrDirectoryMissing = errors.New("directory missing")
	// ErrSourceNotFound is returned when the file to ingest does not exist or is not a regular file.
	ErrSourceNotFound = errors.New("source file not found")
	// ErrInvalidRef is returned when an identifier or filename would leave its shard directory.
	ErrInvalidRef = errors.New("invalid blob reference")
)
