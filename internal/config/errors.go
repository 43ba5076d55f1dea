package config

import "errors"

var (
	// ErrInvalidTableName is returned when the configured table name is not a plain SQL identifier.
	ErrInvalidTableName = errors.New("invalid table name")
)
