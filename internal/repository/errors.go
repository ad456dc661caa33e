package repository

import "errors"

// Common repository errors
var (
	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate record")
)
