package repository

import "errors"

// Common repository errors
var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrDatasetNotFound    = errors.New("dataset not found")
	ErrInvalidUUID        = errors.New("invalid UUID format")
)
