package repository

import "errors"

var (
	// ErrNotFound is returned when a requested slot does not exist.
	ErrNotFound = errors.New("slot not found")
)
