package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when no document is stored for a project.
	ErrNotFound = errors.New("document not found")

	// ErrEmptyDocument is returned when there is nothing to deliver.
	ErrEmptyDocument = errors.New("empty document")
)
