package repositories

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrReferenceMissing is returned when an insert references a row that no longer exists.
	ErrReferenceMissing = errors.New("referenced record missing")
)
