package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a conditional write finds the entity in
	// a state that no longer allows it
	ErrConflict = errors.New("conflict: entity changed state")

	// ErrForeignKeyViolation is returned when a foreign key constraint fails
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrUniqueViolation is returned when a unique constraint fails
	ErrUniqueViolation = errors.New("unique constraint violation")
)
