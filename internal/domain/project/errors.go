package project

import "github.com/metafirst/supervisor/internal/failure"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = failure.New(failure.NotFound, "project not found")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = failure.New(failure.Validation, "invalid project input")
	// ErrMemberNotFound indicates the user is not a member of the project.
	ErrMemberNotFound = failure.New(failure.NotFound, "project member not found")
	// ErrLastPI indicates a change that would leave the project without a PI.
	ErrLastPI = failure.New(failure.InvalidState, "project must keep at least one PI")
	// ErrStorageRootNotFound indicates the storage root doesn't exist.
	ErrStorageRootNotFound = failure.New(failure.NotFound, "storage root not found")
	// ErrDuplicateStorageRoot indicates a storage root name already used in the project.
	ErrDuplicateStorageRoot = failure.New(failure.Validation, "storage root name already exists in project")
)
