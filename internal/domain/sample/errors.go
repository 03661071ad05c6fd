package sample

import "github.com/metafirst/supervisor/internal/failure"

var (
	// ErrSampleNotFound indicates the sample doesn't exist.
	ErrSampleNotFound = failure.New(failure.NotFound, "sample not found")
	// ErrDuplicateIdentifier indicates the identifier is taken in the project.
	ErrDuplicateIdentifier = failure.New(failure.Validation, "sample identifier already exists in project")
	// ErrInvalidInput indicates invalid sample input.
	ErrInvalidInput = failure.New(failure.Validation, "invalid sample input")
	// ErrUnknownField indicates a key the ACTIVE version does not define.
	ErrUnknownField = failure.New(failure.Validation, "field is not defined by the active rdmp version")
	// ErrNoActiveSchema indicates the project is non-operational.
	ErrNoActiveSchema = failure.New(failure.NoActiveSchema, "project has no active rdmp version")
	// ErrSampleInUse indicates ASSIGNED ingests still reference the sample.
	ErrSampleInUse = failure.New(failure.InvalidState, "sample has assigned files")
	// ErrProjectNotFound indicates the owning project doesn't exist.
	ErrProjectNotFound = failure.New(failure.NotFound, "project not found")
)
