package ingest

import "github.com/metafirst/supervisor/internal/failure"

var (
	// ErrIngestNotFound indicates the pending ingest doesn't exist.
	ErrIngestNotFound = failure.New(failure.NotFound, "pending ingest not found")
	// ErrSampleNotFound indicates the target sample doesn't exist.
	ErrSampleNotFound = failure.New(failure.NotFound, "sample not found")
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = failure.New(failure.NotFound, "project not found")
	// ErrStorageRootNotFound indicates the storage root is not part of the project.
	ErrStorageRootNotFound = failure.New(failure.NotFound, "storage root not found")
	// ErrInvalidPath indicates a relative path that cannot be stored.
	ErrInvalidPath = failure.New(failure.Validation, "invalid relative path")
	// ErrInvalidEvent indicates a malformed watcher report.
	ErrInvalidEvent = failure.New(failure.Validation, "invalid file event")
	// ErrCrossProject indicates a sample from another project.
	ErrCrossProject = failure.New(failure.Validation, "sample belongs to a different project")
	// ErrNoSuggestedIdentifier indicates there is no identifier to create a sample from.
	ErrNoSuggestedIdentifier = failure.New(failure.Validation, "no sample identifier given or inferred")
	// ErrAlreadyAssigned indicates the ingest is bound to a different sample.
	ErrAlreadyAssigned = failure.New(failure.AlreadyAssigned, "ingest is already assigned to a different sample")
	// ErrAssigned indicates an operation that cannot apply to an ASSIGNED ingest.
	ErrAssigned = failure.New(failure.InvalidState, "ingest is already assigned")
	// ErrNoActiveSchema indicates the project is non-operational.
	ErrNoActiveSchema = failure.New(failure.NoActiveSchema, "project has no active rdmp version; ingest is blocked")
)
