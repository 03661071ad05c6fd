package rdmp

import "github.com/metafirst/supervisor/internal/failure"

var (
	// ErrVersionNotFound indicates the RDMP version doesn't exist.
	ErrVersionNotFound = failure.New(failure.NotFound, "rdmp version not found")
	// ErrProjectNotFound indicates the owning project doesn't exist.
	ErrProjectNotFound = failure.New(failure.NotFound, "project not found")
	// ErrNotDraft indicates a transition that requires a DRAFT version.
	ErrNotDraft = failure.New(failure.InvalidState, "rdmp version is not a draft")
	// ErrInvalidRoles indicates a malformed role list.
	ErrInvalidRoles = failure.New(failure.Validation, "invalid rdmp roles")
	// ErrInvalidDocument indicates an RDMP document that cannot be parsed.
	ErrInvalidDocument = failure.New(failure.Validation, "invalid rdmp document")
	// ErrTemplateNotFound indicates the RDMP template doesn't exist.
	ErrTemplateNotFound = failure.New(failure.NotFound, "rdmp template not found")
	// ErrTemplateVersionNotFound indicates the template version doesn't exist.
	ErrTemplateVersionNotFound = failure.New(failure.NotFound, "rdmp template version not found")
	// ErrDuplicateTemplate indicates a template name already in use.
	ErrDuplicateTemplate = failure.New(failure.Validation, "rdmp template name already exists")
	// ErrInvalidTemplate indicates a malformed template request.
	ErrInvalidTemplate = failure.New(failure.Validation, "invalid rdmp template")
	// ErrNoActiveVersion indicates the project is non-operational.
	ErrNoActiveVersion = failure.New(failure.NoActiveSchema, "project has no active rdmp version")
)
