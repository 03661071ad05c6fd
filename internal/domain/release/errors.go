package release

import "github.com/metafirst/supervisor/internal/failure"

var (
	// ErrReleaseNotFound indicates the release doesn't exist.
	ErrReleaseNotFound = failure.New(failure.NotFound, "release not found")
	// ErrDuplicateTag indicates the tag is already used in the project.
	ErrDuplicateTag = failure.New(failure.Validation, "release tag already exists in project")
	// ErrInvalidInput indicates a malformed release request.
	ErrInvalidInput = failure.New(failure.Validation, "invalid release")
	// ErrInvalidParent indicates a parent release outside the project.
	ErrInvalidParent = failure.New(failure.Validation, "parent release not found in project")
)
