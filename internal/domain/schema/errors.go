package schema

import "github.com/metafirst/supervisor/internal/failure"

var (
	// ErrInvalidFields indicates a malformed field definition list.
	ErrInvalidFields = failure.New(failure.Validation, "invalid field definitions")
	// ErrNotText indicates a non-string value for a text field.
	ErrNotText = failure.New(failure.FieldType, "value must be text")
	// ErrNotNumber indicates a value that does not parse as a finite number.
	ErrNotNumber = failure.New(failure.FieldType, "value must be a number")
	// ErrNotDate indicates a value that is not an ISO 8601 date.
	ErrNotDate = failure.New(failure.FieldType, "value must be an ISO 8601 date")
	// ErrNotAllowed indicates a categorical value outside the allowed set.
	ErrNotAllowed = failure.New(failure.FieldType, "value is not an allowed category")
	// ErrUnknownKind indicates a stored value with an unrecognized type tag.
	ErrUnknownKind = failure.New(failure.FieldType, "unknown value type")
)
