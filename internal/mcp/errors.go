package mcp

import (
	"errors"
	"fmt"

	"github.com/metafirst/supervisor/internal/failure"
)

// Error codes returned to tool callers.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodePermission      = "PERMISSION_DENIED"
	CodeInvalidState    = "INVALID_STATE"
	CodeFieldType       = "FIELD_TYPE_ERROR"
	CodeNoActiveSchema  = "NO_ACTIVE_SCHEMA"
	CodeRuleDefinition  = "RULE_DEFINITION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeAlreadyAssigned = "ALREADY_ASSIGNED"
	CodeInvalidParams   = "INVALID_PARAMS"
	CodeUnknownMethod   = "UNKNOWN_METHOD"
	CodeInternal        = "INTERNAL_ERROR"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string   `json:"code"`
	Message      string   `json:"message"`
	Field        string   `json:"field,omitempty"`
	Details      []string `json:"details,omitempty"`
	RecoveryHint string   `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

var kindCodes = map[failure.Kind]struct {
	code string
	hint string
}{
	failure.Validation:      {CodeValidation, "Fix the input and retry"},
	failure.Permission:      {CodePermission, "Ask the project PI for a role that grants this action"},
	failure.InvalidState:    {CodeInvalidState, "Reload the entity and check its current state"},
	failure.FieldType:       {CodeFieldType, "Check the field's type in get_active_rdmp"},
	failure.NoActiveSchema:  {CodeNoActiveSchema, "Activate an RDMP version with activate_rdmp"},
	failure.RuleDefinition:  {CodeRuleDefinition, "Check the pattern syntax and capture group"},
	failure.NotFound:        {CodeNotFound, "Check ID spelling"},
	failure.AlreadyAssigned: {CodeAlreadyAssigned, "The file is bound to another sample; assignments are final"},
}

// MapError maps domain errors to MCP error codes. It returns nil for errors
// that are not domain failures.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var fe *failure.Error
	if !errors.As(err, &fe) {
		return nil
	}
	mapped, ok := kindCodes[fe.Kind]
	if !ok {
		return nil
	}
	msg := fe.Message
	if msg == "" {
		msg = string(fe.Kind)
	}
	return &APIError{
		Code:         mapped.code,
		Message:      msg,
		Field:        fe.Field,
		Details:      fe.Details,
		RecoveryHint: mapped.hint,
	}
}

// toAPIError always yields an APIError, hiding internal error text.
func toAPIError(err error) *APIError {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return &APIError{Code: CodeInternal, Message: "internal error"}
}

func invalidParams(format string, args ...any) *APIError {
	return &APIError{Code: CodeInvalidParams, Message: fmt.Sprintf(format, args...)}
}
