// Package failure defines the structured error kinds shared by the
// supervisor's domain services.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure so outer surfaces can map it without knowing
// every package sentinel.
type Kind string

const (
	Validation      Kind = "validation"
	Permission      Kind = "permission"
	InvalidState    Kind = "invalid_state"
	FieldType       Kind = "field_type"
	NoActiveSchema  Kind = "no_active_schema"
	RuleDefinition  Kind = "rule_definition"
	NotFound        Kind = "not_found"
	AlreadyAssigned Kind = "already_assigned"
)

// Kind sentinels. errors.Is(err, ErrValidation) is true for any validation
// failure regardless of its message.
var (
	ErrValidation      = &Error{Kind: Validation}
	ErrPermission      = &Error{Kind: Permission}
	ErrInvalidState    = &Error{Kind: InvalidState}
	ErrFieldType       = &Error{Kind: FieldType}
	ErrNoActiveSchema  = &Error{Kind: NoActiveSchema}
	ErrRuleDefinition  = &Error{Kind: RuleDefinition}
	ErrNotFound        = &Error{Kind: NotFound}
	ErrAlreadyAssigned = &Error{Kind: AlreadyAssigned}
)

// Error is a typed domain failure.
type Error struct {
	Kind    Kind     `json:"kind"`
	Message string   `json:"message"`
	Field   string   `json:"field,omitempty"`
	Details []string `json:"details,omitempty"`
}

// New returns a sentinel of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(string(e.Kind))
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %q)", e.Field)
	}
	if len(e.Details) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Details, "; "))
	}
	return b.String()
}

// Is matches by kind, and also by message when the target carries one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// WithDetails returns a copy of e carrying details. The copy still matches e.
func (e *Error) WithDetails(details ...string) *Error {
	cp := *e
	cp.Details = append(append([]string(nil), e.Details...), details...)
	return &cp
}

// WithField returns a copy of e naming the offending field.
func (e *Error) WithField(field string) *Error {
	cp := *e
	cp.Field = field
	return &cp
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
