package rdmp

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/metafirst/supervisor/internal/domain/schema"
	"github.com/metafirst/supervisor/internal/failure"
)

// ValidateRoles checks role names and permission keys. Missing permissions
// are treated as not granted.
func ValidateRoles(roles Roles) error {
	var problems []string
	seen := make(map[string]struct{}, len(roles))
	for i, role := range roles {
		name := strings.TrimSpace(role.Name)
		if name == "" {
			problems = append(problems, fmt.Sprintf("role %d: name is required", i))
		} else if _, dup := seen[name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate role name %q", name))
		}
		seen[name] = struct{}{}

		unknown := make([]string, 0)
		for action := range role.Permissions {
			if !action.Valid() {
				unknown = append(unknown, string(action))
			}
		}
		sort.Strings(unknown)
		for _, action := range unknown {
			problems = append(problems, fmt.Sprintf("role %q: unknown permission %q", name, action))
		}
	}
	if len(problems) > 0 {
		return ErrInvalidRoles.WithDetails(problems...)
	}
	return nil
}

// validateDraft validates fields and roles together so a single error lists
// every problem.
func validateDraft(fields schema.Fields, roles Roles) error {
	var details []string
	for _, err := range []error{schema.ValidateFields(fields), ValidateRoles(roles)} {
		var fe *failure.Error
		if errors.As(err, &fe) {
			details = append(details, fe.Details...)
		}
	}
	if len(details) == 0 {
		return nil
	}
	return schema.ErrInvalidFields.WithDetails(details...)
}
