package schema

import (
	"fmt"
	"strings"
)

// ValidateFields checks a field list for duplicate keys and bad definitions. All problems are
// reported together in a single ErrInvalidFields error.
func ValidateFields(fields Fields) error {
	var problems []string
	if len(fields) == 0 {
		problems = append(problems, "at least one field is required")
	}

	seen := make(map[string]struct{}, len(fields))
	for i, def := range fields {
		name := def.Key
		if strings.TrimSpace(def.Key) == "" {
			problems = append(problems, fmt.Sprintf("field %d: key is required", i))
			name = fmt.Sprintf("#%d", i)
		} else if def.Key != strings.TrimSpace(def.Key) {
			problems = append(problems, fmt.Sprintf("field %q: key has surrounding whitespace", def.Key))
		} else if _, dup := seen[def.Key]; dup {
			problems = append(problems, fmt.Sprintf("duplicate field key %q", def.Key))
		} else {
			seen[def.Key] = struct{}{}
		}

		if !def.Type.Valid() {
			problems = append(problems, fmt.Sprintf("field %q: unknown type %q", name, def.Type))
			continue
		}

		if def.Type == TypeCategorical {
			if len(def.AllowedValues) == 0 {
				problems = append(problems, fmt.Sprintf("categorical field %q has no allowed values", name))
			}
			values := make(map[string]struct{}, len(def.AllowedValues))
			for _, v := range def.AllowedValues {
				if v == "" {
					problems = append(problems, fmt.Sprintf("categorical field %q has an empty allowed value", name))
					continue
				}
				if _, dup := values[v]; dup {
					problems = append(problems, fmt.Sprintf("categorical field %q repeats allowed value %q", name, v))
				}
				values[v] = struct{}{}
			}
		} else if len(def.AllowedValues) > 0 {
			problems = append(problems, fmt.Sprintf("%s field %q must not declare allowed values", def.Type, name))
		}
	}

	if len(problems) > 0 {
		return ErrInvalidFields.WithDetails(problems...)
	}
	return nil
}
