package schema

import "strings"

// FieldType is the declared type of an RDMP field.
type FieldType string

const (
	TypeText        FieldType = "text"
	TypeNumber      FieldType = "number"
	TypeDate        FieldType = "date"
	TypeCategorical FieldType = "categorical"
)

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeDate, TypeCategorical:
		return true
	}
	return false
}

// ParseFieldType normalizes a type name. "string" is accepted as text.
func ParseFieldType(s string) (FieldType, bool) {
	switch t := FieldType(strings.ToLower(strings.TrimSpace(s))); t {
	case "string":
		return TypeText, true
	case TypeText, TypeNumber, TypeDate, TypeCategorical:
		return t, true
	}
	return FieldType(s), false
}

// FieldDefinition describes one field of an RDMP version.
type FieldDefinition struct {
	Key           string    `json:"key" yaml:"key"`
	Label         string    `json:"label,omitempty" yaml:"label,omitempty"`
	Type          FieldType `json:"type" yaml:"type"`
	Required      bool      `json:"required" yaml:"required"`
	AllowedValues []string  `json:"allowed_values,omitempty" yaml:"allowed_values,omitempty"`
}

// Allows reports whether value is an allowed categorical value. Matching is
// exact and case-sensitive.
func (d FieldDefinition) Allows(value string) bool {
	for _, allowed := range d.AllowedValues {
		if allowed == value {
			return true
		}
	}
	return false
}

// Fields is the ordered field list of a schema version. Order matters for
// display and for the order of missing fields in completeness results.
type Fields []FieldDefinition

// Lookup returns the definition with the given key.
func (f Fields) Lookup(key string) (FieldDefinition, bool) {
	for _, def := range f {
		if def.Key == key {
			return def, true
		}
	}
	return FieldDefinition{}, false
}

// Required returns the required definitions in schema order.
func (f Fields) Required() Fields {
	var out Fields
	for _, def := range f {
		if def.Required {
			out = append(out, def)
		}
	}
	return out
}

// Clone returns a deep copy.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for i, def := range f {
		def.AllowedValues = append([]string(nil), def.AllowedValues...)
		out[i] = def
	}
	return out
}
