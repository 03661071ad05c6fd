package rdmp

import (
	"fmt"

	"github.com/metafirst/supervisor/internal/domain/schema"
	"gopkg.in/yaml.v3"
)

type document struct {
	Title  string          `yaml:"title"`
	Roles  []documentRole  `yaml:"roles"`
	Fields []documentField `yaml:"fields"`
}

type documentRole struct {
	Name        string          `yaml:"name"`
	Permissions map[string]bool `yaml:"permissions"`
}

type documentField struct {
	Key           string   `yaml:"key"`
	Label         string   `yaml:"label"`
	Type          string   `yaml:"type"`
	Required      bool     `yaml:"required"`
	AllowedValues []string `yaml:"allowed_values"`
}

// ParseDocument reads an RDMP document written in YAML (JSON is accepted as
// a subset) into a draft request. Type names are normalized, so "string"
// becomes text; unknown types are left for validation to report.
func ParseDocument(data []byte) (DraftRequest, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return DraftRequest{}, ErrInvalidDocument.WithDetails(err.Error())
	}

	req := DraftRequest{Title: doc.Title}
	for _, f := range doc.Fields {
		ft, _ := schema.ParseFieldType(f.Type)
		req.Fields = append(req.Fields, schema.FieldDefinition{
			Key:           f.Key,
			Label:         f.Label,
			Type:          ft,
			Required:      f.Required,
			AllowedValues: f.AllowedValues,
		})
	}
	for _, r := range doc.Roles {
		role := Role{Name: r.Name, Permissions: make(map[Action]bool, len(r.Permissions))}
		for name, granted := range r.Permissions {
			role.Permissions[Action(name)] = granted
		}
		req.Roles = append(req.Roles, role)
	}
	if len(req.Fields) == 0 && len(req.Roles) == 0 && doc.Title == "" {
		return DraftRequest{}, ErrInvalidDocument.WithDetails(fmt.Sprintf("document is empty (%d bytes)", len(data)))
	}
	return req, nil
}
