package rdmp

import (
	"time"

	"github.com/metafirst/supervisor/internal/domain/schema"
)

// State is the lifecycle state of an RDMP version.
type State string

const (
	StateDraft      State = "DRAFT"
	StateActive     State = "ACTIVE"
	StateSuperseded State = "SUPERSEDED"
)

// Action is a project permission granted by an RDMP role.
type Action string

const (
	ActionEditMetadata  Action = "can_edit_metadata"
	ActionEditPaths     Action = "can_edit_paths"
	ActionCreateRelease Action = "can_create_release"
	ActionManageRDMP    Action = "can_manage_rdmp"
)

// Actions lists every known action in a stable order.
var Actions = []Action{ActionEditMetadata, ActionEditPaths, ActionCreateRelease, ActionManageRDMP}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// Role maps a membership role name to the actions it grants.
type Role struct {
	Name        string          `json:"name" yaml:"name"`
	Permissions map[Action]bool `json:"permissions" yaml:"permissions"`
}

// Roles is the ordered role list of a version.
type Roles []Role

// Grants reports whether the named role grants action.
func (r Roles) Grants(role string, action Action) bool {
	for _, candidate := range r {
		if candidate.Name == role {
			return candidate.Permissions[action]
		}
	}
	return false
}

// Version is one RDMP version of a project.
type Version struct {
	ID           string        `json:"id"`
	ProjectID    string        `json:"project_id"`
	VersionInt   int64         `json:"version_int"`
	Title        string        `json:"title,omitempty"`
	Fields       schema.Fields `json:"fields"`
	Roles        Roles         `json:"roles"`
	State        State         `json:"state"`
	CreatedBy    string        `json:"created_by"`
	ApprovedBy   *string       `json:"approved_by,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	ActivatedAt  *time.Time    `json:"activated_at,omitempty"`
	SupersededAt *time.Time    `json:"superseded_at,omitempty"`

	// TemplateVersionID records the template version a draft was copied
	// from.
	TemplateVersionID *string `json:"template_version_id,omitempty"`
}
