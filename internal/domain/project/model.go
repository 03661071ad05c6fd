package project

import (
	"time"

	"github.com/metafirst/supervisor/internal/domain/extraction"
)

// RolePI is the membership role that may activate RDMP versions and manage
// the project. It is not defined by RDMP roles.
const RolePI = "PI"

// Project is the unit that owns RDMP versions, samples and ingests.
type Project struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Description         string            `json:"description,omitempty"`
	SupervisorID        string            `json:"supervisor_id,omitempty"`
	ExtractionRules     []extraction.Rule `json:"extraction_rules"`
	IgnorePatterns      []string          `json:"ignore_patterns"`
	ActiveRDMPVersionID *string           `json:"active_rdmp_version_id"`
	CreatedBy           string            `json:"created_by"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// Operational reports whether the project has an ACTIVE RDMP version.
func (p *Project) Operational() bool {
	return p.ActiveRDMPVersionID != nil
}

// Member is a user's role within a project.
type Member struct {
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// StorageRoot is a named location whose files are reported by watchers.
type StorageRoot struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
