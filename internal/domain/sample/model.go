package sample

import (
	"time"

	"github.com/metafirst/supervisor/internal/domain/completeness"
	"github.com/metafirst/supervisor/internal/domain/schema"
)

// Sample is the unit of metadata within a project.
type Sample struct {
	ID                   string                  `json:"id"`
	ProjectID            string                  `json:"project_id"`
	Identifier           string                  `json:"sample_identifier"`
	CreatedRDMPVersionID string                  `json:"created_rdmp_version_id"`
	FieldValues          map[string]schema.Value `json:"field_values"`
	CreatedBy            string                  `json:"created_by"`
	CreatedAt            time.Time               `json:"created_at"`
	UpdatedAt            time.Time               `json:"updated_at"`
}

// View is a sample with its completeness computed against the project's
// current ACTIVE version.
type View struct {
	Sample
	Completeness completeness.Report `json:"completeness"`
}

// ListOptions provides filtering options for listing samples.
type ListOptions struct {
	// Status keeps only samples with this completeness status.
	Status completeness.Status
	Limit  int
	Offset int
}
