package release

import (
	"time"

	"github.com/metafirst/supervisor/internal/domain/completeness"
	"github.com/metafirst/supervisor/internal/domain/schema"
)

// Release is a frozen snapshot of a project's samples, pinned to the RDMP
// version that was ACTIVE when it was cut. Releases are never modified; a
// correction is a new release naming its parent.
type Release struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	Tag             string    `json:"release_tag"`
	Description     string    `json:"description,omitempty"`
	RDMPVersionID   string    `json:"rdmp_version_id"`
	RDMPVersionInt  int64     `json:"rdmp_version_int"`
	ParentReleaseID *string   `json:"parent_release_id,omitempty"`
	Summary         Summary   `json:"summary"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`

	// Snapshot is omitted from listings.
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

// Summary counts what a release contains.
type Summary struct {
	Samples  int `json:"samples"`
	Complete int `json:"complete"`
	Files    int `json:"files"`
}

// Snapshot is the denormalized project state captured by a release.
type Snapshot struct {
	Fields  schema.Fields    `json:"fields"`
	Samples []SampleSnapshot `json:"samples"`
}

// SampleSnapshot is one sample as it stood at release time.
type SampleSnapshot struct {
	ID           string                  `json:"id"`
	Identifier   string                  `json:"sample_identifier"`
	FieldValues  map[string]schema.Value `json:"field_values"`
	Completeness completeness.Result     `json:"completeness"`
	Files        []File                  `json:"files"`
}

// File is an assigned raw-data file of a sample.
type File struct {
	IngestID       string  `json:"ingest_id"`
	StorageRootID  string  `json:"storage_root_id"`
	RelativePath   string  `json:"relative_path"`
	FileSizeBytes  int64   `json:"file_size_bytes"`
	FileHashSHA256 *string `json:"file_hash_sha256,omitempty"`
}

// CreateRequest describes a new release.
type CreateRequest struct {
	Tag         string
	Description string
	// ParentReleaseID names the release this one corrects.
	ParentReleaseID string
}
