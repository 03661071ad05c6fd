package mcp

import (
	"time"

	"github.com/metafirst/supervisor/internal/domain/audit"
	"github.com/metafirst/supervisor/internal/domain/completeness"
	"github.com/metafirst/supervisor/internal/domain/extraction"
	"github.com/metafirst/supervisor/internal/domain/ingest"
	"github.com/metafirst/supervisor/internal/domain/project"
	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/domain/release"
	"github.com/metafirst/supervisor/internal/domain/sample"
	"github.com/metafirst/supervisor/internal/domain/schema"
)

type CreateProjectParams struct {
	ID              string            `json:"id,omitempty"`
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	SupervisorID    string            `json:"supervisor_id,omitempty"`
	ExtractionRules []extraction.Rule `json:"extraction_rules,omitempty"`
	IgnorePatterns  []string          `json:"ignore_patterns,omitempty"`
}

type GetProjectParams struct {
	ID string `json:"id"`
}

type AddMemberParams struct {
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
}

type SetExtractionRulesParams struct {
	ProjectID       string            `json:"project_id"`
	ExtractionRules []extraction.Rule `json:"extraction_rules"`
	IgnorePatterns  *[]string         `json:"ignore_patterns,omitempty"`
}

type CreateStorageRootParams struct {
	ProjectID   string `json:"project_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type CreateRDMPDraftParams struct {
	ProjectID string        `json:"project_id"`
	Title     string        `json:"title,omitempty"`
	Fields    schema.Fields `json:"fields,omitempty"`
	Roles     rdmp.Roles    `json:"roles,omitempty"`
	// Document is a YAML or JSON RDMP definition used instead of
	// Title/Fields/Roles.
	Document string `json:"document,omitempty"`
	// TemplateVersionID copies the draft from a template version and
	// takes precedence over Document.
	TemplateVersionID string `json:"template_version_id,omitempty"`
}

// TemplateContentParams carries a template version's content, given
// inline or as a document.
type TemplateContentParams struct {
	Title    string        `json:"title,omitempty"`
	Fields   schema.Fields `json:"fields,omitempty"`
	Roles    rdmp.Roles    `json:"roles,omitempty"`
	Document string        `json:"document,omitempty"`
}

type CreateRDMPTemplateParams struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TemplateContentParams
}

type AddRDMPTemplateVersionParams struct {
	TemplateID string `json:"template_id"`
	TemplateContentParams
}

type VersionParams struct {
	VersionID string `json:"version_id"`
}

type ProjectScopedParams struct {
	ProjectID string `json:"project_id"`
}

type CreateSampleParams struct {
	ProjectID   string         `json:"project_id"`
	Identifier  string         `json:"sample_identifier"`
	FieldValues map[string]any `json:"field_values,omitempty"`
}

type GetSampleParams struct {
	ID         string `json:"id,omitempty"`
	ProjectID  string `json:"project_id,omitempty"`
	Identifier string `json:"sample_identifier,omitempty"`
}

type ListSamplesParams struct {
	ProjectID string              `json:"project_id"`
	Status    completeness.Status `json:"status,omitempty"`
	Limit     int                 `json:"limit,omitempty"`
	Offset    int                 `json:"offset,omitempty"`
}

type SetFieldValueParams struct {
	SampleID string `json:"sample_id"`
	Key      string `json:"key"`
	Value    any    `json:"value"`
}

type ListPendingIngestsParams struct {
	ProjectID string          `json:"project_id"`
	Statuses  []ingest.Status `json:"statuses,omitempty"`
}

type AssignIngestParams struct {
	IngestID string `json:"ingest_id"`
	SampleID string `json:"sample_id,omitempty"`
	// CreateSample assigns to a new sample named SampleIdentifier, or the
	// inferred identifier when empty.
	CreateSample     bool           `json:"create_sample,omitempty"`
	SampleIdentifier string         `json:"sample_identifier,omitempty"`
	FieldValues      map[string]any `json:"field_values,omitempty"`
}

type IgnoreIngestParams struct {
	IngestID string `json:"ingest_id"`
	Reason   string `json:"reason,omitempty"`
}

type CreateReleaseParams struct {
	ProjectID       string `json:"project_id"`
	Tag             string `json:"release_tag"`
	Description     string `json:"description,omitempty"`
	ParentReleaseID string `json:"parent_release_id,omitempty"`
}

type GetReleaseParams struct {
	ReleaseID string `json:"release_id"`
}

type ExplainExtractionParams struct {
	ProjectID    string `json:"project_id"`
	RelativePath string `json:"relative_path"`
}

type GetRecentActivityParams struct {
	ProjectID string        `json:"project_id"`
	Limit     int           `json:"limit,omitempty"`
	Offset    int           `json:"offset,omitempty"`
	ActorID   *string       `json:"actor_id,omitempty"`
	TargetID  *string       `json:"target_id,omitempty"`
	Action    *audit.Action `json:"action,omitempty"`
}

type ListProjectsResponse struct {
	Projects []project.Project `json:"projects"`
}

type ProjectDetailResponse struct {
	Project      project.Project       `json:"project"`
	Members      []project.Member      `json:"members"`
	StorageRoots []project.StorageRoot `json:"storage_roots"`
}

type ListRDMPVersionsResponse struct {
	Versions []rdmp.Version `json:"versions"`
}

type ListRDMPTemplatesResponse struct {
	Templates []rdmp.Template `json:"templates"`
}

type DiscardDraftResponse struct {
	VersionID string `json:"version_id"`
	Discarded bool   `json:"discarded"`
}

type ListSamplesResponse struct {
	Samples []sample.View `json:"samples"`
}

type ListPendingIngestsResponse struct {
	Ingests []ingest.PendingIngest `json:"ingests"`
}

type AssignIngestResponse struct {
	Ingest ingest.PendingIngest `json:"ingest"`
	Sample *sample.View         `json:"sample,omitempty"`
}

type ListReleasesResponse struct {
	Releases []release.Release `json:"releases"`
}

type GetRecentActivityResponse struct {
	Activity []ActivityEntryResponse `json:"activity"`
}

type ActivityEntryResponse struct {
	Timestamp  time.Time    `json:"timestamp"`
	Action     audit.Action `json:"action"`
	ActorID    string       `json:"actor_id,omitempty"`
	TargetType string       `json:"target_type"`
	TargetID   string       `json:"target_id"`
	Summary    string       `json:"summary"`
	Details    string       `json:"details,omitempty"`
}
