package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/metafirst/supervisor/internal/domain/audit"
	"github.com/metafirst/supervisor/internal/domain/extraction"
	"github.com/metafirst/supervisor/internal/domain/ingest"
	"github.com/metafirst/supervisor/internal/domain/project"
	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/domain/release"
	"github.com/metafirst/supervisor/internal/domain/sample"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, actorID string, req project.CreateRequest) (*project.Project, error)
	Get(ctx context.Context, id string) (*project.Project, error)
	List(ctx context.Context, userID string) ([]project.Project, error)
	SetExtractionRules(ctx context.Context, projectID, actorID string, rules []extraction.Rule) (*project.Project, error)
	SetIgnorePatterns(ctx context.Context, projectID, actorID string, patterns []string) (*project.Project, error)
	AddMember(ctx context.Context, projectID, actorID, userID, role string) (*project.Member, error)
	ListMembers(ctx context.Context, projectID string) ([]project.Member, error)
	CreateStorageRoot(ctx context.Context, projectID, actorID, name, description string) (*project.StorageRoot, error)
	ListStorageRoots(ctx context.Context, projectID string) ([]project.StorageRoot, error)
}

// RDMPService defines RDMP lifecycle operations needed by MCP.
type RDMPService interface {
	CreateDraft(ctx context.Context, projectID, actorID string, req rdmp.DraftRequest) (*rdmp.Version, error)
	CreateDraftFromTemplate(ctx context.Context, projectID, actorID, templateVersionID string) (*rdmp.Version, error)
	DiscardDraft(ctx context.Context, versionID, actorID string) error
	Activate(ctx context.Context, versionID, actorID string) (*rdmp.Version, error)
	Get(ctx context.Context, versionID string) (*rdmp.Version, error)
	RequireActive(ctx context.Context, projectID string) (*rdmp.Version, error)
	List(ctx context.Context, projectID string) ([]rdmp.Version, error)
}

// TemplateService defines RDMP template operations needed by MCP.
type TemplateService interface {
	Create(ctx context.Context, actorID string, req rdmp.TemplateRequest) (*rdmp.Template, error)
	AddVersion(ctx context.Context, templateID, actorID string, req rdmp.DraftRequest) (*rdmp.TemplateVersion, error)
	List(ctx context.Context) ([]rdmp.Template, error)
}

// SampleService defines sample registry operations needed by MCP.
type SampleService interface {
	Create(ctx context.Context, projectID, actorID string, req sample.CreateRequest) (*sample.View, error)
	Get(ctx context.Context, id string) (*sample.View, error)
	GetByIdentifier(ctx context.Context, projectID, identifier string) (*sample.View, error)
	List(ctx context.Context, projectID string, opts sample.ListOptions) ([]sample.View, error)
	SetFieldValue(ctx context.Context, sampleID, actorID, key string, raw any) (*sample.View, error)
}

// IngestService defines pending ingest operations needed by MCP.
type IngestService interface {
	Get(ctx context.Context, id string) (*ingest.PendingIngest, error)
	List(ctx context.Context, projectID string, statuses ...ingest.Status) ([]ingest.PendingIngest, error)
	Assign(ctx context.Context, ingestID, sampleID, actorID string) (*ingest.PendingIngest, error)
	CreateSampleAndAssign(ctx context.Context, ingestID, actorID string, req sample.CreateRequest) (*ingest.PendingIngest, *sample.View, error)
	Ignore(ctx context.Context, ingestID, actorID, reason string) (*ingest.PendingIngest, error)
	Explain(ctx context.Context, projectID, relativePath string) (*ingest.Explanation, error)
}

// ReleaseService defines release operations needed by MCP.
type ReleaseService interface {
	Create(ctx context.Context, projectID, actorID string, req release.CreateRequest) (*release.Release, error)
	Get(ctx context.Context, id string) (*release.Release, error)
	List(ctx context.Context, projectID string) ([]release.Release, error)
}

// AuditService defines audit log reads needed by MCP.
type AuditService interface {
	List(ctx context.Context, opts audit.ListOptions) ([]audit.Entry, error)
}

// Authorizer gates read tools on project membership.
type Authorizer interface {
	RequireMember(ctx context.Context, projectID, actorID string) error
}

// Handler dispatches MCP commands.
type Handler struct {
	projects  ProjectService
	rdmp      RDMPService
	templates TemplateService
	samples   SampleService
	ingests   IngestService
	releases  ReleaseService
	audit     AuditService
	authz     Authorizer
}

// NewHandler creates a new MCP handler.
func NewHandler(svc Services) *Handler {
	return &Handler{
		projects:  svc.Projects,
		rdmp:      svc.RDMP,
		templates: svc.Templates,
		samples:   svc.Samples,
		ingests:   svc.Ingests,
		releases:  svc.Releases,
		audit:     svc.Audit,
		authz:     svc.Authz,
	}
}

// Handle dispatches MCP requests to domain services on behalf of actorID.
// Domain failures are returned as *APIError.
func (h *Handler) Handle(ctx context.Context, actorID, method string, params json.RawMessage) (any, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, &APIError{Code: CodePermission, Message: "no authenticated actor"}
	}
	result, err := h.dispatch(ctx, actorID, method, params)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, actorID, method string, params json.RawMessage) (any, error) {
	switch method {
	case "create_project":
		var req CreateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.projects.Create(ctx, actorID, project.CreateRequest{
			ID:              req.ID,
			Name:            req.Name,
			Description:     req.Description,
			SupervisorID:    req.SupervisorID,
			ExtractionRules: req.ExtractionRules,
			IgnorePatterns:  req.IgnorePatterns,
		})
	case "list_projects":
		projects, err := h.projects.List(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if projects == nil {
			projects = []project.Project{}
		}
		return ListProjectsResponse{Projects: projects}, nil
	case "get_project":
		var req GetProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.requireMember(ctx, req.ID, actorID); err != nil {
			return nil, err
		}
		proj, err := h.projects.Get(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		members, err := h.projects.ListMembers(ctx, proj.ID)
		if err != nil {
			return nil, err
		}
		roots, err := h.projects.ListStorageRoots(ctx, proj.ID)
		if err != nil {
			return nil, err
		}
		return ProjectDetailResponse{Project: *proj, Members: members, StorageRoots: roots}, nil
	case "add_member":
		var req AddMemberParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.projects.AddMember(ctx, req.ProjectID, actorID, req.UserID, req.Role)
	case "set_extraction_rules":
		var req SetExtractionRulesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		proj, err := h.projects.SetExtractionRules(ctx, req.ProjectID, actorID, req.ExtractionRules)
		if err != nil {
			return nil, err
		}
		if req.IgnorePatterns != nil {
			return h.projects.SetIgnorePatterns(ctx, req.ProjectID, actorID, *req.IgnorePatterns)
		}
		return proj, nil
	case "create_storage_root":
		var req CreateStorageRootParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.projects.CreateStorageRoot(ctx, req.ProjectID, actorID, req.Name, req.Description)
	case "create_rdmp_draft":
		var req CreateRDMPDraftParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.TemplateVersionID != "" {
			return h.rdmp.CreateDraftFromTemplate(ctx, req.ProjectID, actorID, req.TemplateVersionID)
		}
		draft, err := TemplateContentParams{Title: req.Title, Fields: req.Fields, Roles: req.Roles, Document: req.Document}.draft()
		if err != nil {
			return nil, err
		}
		return h.rdmp.CreateDraft(ctx, req.ProjectID, actorID, draft)
	case "create_rdmp_template":
		var req CreateRDMPTemplateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		draft, err := req.draft()
		if err != nil {
			return nil, err
		}
		return h.templates.Create(ctx, actorID, rdmp.TemplateRequest{
			Name:        req.Name,
			Description: req.Description,
			Draft:       draft,
		})
	case "add_rdmp_template_version":
		var req AddRDMPTemplateVersionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		draft, err := req.draft()
		if err != nil {
			return nil, err
		}
		return h.templates.AddVersion(ctx, req.TemplateID, actorID, draft)
	case "list_rdmp_templates":
		templates, err := h.templates.List(ctx)
		if err != nil {
			return nil, err
		}
		if templates == nil {
			templates = []rdmp.Template{}
		}
		return ListRDMPTemplatesResponse{Templates: templates}, nil
	case "activate_rdmp":
		var req VersionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.rdmp.Activate(ctx, req.VersionID, actorID)
	case "discard_rdmp_draft":
		var req VersionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.rdmp.DiscardDraft(ctx, req.VersionID, actorID); err != nil {
			return nil, err
		}
		return DiscardDraftResponse{VersionID: req.VersionID, Discarded: true}, nil
	case "get_active_rdmp":
		var req ProjectScopedParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.requireMember(ctx, req.ProjectID, actorID); err != nil {
			return nil, err
		}
		return h.rdmp.RequireActive(ctx, req.ProjectID)
	case "list_rdmp_versions":
		var req ProjectScopedParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.requireMember(ctx, req.ProjectID, actorID); err != nil {
			return nil, err
		}
		versions, err := h.rdmp.List(ctx, req.ProjectID)
		if err != nil {
			return nil, err
		}
		if versions == nil {
			versions = []rdmp.Version{}
		}
		return ListRDMPVersionsResponse{Versions: versions}, nil
	case "create_sample":
		var req CreateSampleParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.samples.Create(ctx, req.ProjectID, actorID, sample.CreateRequest{
			Identifier:  req.Identifier,
			FieldValues: req.FieldValues,
		})
	case "get_sample":
		var req GetSampleParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.getSample(ctx, actorID, req)
	case "list_samples":
		var req ListSamplesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.requireMember(ctx, req.ProjectID, actorID); err != nil {
			return nil, err
		}
		views, err := h.samples.List(ctx, req.ProjectID, sample.ListOptions{
			Status: req.Status,
			Limit:  req.Limit,
			Offset: req.Offset,
		})
		if err != nil {
			return nil, err
		}
		return ListSamplesResponse{Samples: views}, nil
	case "set_field_value":
		var req SetFieldValueParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.samples.SetFieldValue(ctx, req.SampleID, actorID, req.Key, req.Value)
	case "list_pending_ingests":
		var req ListPendingIngestsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.requireMember(ctx, req.ProjectID, actorID); err != nil {
			return nil, err
		}
		ingests, err := h.ingests.List(ctx, req.ProjectID, req.Statuses...)
		if err != nil {
			return nil, err
		}
		if ingests == nil {
			ingests = []ingest.PendingIngest{}
		}
		return ListPendingIngestsResponse{Ingests: ingests}, nil
	case "assign_ingest":
		var req AssignIngestParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.assignIngest(ctx, actorID, req)
	case "ignore_ingest":
		var req IgnoreIngestParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.ingests.Ignore(ctx, req.IngestID, actorID, req.Reason)
	case "explain_extraction":
		var req ExplainExtractionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.requireMember(ctx, req.ProjectID, actorID); err != nil {
			return nil, err
		}
		return h.ingests.Explain(ctx, req.ProjectID, req.RelativePath)
	case "create_release":
		var req CreateReleaseParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.releases.Create(ctx, req.ProjectID, actorID, release.CreateRequest{
			Tag:             req.Tag,
			Description:     req.Description,
			ParentReleaseID: req.ParentReleaseID,
		})
	case "list_releases":
		var req ProjectScopedParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.requireMember(ctx, req.ProjectID, actorID); err != nil {
			return nil, err
		}
		releases, err := h.releases.List(ctx, req.ProjectID)
		if err != nil {
			return nil, err
		}
		if releases == nil {
			releases = []release.Release{}
		}
		return ListReleasesResponse{Releases: releases}, nil
	case "get_release":
		var req GetReleaseParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if strings.TrimSpace(req.ReleaseID) == "" {
			return nil, invalidParams("release_id is required")
		}
		rel, err := h.releases.Get(ctx, req.ReleaseID)
		if err != nil {
			return nil, err
		}
		if err := h.requireMember(ctx, rel.ProjectID, actorID); err != nil {
			return nil, err
		}
		return rel, nil
	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.requireMember(ctx, req.ProjectID, actorID); err != nil {
			return nil, err
		}
		entries, err := h.audit.List(ctx, audit.ListOptions{
			ProjectID: req.ProjectID,
			ActorID:   req.ActorID,
			TargetID:  req.TargetID,
			Action:    req.Action,
			Limit:     req.Limit,
			Offset:    req.Offset,
		})
		if err != nil {
			return nil, err
		}
		resp := GetRecentActivityResponse{Activity: make([]ActivityEntryResponse, 0, len(entries))}
		for _, entry := range entries {
			resp.Activity = append(resp.Activity, ActivityEntryResponse{
				Timestamp:  entry.CreatedAt,
				Action:     entry.Action,
				ActorID:    entry.ActorID,
				TargetType: entry.TargetType,
				TargetID:   entry.TargetID,
				Summary:    entry.Summary,
				Details:    entry.Details,
			})
		}
		return resp, nil
	default:
		return nil, &APIError{Code: CodeUnknownMethod, Message: fmt.Sprintf("unknown method: %s", method)}
	}
}

func (h *Handler) getSample(ctx context.Context, actorID string, req GetSampleParams) (*sample.View, error) {
	var (
		view *sample.View
		err  error
	)
	switch {
	case req.ID != "":
		view, err = h.samples.Get(ctx, req.ID)
	case req.ProjectID != "" && req.Identifier != "":
		if err := h.requireMember(ctx, req.ProjectID, actorID); err != nil {
			return nil, err
		}
		view, err = h.samples.GetByIdentifier(ctx, req.ProjectID, req.Identifier)
	default:
		return nil, invalidParams("id or project_id with sample_identifier is required")
	}
	if err != nil {
		return nil, err
	}
	if err := h.requireMember(ctx, view.ProjectID, actorID); err != nil {
		return nil, err
	}
	return view, nil
}

func (h *Handler) assignIngest(ctx context.Context, actorID string, req AssignIngestParams) (*AssignIngestResponse, error) {
	if req.CreateSample {
		ing, view, err := h.ingests.CreateSampleAndAssign(ctx, req.IngestID, actorID, sample.CreateRequest{
			Identifier:  req.SampleIdentifier,
			FieldValues: req.FieldValues,
		})
		if err != nil {
			return nil, err
		}
		return &AssignIngestResponse{Ingest: *ing, Sample: view}, nil
	}
	if req.SampleID == "" {
		return nil, invalidParams("sample_id is required unless create_sample is set")
	}
	ing, err := h.ingests.Assign(ctx, req.IngestID, req.SampleID, actorID)
	if err != nil {
		return nil, err
	}
	return &AssignIngestResponse{Ingest: *ing}, nil
}

// draft builds a DraftRequest, preferring Document when it is set.
func (p TemplateContentParams) draft() (rdmp.DraftRequest, error) {
	if p.Document != "" {
		return rdmp.ParseDocument([]byte(p.Document))
	}
	return rdmp.DraftRequest{Title: p.Title, Fields: p.Fields, Roles: p.Roles}, nil
}

func (h *Handler) requireMember(ctx context.Context, projectID, actorID string) error {
	if strings.TrimSpace(projectID) == "" {
		return invalidParams("project_id is required")
	}
	return h.authz.RequireMember(ctx, projectID, actorID)
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return invalidParams("invalid arguments: %v", err)
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
