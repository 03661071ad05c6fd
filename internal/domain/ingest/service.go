package ingest

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metafirst/supervisor/internal/domain/audit"
	"github.com/metafirst/supervisor/internal/domain/extraction"
	"github.com/metafirst/supervisor/internal/domain/project"
	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/domain/sample"
	"github.com/metafirst/supervisor/internal/repository"
)

const defaultSweepWorkers = 4

// Service matches watcher-reported files against the sample registry.
type Service struct {
	ingests    Repository
	projects   ProjectLookup
	roots      StorageRootLookup
	samples    SampleLookup
	creator    SampleCreator
	active     ActiveResolver
	authz      Authorizer
	activities ActivityRepository
	metrics    Metrics
	workers    int
	logger     *slog.Logger
}

// Deps groups the collaborators of the ingest service.
type Deps struct {
	Ingests    Repository
	Projects   ProjectLookup
	Roots      StorageRootLookup
	Samples    SampleLookup
	Creator    SampleCreator
	Active     ActiveResolver
	Authz      Authorizer
	Activities ActivityRepository
	Metrics    Metrics
	// SweepWorkers bounds how many projects a sweep processes at once.
	SweepWorkers int
}

// NewService creates a new ingest service.
func NewService(deps Deps, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	workers := deps.SweepWorkers
	if workers <= 0 {
		workers = defaultSweepWorkers
	}
	return &Service{
		ingests:    deps.Ingests,
		projects:   deps.Projects,
		roots:      deps.Roots,
		samples:    deps.Samples,
		creator:    deps.Creator,
		active:     deps.Active,
		authz:      deps.Authz,
		activities: deps.Activities,
		metrics:    deps.Metrics,
		workers:    workers,
		logger:     logger,
	}
}

// Report records a watcher's file event and classifies it. Reporting the
// same storage root and path again refreshes the existing ingest.
func (s *Service) Report(ctx context.Context, actorID string, ev FileEvent) (*PendingIngest, error) {
	proj, err := s.loadProject(ctx, ev.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireMember(ctx, proj.ID, actorID); err != nil {
		return nil, err
	}
	root, err := s.roots.Get(ctx, ev.StorageRootID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStorageRootNotFound
		}
		return nil, fmt.Errorf("getting storage root: %w", err)
	}
	if root.ProjectID != proj.ID {
		return nil, ErrStorageRootNotFound.WithDetails(fmt.Sprintf("storage root %s is not part of project %s", root.ID, proj.ID))
	}

	relPath, err := NormalizePath(ev.RelativePath)
	if err != nil {
		return nil, err
	}
	if ev.FileSizeBytes < 0 {
		return nil, ErrInvalidEvent.WithDetails("file size must not be negative")
	}
	var hash *string
	if h := strings.ToLower(strings.TrimSpace(ev.FileHashSHA256)); h != "" {
		if decoded, err := hex.DecodeString(h); err != nil || len(decoded) != 32 {
			return nil, ErrInvalidEvent.WithDetails("file hash must be 64 hex characters")
		}
		hash = &h
	}

	now := time.Now().UTC()
	observed := ev.ObservedAt.UTC()
	if ev.ObservedAt.IsZero() {
		observed = now
	}
	stored, created, err := s.ingests.Report(ctx, &PendingIngest{
		ID:             uuid.NewString(),
		ProjectID:      proj.ID,
		StorageRootID:  root.ID,
		RelativePath:   relPath,
		FileSizeBytes:  ev.FileSizeBytes,
		FileHashSHA256: hash,
		ObservedAt:     observed,
		ReportedBy:     actorID,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("recording pending ingest: %w", err)
	}
	if created {
		s.log(ctx, stored, actorID, audit.ActionIngestReported, fmt.Sprintf("reported %s", stored.RelativePath), "")
	}

	if stored.Status.Final() {
		return stored, nil
	}
	state, err := s.projectState(ctx, proj)
	if err != nil {
		return nil, err
	}
	if _, err := s.classify(ctx, stored, state); err != nil {
		return nil, err
	}
	return stored, nil
}

// Classify re-runs automatic classification on one ingest. ASSIGNED and
// IGNORED ingests are returned unchanged.
func (s *Service) Classify(ctx context.Context, id string) (*PendingIngest, error) {
	ing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ing.Status.Final() {
		return ing, nil
	}
	proj, err := s.loadProject(ctx, ing.ProjectID)
	if err != nil {
		return nil, err
	}
	state, err := s.projectState(ctx, proj)
	if err != nil {
		return nil, err
	}
	if _, err := s.classify(ctx, ing, state); err != nil {
		return nil, err
	}
	return ing, nil
}

// classify decides and persists the outcome for ing, updating it in place.
// It reports whether the stored row changed.
func (s *Service) classify(ctx context.Context, ing *PendingIngest, state ProjectState) (bool, error) {
	out, err := Classify(ing.RelativePath, state, s.finder(ctx, ing.ProjectID))
	if err != nil {
		return false, fmt.Errorf("classifying ingest %s: %w", ing.ID, err)
	}
	if s.metrics != nil {
		s.metrics.ObserveClassification(string(out.Status))
	}
	if !out.Differs(ing) {
		return false, nil
	}

	now := time.Now().UTC()
	applied, err := s.ingests.UpdateClassification(ctx, ing.ID, out, now)
	if err != nil {
		return false, fmt.Errorf("updating classification: %w", err)
	}
	if !applied {
		// A concurrent assign or ignore won; report the stored state.
		current, err := s.Get(ctx, ing.ID)
		if err != nil {
			return false, err
		}
		*ing = *current
		return false, nil
	}

	out.Apply(ing)
	ing.ClassifiedAt = &now
	ing.UpdatedAt = now
	s.logger.Debug("ingest classified",
		"ingest_id", ing.ID,
		"project_id", ing.ProjectID,
		"status", ing.Status,
		"reason", ing.Reason,
	)
	return true, nil
}

func (s *Service) finder(ctx context.Context, projectID string) SampleFinder {
	return func(identifier string) (string, bool, error) {
		smp, err := s.samples.GetByIdentifier(ctx, projectID, identifier)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return "", false, nil
			}
			return "", false, err
		}
		return smp.ID, true, nil
	}
}

func (s *Service) projectState(ctx context.Context, proj *project.Project) (ProjectState, error) {
	active, err := s.active.ResolveActive(ctx, proj.ID)
	if err != nil {
		return ProjectState{}, fmt.Errorf("resolving active rdmp version: %w", err)
	}
	rules, err := extraction.Compile(proj.ExtractionRules)
	if err != nil {
		return ProjectState{}, fmt.Errorf("compiling stored extraction rules for %s: %w", proj.ID, err)
	}
	ignore, err := extraction.CompilePatterns(proj.IgnorePatterns)
	if err != nil {
		return ProjectState{}, fmt.Errorf("compiling stored ignore patterns for %s: %w", proj.ID, err)
	}
	return ProjectState{Operational: active != nil, Rules: rules, Ignore: ignore}, nil
}

// Assign binds an ingest to a sample of the same project. Assigning the same
// sample again is a no-op.
func (s *Service) Assign(ctx context.Context, ingestID, sampleID, actorID string) (*PendingIngest, error) {
	ing, err := s.Get(ctx, ingestID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Require(ctx, ing.ProjectID, actorID, rdmp.ActionEditPaths); err != nil {
		return nil, err
	}
	smp, err := s.samples.Get(ctx, sampleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSampleNotFound
		}
		return nil, fmt.Errorf("getting sample: %w", err)
	}
	if smp.ProjectID != ing.ProjectID {
		return nil, ErrCrossProject
	}

	if ing.Status == StatusAssigned {
		if ing.SampleID != nil && *ing.SampleID == sampleID {
			return ing, nil
		}
		return nil, ErrAlreadyAssigned
	}

	active, err := s.active.ResolveActive(ctx, ing.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("resolving active rdmp version: %w", err)
	}
	if active == nil {
		return nil, ErrNoActiveSchema
	}

	before := ing.Status
	assigned, err := s.ingests.Assign(ctx, ingestID, sampleID, actorID, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrAlreadyAssigned
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrIngestNotFound
		}
		return nil, fmt.Errorf("assigning ingest: %w", err)
	}

	s.log(ctx, assigned, actorID, audit.ActionIngestAssigned,
		fmt.Sprintf("assigned %s to %s", assigned.RelativePath, smp.Identifier),
		audit.Details(map[string]any{"status": before}, map[string]any{"status": assigned.Status, "sample_id": sampleID}))
	return assigned, nil
}

// CreateSampleAndAssign creates a sample, by default named after the
// ingest's inferred identifier, and assigns the ingest to it.
func (s *Service) CreateSampleAndAssign(ctx context.Context, ingestID, actorID string, req sample.CreateRequest) (*PendingIngest, *sample.View, error) {
	ing, err := s.Get(ctx, ingestID)
	if err != nil {
		return nil, nil, err
	}
	if ing.Status == StatusAssigned {
		return nil, nil, ErrAlreadyAssigned
	}
	if err := s.authz.Require(ctx, ing.ProjectID, actorID, rdmp.ActionEditPaths); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(req.Identifier) == "" {
		if ing.InferredSampleIdentifier == nil {
			return nil, nil, ErrNoSuggestedIdentifier
		}
		req.Identifier = *ing.InferredSampleIdentifier
	}

	view, err := s.creator.Create(ctx, ing.ProjectID, actorID, req)
	if err != nil {
		return nil, nil, err
	}
	assigned, err := s.Assign(ctx, ingestID, view.ID, actorID)
	if err != nil {
		return nil, view, err
	}
	return assigned, view, nil
}

// Ignore marks an ingest IGNORED by human decision.
func (s *Service) Ignore(ctx context.Context, ingestID, actorID, reason string) (*PendingIngest, error) {
	ing, err := s.Get(ctx, ingestID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Require(ctx, ing.ProjectID, actorID, rdmp.ActionEditPaths); err != nil {
		return nil, err
	}
	if ing.Status == StatusAssigned {
		return nil, ErrAssigned
	}
	if strings.TrimSpace(reason) == "" {
		reason = "ignored by " + actorID
	}

	ignored, err := s.ingests.Ignore(ctx, ingestID, actorID, reason, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrAssigned
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrIngestNotFound
		}
		return nil, fmt.Errorf("ignoring ingest: %w", err)
	}
	s.log(ctx, ignored, actorID, audit.ActionIngestIgnored, fmt.Sprintf("ignored %s", ignored.RelativePath), "")
	return ignored, nil
}

// Get fetches a pending ingest by ID.
func (s *Service) Get(ctx context.Context, id string) (*PendingIngest, error) {
	ing, err := s.ingests.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIngestNotFound
		}
		return nil, fmt.Errorf("getting pending ingest: %w", err)
	}
	return ing, nil
}

// List returns a project's ingests, optionally filtered by status.
func (s *Service) List(ctx context.Context, projectID string, statuses ...Status) ([]PendingIngest, error) {
	ingests, err := s.ingests.List(ctx, ListOptions{ProjectID: projectID, Statuses: statuses})
	if err != nil {
		return nil, fmt.Errorf("listing pending ingests: %w", err)
	}
	return ingests, nil
}

// ListBySample returns the ingests assigned to a sample.
func (s *Service) ListBySample(ctx context.Context, sampleID string) ([]PendingIngest, error) {
	ingests, err := s.ingests.List(ctx, ListOptions{SampleID: sampleID, Statuses: []Status{StatusAssigned}})
	if err != nil {
		return nil, fmt.Errorf("listing pending ingests: %w", err)
	}
	return ingests, nil
}

// Explanation shows how a path would be classified in a project.
type Explanation struct {
	RelativePath    string               `json:"relative_path"`
	Outcome         string               `json:"outcome"`
	Reason          string               `json:"reason"`
	Identifier      *string              `json:"identifier"`
	MatchedSampleID *string              `json:"matched_sample_id,omitempty"`
	Attempts        []extraction.Attempt `json:"attempts"`
}

// Explain classifies path without storing anything and includes the
// per-rule extraction trace.
func (s *Service) Explain(ctx context.Context, projectID, relativePath string) (*Explanation, error) {
	proj, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	relPath, err := NormalizePath(relativePath)
	if err != nil {
		return nil, err
	}
	state, err := s.projectState(ctx, proj)
	if err != nil {
		return nil, err
	}
	out, err := Classify(relPath, state, s.finder(ctx, projectID))
	if err != nil {
		return nil, fmt.Errorf("classifying path: %w", err)
	}
	attempts := state.Rules.Explain(relPath)
	if attempts == nil {
		attempts = []extraction.Attempt{}
	}
	return &Explanation{
		RelativePath:    relPath,
		Outcome:         string(out.Status),
		Reason:          out.Reason,
		Identifier:      out.InferredSampleIdentifier,
		MatchedSampleID: out.MatchedSampleID,
		Attempts:        attempts,
	}, nil
}

func (s *Service) loadProject(ctx context.Context, id string) (*project.Project, error) {
	proj, err := s.projects.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

func (s *Service) log(ctx context.Context, ing *PendingIngest, actorID string, action audit.Action, summary, details string) {
	s.logger.Debug(summary, "project_id", ing.ProjectID, "ingest_id", ing.ID, "actor_id", actorID)
	if s.activities == nil {
		return
	}
	_ = s.activities.Log(ctx, &audit.Entry{
		ProjectID:  ing.ProjectID,
		ActorID:    actorID,
		Action:     action,
		TargetType: "pending_ingest",
		TargetID:   ing.ID,
		Summary:    summary,
		Details:    details,
	})
}
