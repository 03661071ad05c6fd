package rdmp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metafirst/supervisor/internal/domain/audit"
	"github.com/metafirst/supervisor/internal/domain/schema"
	"github.com/metafirst/supervisor/internal/repository"
)

// Service owns the DRAFT -> ACTIVE -> SUPERSEDED lifecycle of RDMP versions.
type Service struct {
	versions   Repository
	authz      Authorizer
	activities ActivityRepository
	metrics    Metrics
	templates  TemplateLookup
	locks      *keyedMutex
	logger     *slog.Logger
}

// NewService creates a new RDMP service.
func NewService(versions Repository, authz Authorizer, activities ActivityRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		versions:   versions,
		authz:      authz,
		activities: activities,
		locks:      newKeyedMutex(),
		logger:     logger,
	}
}

// WithMetrics attaches a metrics observer.
func (s *Service) WithMetrics(m Metrics) *Service {
	s.metrics = m
	return s
}

// WithTemplates lets drafts be created from template versions.
func (s *Service) WithTemplates(t TemplateLookup) *Service {
	s.templates = t
	return s
}

// DraftRequest carries the editable content of a version.
type DraftRequest struct {
	Title  string        `json:"title,omitempty"`
	Fields schema.Fields `json:"fields"`
	Roles  Roles         `json:"roles"`
}

// CreateDraft validates req and stores it as the project's next DRAFT.
func (s *Service) CreateDraft(ctx context.Context, projectID, actorID string, req DraftRequest) (*Version, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, ErrProjectNotFound
	}
	if err := s.authz.Require(ctx, projectID, actorID, ActionManageRDMP); err != nil {
		return nil, err
	}
	if err := validateDraft(req.Fields, req.Roles); err != nil {
		return nil, err
	}

	return s.storeDraft(ctx, projectID, actorID, req, nil)
}

// CreateDraftFromTemplate copies a template version into the project's next
// DRAFT and records which version it came from.
func (s *Service) CreateDraftFromTemplate(ctx context.Context, projectID, actorID, templateVersionID string) (*Version, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, ErrProjectNotFound
	}
	if err := s.authz.Require(ctx, projectID, actorID, ActionManageRDMP); err != nil {
		return nil, err
	}
	if s.templates == nil {
		return nil, ErrTemplateVersionNotFound
	}
	tv, err := s.templates.GetVersion(ctx, templateVersionID)
	if err != nil {
		return nil, err
	}
	req := DraftRequest{Title: tv.Title, Fields: tv.Fields, Roles: tv.Roles}
	if err := validateDraft(req.Fields, req.Roles); err != nil {
		return nil, err
	}
	return s.storeDraft(ctx, projectID, actorID, req, &tv.ID)
}

func (s *Service) storeDraft(ctx context.Context, projectID, actorID string, req DraftRequest, templateVersionID *string) (*Version, error) {
	now := time.Now().UTC()
	v := &Version{
		ID:                uuid.NewString(),
		ProjectID:         projectID,
		Title:             req.Title,
		Fields:            req.Fields.Clone(),
		Roles:             cloneRoles(req.Roles),
		State:             StateDraft,
		CreatedBy:         actorID,
		CreatedAt:         now,
		UpdatedAt:         now,
		TemplateVersionID: templateVersionID,
	}
	if err := s.versions.CreateDraft(ctx, v); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) || errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("creating rdmp draft: %w", err)
	}

	summary := fmt.Sprintf("created rdmp draft v%d", v.VersionInt)
	if templateVersionID != nil {
		summary += " from template version " + *templateVersionID
	}
	s.log(ctx, v, actorID, audit.ActionDraftCreated, summary)
	return v, nil
}

// UpdateDraft replaces the content of a DRAFT version.
func (s *Service) UpdateDraft(ctx context.Context, versionID, actorID string, req DraftRequest) (*Version, error) {
	current, err := s.Get(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Require(ctx, current.ProjectID, actorID, ActionManageRDMP); err != nil {
		return nil, err
	}
	if current.State != StateDraft {
		return nil, ErrNotDraft.WithDetails(fmt.Sprintf("version %d is %s", current.VersionInt, current.State))
	}
	if err := validateDraft(req.Fields, req.Roles); err != nil {
		return nil, err
	}

	updated := *current
	updated.Title = req.Title
	updated.Fields = req.Fields.Clone()
	updated.Roles = cloneRoles(req.Roles)
	updated.UpdatedAt = time.Now().UTC()
	if err := s.versions.UpdateDraft(ctx, &updated); err != nil {
		return nil, s.translateDraftErr(err, "updating rdmp draft")
	}

	s.log(ctx, &updated, actorID, audit.ActionDraftUpdated, fmt.Sprintf("updated rdmp draft v%d", updated.VersionInt))
	return &updated, nil
}

// DiscardDraft deletes a DRAFT version that was never activated.
func (s *Service) DiscardDraft(ctx context.Context, versionID, actorID string) error {
	current, err := s.Get(ctx, versionID)
	if err != nil {
		return err
	}
	if err := s.authz.Require(ctx, current.ProjectID, actorID, ActionManageRDMP); err != nil {
		return err
	}
	if current.State != StateDraft {
		return ErrNotDraft.WithDetails(fmt.Sprintf("version %d is %s", current.VersionInt, current.State))
	}
	if err := s.versions.DeleteDraft(ctx, versionID); err != nil {
		return s.translateDraftErr(err, "discarding rdmp draft")
	}

	s.log(ctx, current, actorID, audit.ActionDraftDiscarded, fmt.Sprintf("discarded rdmp draft v%d", current.VersionInt))
	return nil
}

// Activate makes a DRAFT the project's ACTIVE version. The previous ACTIVE
// version, if any, becomes SUPERSEDED in the same transaction.
func (s *Service) Activate(ctx context.Context, versionID, actorID string) (*Version, error) {
	start := time.Now()
	v, err := s.activate(ctx, versionID, actorID)
	if s.metrics != nil {
		s.metrics.ObserveActivation(outcome(err), time.Since(start))
	}
	return v, err
}

func (s *Service) activate(ctx context.Context, versionID, actorID string) (*Version, error) {
	target, err := s.Get(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequirePI(ctx, target.ProjectID, actorID); err != nil {
		return nil, err
	}
	if target.State != StateDraft {
		return nil, ErrNotDraft.WithDetails(fmt.Sprintf("version %d is %s", target.VersionInt, target.State))
	}

	unlock := s.locks.Lock(target.ProjectID)
	defer unlock()

	previous, err := s.ResolveActive(ctx, target.ProjectID)
	if err != nil {
		return nil, err
	}

	activated, err := s.versions.Activate(ctx, versionID, actorID, time.Now().UTC())
	if err != nil {
		return nil, s.translateDraftErr(err, "activating rdmp version")
	}

	var before any
	if previous != nil {
		before = map[string]any{"active_version_id": previous.ID, "active_version_int": previous.VersionInt}
	}
	s.logger.Info("rdmp version activated",
		"project_id", activated.ProjectID,
		"version_id", activated.ID,
		"version_int", activated.VersionInt,
		"actor_id", actorID,
	)
	if s.activities != nil {
		_ = s.activities.Log(ctx, &audit.Entry{
			ProjectID:  activated.ProjectID,
			ActorID:    actorID,
			Action:     audit.ActionVersionActivated,
			TargetType: "rdmp_version",
			TargetID:   activated.ID,
			Summary:    fmt.Sprintf("activated rdmp v%d", activated.VersionInt),
			Details:    audit.Details(before, map[string]any{"active_version_id": activated.ID, "active_version_int": activated.VersionInt}),
		})
	}
	return activated, nil
}

// ResolveActive returns the project's ACTIVE version, or nil when the
// project is non-operational.
func (s *Service) ResolveActive(ctx context.Context, projectID string) (*Version, error) {
	v, err := s.versions.GetActive(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolving active rdmp version: %w", err)
	}
	return v, nil
}

// RequireActive is ResolveActive for callers that cannot proceed without a
// schema.
func (s *Service) RequireActive(ctx context.Context, projectID string) (*Version, error) {
	v, err := s.ResolveActive(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrNoActiveVersion
	}
	return v, nil
}

// Get fetches a version by ID.
func (s *Service) Get(ctx context.Context, versionID string) (*Version, error) {
	v, err := s.versions.Get(ctx, versionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("getting rdmp version: %w", err)
	}
	return v, nil
}

// List returns a project's versions, newest first.
func (s *Service) List(ctx context.Context, projectID string) ([]Version, error) {
	versions, err := s.versions.List(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing rdmp versions: %w", err)
	}
	return versions, nil
}

func (s *Service) translateDraftErr(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrVersionNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrNotDraft
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Service) log(ctx context.Context, v *Version, actorID string, action audit.Action, summary string) {
	s.logger.Debug(summary, "project_id", v.ProjectID, "version_id", v.ID, "actor_id", actorID)
	if s.activities == nil {
		return
	}
	_ = s.activities.Log(ctx, &audit.Entry{
		ProjectID:  v.ProjectID,
		ActorID:    actorID,
		Action:     action,
		TargetType: "rdmp_version",
		TargetID:   v.ID,
		Summary:    summary,
	})
}

func cloneRoles(roles Roles) Roles {
	if roles == nil {
		return nil
	}
	out := make(Roles, len(roles))
	for i, role := range roles {
		perms := make(map[Action]bool, len(role.Permissions))
		for action, granted := range role.Permissions {
			perms[action] = granted
		}
		out[i] = Role{Name: strings.TrimSpace(role.Name), Permissions: perms}
	}
	return out
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
