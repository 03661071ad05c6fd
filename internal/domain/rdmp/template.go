package rdmp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metafirst/supervisor/internal/domain/schema"
	"github.com/metafirst/supervisor/internal/repository"
)

// Template is a reusable RDMP definition shared across projects.
type Template struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	CreatedBy   string            `json:"created_by"`
	CreatedAt   time.Time         `json:"created_at"`
	Versions    []TemplateVersion `json:"versions,omitempty"`
}

// TemplateVersion is one immutable revision of a template.
type TemplateVersion struct {
	ID         string        `json:"id"`
	TemplateID string        `json:"template_id"`
	VersionInt int64         `json:"version_int"`
	Title      string        `json:"title,omitempty"`
	Fields     schema.Fields `json:"fields"`
	Roles      Roles         `json:"roles"`
	CreatedBy  string        `json:"created_by"`
	CreatedAt  time.Time     `json:"created_at"`
}

// TemplateRequest describes a new template and its first version.
type TemplateRequest struct {
	Name        string
	Description string
	Draft       DraftRequest
}

// TemplateService manages RDMP templates. Any authenticated user may
// publish templates; they only take effect once copied into a project draft.
type TemplateService struct {
	templates TemplateRepository
	logger    *slog.Logger
}

// NewTemplateService creates a new template service.
func NewTemplateService(templates TemplateRepository, logger *slog.Logger) *TemplateService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TemplateService{templates: templates, logger: logger}
}

// Create validates req and stores the template with version 1.
func (s *TemplateService) Create(ctx context.Context, actorID string, req TemplateRequest) (*Template, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidTemplate.WithDetails("template name is required")
	}
	if err := validateDraft(req.Draft.Fields, req.Draft.Roles); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &Template{
		ID:          uuid.NewString(),
		Name:        name,
		Description: req.Description,
		CreatedBy:   actorID,
		CreatedAt:   now,
	}
	first := newTemplateVersion(t.ID, actorID, req.Draft, now)
	if err := s.templates.Create(ctx, t, first); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, ErrDuplicateTemplate.WithDetails(name)
		}
		return nil, fmt.Errorf("creating rdmp template: %w", err)
	}

	s.logger.Info("rdmp template created", "template_id", t.ID, "name", name, "actor_id", actorID)
	t.Versions = []TemplateVersion{*first}
	return t, nil
}

// AddVersion stores a new revision of a template.
func (s *TemplateService) AddVersion(ctx context.Context, templateID, actorID string, req DraftRequest) (*TemplateVersion, error) {
	if strings.TrimSpace(templateID) == "" {
		return nil, ErrTemplateNotFound
	}
	if err := validateDraft(req.Fields, req.Roles); err != nil {
		return nil, err
	}

	v := newTemplateVersion(templateID, actorID, req, time.Now().UTC())
	if err := s.templates.AddVersion(ctx, v); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("adding rdmp template version: %w", err)
	}

	s.logger.Info("rdmp template version added",
		"template_id", templateID,
		"version_int", v.VersionInt,
		"actor_id", actorID,
	)
	return v, nil
}

// Get returns a template with its versions, newest first.
func (s *TemplateService) Get(ctx context.Context, id string) (*Template, error) {
	t, err := s.templates.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("getting rdmp template: %w", err)
	}
	if err := s.fillVersions(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns every template ordered by name, each with its versions.
func (s *TemplateService) List(ctx context.Context) ([]Template, error) {
	templates, err := s.templates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing rdmp templates: %w", err)
	}
	for i := range templates {
		if err := s.fillVersions(ctx, &templates[i]); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

// GetVersion fetches one template version.
func (s *TemplateService) GetVersion(ctx context.Context, id string) (*TemplateVersion, error) {
	v, err := s.templates.GetVersion(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateVersionNotFound
		}
		return nil, fmt.Errorf("getting rdmp template version: %w", err)
	}
	return v, nil
}

func (s *TemplateService) fillVersions(ctx context.Context, t *Template) error {
	versions, err := s.templates.ListVersions(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("listing rdmp template versions: %w", err)
	}
	t.Versions = versions
	return nil
}

func newTemplateVersion(templateID, actorID string, req DraftRequest, at time.Time) *TemplateVersion {
	return &TemplateVersion{
		ID:         uuid.NewString(),
		TemplateID: templateID,
		Title:      req.Title,
		Fields:     req.Fields.Clone(),
		Roles:      cloneRoles(req.Roles),
		CreatedBy:  actorID,
		CreatedAt:  at,
	}
}
