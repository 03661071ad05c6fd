package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metafirst/supervisor/internal/domain/audit"
	"github.com/metafirst/supervisor/internal/domain/extraction"
	"github.com/metafirst/supervisor/internal/repository"
)

// Service handles project operations.
type Service struct {
	repo       Repository
	members    MemberRepository
	roots      StorageRootRepository
	authz      Authorizer
	activities ActivityRepository
	logger     *slog.Logger
}

// NewService creates a new project service.
func NewService(
	repo Repository,
	members MemberRepository,
	roots StorageRootRepository,
	authz Authorizer,
	activities ActivityRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		members:    members,
		roots:      roots,
		authz:      authz,
		activities: activities,
		logger:     logger,
	}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	ID              string
	Name            string
	Description     string
	SupervisorID    string
	ExtractionRules []extraction.Rule
	IgnorePatterns  []string
}

// Create creates a new project. The creator becomes its PI.
func (s *Service) Create(ctx context.Context, actorID string, req CreateRequest) (*Project, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalidInput.WithDetails("name is required")
	}
	if strings.TrimSpace(actorID) == "" {
		return nil, ErrInvalidInput.WithDetails("creator is required")
	}
	if _, err := extraction.Compile(req.ExtractionRules); err != nil {
		return nil, err
	}
	if _, err := extraction.CompilePatterns(req.IgnorePatterns); err != nil {
		return nil, err
	}

	id := req.ID
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	now := time.Now().UTC()
	proj := &Project{
		ID:              id,
		Name:            req.Name,
		Description:     req.Description,
		SupervisorID:    req.SupervisorID,
		ExtractionRules: nonNilRules(req.ExtractionRules),
		IgnorePatterns:  nonNilStrings(req.IgnorePatterns),
		CreatedBy:       actorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, proj); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, ErrInvalidInput.WithDetails(fmt.Sprintf("project id %q already exists", id))
		}
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.log(ctx, proj.ID, actorID, audit.ActionProjectCreated, "project", proj.ID, fmt.Sprintf("created project %s", proj.Name), "")
	return proj, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// List returns the projects the user belongs to.
func (s *Service) List(ctx context.Context, userID string) ([]Project, error) {
	projects, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// SetExtractionRules replaces the project's ordered extraction rules. Every
// rule is compiled first; nothing is stored if any is malformed.
func (s *Service) SetExtractionRules(ctx context.Context, projectID, actorID string, rules []extraction.Rule) (*Project, error) {
	proj, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequirePI(ctx, projectID, actorID); err != nil {
		return nil, err
	}
	if _, err := extraction.Compile(rules); err != nil {
		return nil, err
	}

	rules = nonNilRules(rules)
	if err := s.repo.SetExtractionRules(ctx, projectID, rules); err != nil {
		return nil, s.translateErr(err, "setting extraction rules")
	}

	before := proj.ExtractionRules
	proj.ExtractionRules = rules
	s.log(ctx, projectID, actorID, audit.ActionProjectRulesSet, "project", projectID,
		fmt.Sprintf("set %d extraction rules", len(rules)), audit.Details(before, rules))
	return proj, nil
}

// SetIgnorePatterns replaces the patterns of files that are never matched.
func (s *Service) SetIgnorePatterns(ctx context.Context, projectID, actorID string, patterns []string) (*Project, error) {
	proj, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequirePI(ctx, projectID, actorID); err != nil {
		return nil, err
	}
	if _, err := extraction.CompilePatterns(patterns); err != nil {
		return nil, err
	}

	patterns = nonNilStrings(patterns)
	if err := s.repo.SetIgnorePatterns(ctx, projectID, patterns); err != nil {
		return nil, s.translateErr(err, "setting ignore patterns")
	}

	before := proj.IgnorePatterns
	proj.IgnorePatterns = patterns
	s.log(ctx, projectID, actorID, audit.ActionIgnorePatternsSet, "project", projectID,
		fmt.Sprintf("set %d ignore patterns", len(patterns)), audit.Details(before, patterns))
	return proj, nil
}

// AddMember adds a user to the project or changes their role.
func (s *Service) AddMember(ctx context.Context, projectID, actorID, userID, role string) (*Member, error) {
	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}
	if err := s.authz.RequirePI(ctx, projectID, actorID); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	role = strings.TrimSpace(role)
	if userID == "" || role == "" {
		return nil, ErrInvalidInput.WithDetails("user id and role are required")
	}

	existing, err := s.members.Get(ctx, projectID, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("loading member: %w", err)
	}
	if existing != nil && existing.Role == RolePI && role != RolePI {
		if err := s.ensureAnotherPI(ctx, projectID, userID); err != nil {
			return nil, err
		}
	}

	m := &Member{ProjectID: projectID, UserID: userID, Role: role, CreatedAt: time.Now().UTC()}
	if existing != nil {
		m.CreatedAt = existing.CreatedAt
	}
	if err := s.members.Put(ctx, m); err != nil {
		return nil, s.translateErr(err, "adding member")
	}

	s.log(ctx, projectID, actorID, audit.ActionMemberAdded, "member", userID, fmt.Sprintf("set %s role to %s", userID, role), "")
	return m, nil
}

// RemoveMember removes a user from the project. The last PI cannot leave.
func (s *Service) RemoveMember(ctx context.Context, projectID, actorID, userID string) error {
	if err := s.authz.RequirePI(ctx, projectID, actorID); err != nil {
		return err
	}
	existing, err := s.GetMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if existing.Role == RolePI {
		if err := s.ensureAnotherPI(ctx, projectID, userID); err != nil {
			return err
		}
	}
	if err := s.members.Remove(ctx, projectID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("removing member: %w", err)
	}

	s.log(ctx, projectID, actorID, audit.ActionMemberRemoved, "member", userID, fmt.Sprintf("removed %s", userID), "")
	return nil
}

// GetMember returns the user's membership.
func (s *Service) GetMember(ctx context.Context, projectID, userID string) (*Member, error) {
	m, err := s.members.Get(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("getting member: %w", err)
	}
	return m, nil
}

// ListMembers returns the project's members.
func (s *Service) ListMembers(ctx context.Context, projectID string) ([]Member, error) {
	members, err := s.members.List(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return members, nil
}

// CreateStorageRoot registers a storage root. Names are unique per project.
func (s *Service) CreateStorageRoot(ctx context.Context, projectID, actorID, name, description string) (*StorageRoot, error) {
	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}
	if err := s.authz.RequirePI(ctx, projectID, actorID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput.WithDetails("storage root name is required")
	}

	root := &StorageRoot{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.roots.Create(ctx, root); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, ErrDuplicateStorageRoot.WithDetails(name)
		}
		return nil, s.translateErr(err, "creating storage root")
	}

	s.log(ctx, projectID, actorID, audit.ActionStorageRootCreated, "storage_root", root.ID, fmt.Sprintf("created storage root %s", name), "")
	return root, nil
}

// GetStorageRoot fetches a storage root by ID.
func (s *Service) GetStorageRoot(ctx context.Context, id string) (*StorageRoot, error) {
	root, err := s.roots.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStorageRootNotFound
		}
		return nil, fmt.Errorf("getting storage root: %w", err)
	}
	return root, nil
}

// ListStorageRoots returns the project's storage roots.
func (s *Service) ListStorageRoots(ctx context.Context, projectID string) ([]StorageRoot, error) {
	roots, err := s.roots.List(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing storage roots: %w", err)
	}
	return roots, nil
}

func (s *Service) ensureAnotherPI(ctx context.Context, projectID, userID string) error {
	members, err := s.ListMembers(ctx, projectID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.Role == RolePI && m.UserID != userID {
			return nil
		}
	}
	return ErrLastPI
}

func (s *Service) translateErr(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrForeignKeyViolation):
		return ErrProjectNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Service) log(ctx context.Context, projectID, actorID string, action audit.Action, targetType, targetID, summary, details string) {
	if s.logger != nil {
		s.logger.Debug(summary, "project_id", projectID, "actor_id", actorID)
	}
	if s.activities == nil {
		return
	}
	_ = s.activities.Log(ctx, &audit.Entry{
		ProjectID:  projectID,
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Summary:    summary,
		Details:    details,
	})
}

func nonNilRules(rules []extraction.Rule) []extraction.Rule {
	if rules == nil {
		return []extraction.Rule{}
	}
	return rules
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
