package project

import (
	"context"

	"github.com/metafirst/supervisor/internal/domain/audit"
	"github.com/metafirst/supervisor/internal/domain/extraction"
)

// Repository provides persistence for projects.
type Repository interface {
	// Create stores the project and makes proj.CreatedBy its PI.
	Create(ctx context.Context, proj *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	// List returns the projects userID is a member of.
	List(ctx context.Context, userID string) ([]Project, error)
	SetExtractionRules(ctx context.Context, id string, rules []extraction.Rule) error
	SetIgnorePatterns(ctx context.Context, id string, patterns []string) error
}

// MemberRepository provides persistence for project membership.
type MemberRepository interface {
	// Put adds the member or changes its role.
	Put(ctx context.Context, m *Member) error
	Remove(ctx context.Context, projectID, userID string) error
	Get(ctx context.Context, projectID, userID string) (*Member, error)
	List(ctx context.Context, projectID string) ([]Member, error)
}

// StorageRootRepository provides persistence for storage roots.
type StorageRootRepository interface {
	Create(ctx context.Context, root *StorageRoot) error
	Get(ctx context.Context, id string) (*StorageRoot, error)
	List(ctx context.Context, projectID string) ([]StorageRoot, error)
}

// Authorizer checks project permissions.
type Authorizer interface {
	RequirePI(ctx context.Context, projectID, actorID string) error
}

// ActivityRepository records audit entries.
type ActivityRepository interface {
	Log(ctx context.Context, entry *audit.Entry) error
}
