package rdmp

import (
	"context"
	"time"

	"github.com/metafirst/supervisor/internal/domain/audit"
)

// Repository provides persistence for RDMP versions.
type Repository interface {
	// CreateDraft stores v and assigns v.VersionInt from the project's
	// version counter in the same transaction.
	CreateDraft(ctx context.Context, v *Version) error
	Get(ctx context.Context, id string) (*Version, error)
	// GetActive returns repository.ErrNotFound when no version is ACTIVE.
	GetActive(ctx context.Context, projectID string) (*Version, error)
	List(ctx context.Context, projectID string) ([]Version, error)
	// UpdateDraft and DeleteDraft return repository.ErrConflict when the
	// stored version is no longer a DRAFT.
	UpdateDraft(ctx context.Context, v *Version) error
	DeleteDraft(ctx context.Context, id string) error
	// Activate supersedes the current ACTIVE version, activates versionID
	// and repoints the project in one transaction.
	Activate(ctx context.Context, versionID, approvedBy string, at time.Time) (*Version, error)
}

// TemplateRepository provides persistence for RDMP templates.
type TemplateRepository interface {
	// Create stores t together with its first version.
	Create(ctx context.Context, t *Template, first *TemplateVersion) error
	// AddVersion stores v numbered after the template's latest version.
	// It returns repository.ErrNotFound when the template doesn't exist.
	AddVersion(ctx context.Context, v *TemplateVersion) error
	Get(ctx context.Context, id string) (*Template, error)
	List(ctx context.Context) ([]Template, error)
	// ListVersions returns a template's versions, newest first.
	ListVersions(ctx context.Context, templateID string) ([]TemplateVersion, error)
	GetVersion(ctx context.Context, id string) (*TemplateVersion, error)
}

// TemplateLookup resolves template versions for draft creation.
type TemplateLookup interface {
	GetVersion(ctx context.Context, id string) (*TemplateVersion, error)
}

// Authorizer checks project permissions.
type Authorizer interface {
	RequirePI(ctx context.Context, projectID, actorID string) error
	Require(ctx context.Context, projectID, actorID string, action Action) error
}

// ActivityRepository records audit entries.
type ActivityRepository interface {
	Log(ctx context.Context, entry *audit.Entry) error
}

// Metrics observes lifecycle transitions.
type Metrics interface {
	ObserveActivation(outcome string, d time.Duration)
}
