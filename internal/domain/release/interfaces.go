package release

import (
	"context"

	"github.com/metafirst/supervisor/internal/domain/audit"
	"github.com/metafirst/supervisor/internal/domain/ingest"
	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/domain/sample"
)

// Repository provides persistence for releases.
type Repository interface {
	// Create returns repository.ErrUniqueViolation when the project already
	// has a release with the same tag.
	Create(ctx context.Context, r *Release) error
	// Get loads the release with its snapshot.
	Get(ctx context.Context, id string) (*Release, error)
	// List returns the project's releases without snapshots, newest first.
	List(ctx context.Context, projectID string) ([]Release, error)
}

// ActiveResolver resolves the version a release is pinned to.
type ActiveResolver interface {
	RequireActive(ctx context.Context, projectID string) (*rdmp.Version, error)
}

// SampleLister lists the samples a release captures.
type SampleLister interface {
	List(ctx context.Context, projectID string, opts sample.ListOptions) ([]sample.View, error)
}

// FileLister lists a project's ingests by status.
type FileLister interface {
	List(ctx context.Context, projectID string, statuses ...ingest.Status) ([]ingest.PendingIngest, error)
}

// Authorizer checks project permissions.
type Authorizer interface {
	Require(ctx context.Context, projectID, actorID string, action rdmp.Action) error
}

// ActivityRepository records audit entries.
type ActivityRepository interface {
	Log(ctx context.Context, entry *audit.Entry) error
}
