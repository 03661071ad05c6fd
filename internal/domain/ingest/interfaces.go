package ingest

import (
	"context"
	"time"

	"github.com/metafirst/supervisor/internal/domain/audit"
	"github.com/metafirst/supervisor/internal/domain/project"
	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/domain/sample"
)

// Repository provides persistence for pending ingests.
type Repository interface {
	// Report inserts the ingest, or refreshes size, hash and observation time
	// of the existing row for the same storage root and path. It returns the
	// stored row and whether it was created.
	Report(ctx context.Context, ing *PendingIngest) (*PendingIngest, bool, error)
	Get(ctx context.Context, id string) (*PendingIngest, error)
	List(ctx context.Context, opts ListOptions) ([]PendingIngest, error)
	// ProjectsWithUnresolved returns IDs of projects with PENDING or MATCHED
	// ingests.
	ProjectsWithUnresolved(ctx context.Context) ([]string, error)
	// UpdateClassification applies out only while the row is still PENDING
	// or MATCHED and reports whether it did.
	UpdateClassification(ctx context.Context, id string, out Outcome, at time.Time) (bool, error)
	// Assign binds the ingest to sampleID. Re-assigning the same sample is a
	// no-op; a different sample yields repository.ErrConflict.
	Assign(ctx context.Context, id, sampleID, actorID string, at time.Time) (*PendingIngest, error)
	// Ignore marks a non-ASSIGNED ingest IGNORED, else repository.ErrConflict.
	Ignore(ctx context.Context, id, actorID, reason string, at time.Time) (*PendingIngest, error)
	CountAssigned(ctx context.Context, sampleID string) (int, error)
}

// ProjectLookup loads projects.
type ProjectLookup interface {
	Get(ctx context.Context, id string) (*project.Project, error)
}

// StorageRootLookup loads storage roots.
type StorageRootLookup interface {
	Get(ctx context.Context, id string) (*project.StorageRoot, error)
}

// SampleLookup loads samples.
type SampleLookup interface {
	Get(ctx context.Context, id string) (*sample.Sample, error)
	GetByIdentifier(ctx context.Context, projectID, identifier string) (*sample.Sample, error)
}

// SampleCreator registers new samples.
type SampleCreator interface {
	Create(ctx context.Context, projectID, actorID string, req sample.CreateRequest) (*sample.View, error)
}

// ActiveResolver resolves a project's ACTIVE RDMP version, nil if none.
type ActiveResolver interface {
	ResolveActive(ctx context.Context, projectID string) (*rdmp.Version, error)
}

// Authorizer checks project permissions.
type Authorizer interface {
	RequireMember(ctx context.Context, projectID, actorID string) error
	Require(ctx context.Context, projectID, actorID string, action rdmp.Action) error
}

// ActivityRepository records audit entries.
type ActivityRepository interface {
	Log(ctx context.Context, entry *audit.Entry) error
}

// Metrics observes classification and sweeps.
type Metrics interface {
	ObserveClassification(status string)
	ObserveSweep(d time.Duration, examined int, err error)
}
