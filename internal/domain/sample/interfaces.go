package sample

import (
	"context"
	"time"

	"github.com/metafirst/supervisor/internal/domain/audit"
	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/domain/schema"
)

// Repository provides persistence for samples and their field values.
type Repository interface {
	// Create stores the sample with its initial field values.
	Create(ctx context.Context, s *Sample) error
	Get(ctx context.Context, id string) (*Sample, error)
	GetByIdentifier(ctx context.Context, projectID, identifier string) (*Sample, error)
	List(ctx context.Context, projectID string) ([]Sample, error)
	// SetFieldValue writes one value; a null value deletes it.
	SetFieldValue(ctx context.Context, sampleID, key string, value schema.Value, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// AssignmentCounter counts ASSIGNED ingests bound to a sample.
type AssignmentCounter interface {
	CountAssigned(ctx context.Context, sampleID string) (int, error)
}

// ActiveResolver resolves a project's ACTIVE RDMP version, nil if none.
type ActiveResolver interface {
	ResolveActive(ctx context.Context, projectID string) (*rdmp.Version, error)
}

// Authorizer checks project permissions.
type Authorizer interface {
	Require(ctx context.Context, projectID, actorID string, action rdmp.Action) error
}

// ActivityRepository records audit entries.
type ActivityRepository interface {
	Log(ctx context.Context, entry *audit.Entry) error
}

// Metrics observes field writes.
type Metrics interface {
	ObserveFieldWrite(outcome string)
}
