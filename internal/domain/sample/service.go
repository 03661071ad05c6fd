package sample

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metafirst/supervisor/internal/domain/audit"
	"github.com/metafirst/supervisor/internal/domain/completeness"
	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/domain/schema"
	"github.com/metafirst/supervisor/internal/failure"
	"github.com/metafirst/supervisor/internal/repository"
)

// Service is the registry of samples and their field values.
type Service struct {
	samples     Repository
	active      ActiveResolver
	authz       Authorizer
	assignments AssignmentCounter
	activities  ActivityRepository
	metrics     Metrics
	logger      *slog.Logger
}

// NewService creates a new sample service.
func NewService(
	samples Repository,
	active ActiveResolver,
	authz Authorizer,
	assignments AssignmentCounter,
	activities ActivityRepository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		samples:     samples,
		active:      active,
		authz:       authz,
		assignments: assignments,
		activities:  activities,
		logger:      logger,
	}
}

// WithMetrics attaches a metrics observer.
func (s *Service) WithMetrics(m Metrics) *Service {
	s.metrics = m
	return s
}

// CreateRequest describes a new sample. FieldValues are raw inputs coerced
// against the ACTIVE version.
type CreateRequest struct {
	Identifier  string
	FieldValues map[string]any
}

// Create registers a sample under the project's ACTIVE version.
func (s *Service) Create(ctx context.Context, projectID, actorID string, req CreateRequest) (*View, error) {
	if err := s.authz.Require(ctx, projectID, actorID, rdmp.ActionEditMetadata); err != nil {
		return nil, err
	}
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		return nil, ErrInvalidInput.WithDetails("sample identifier is required")
	}

	active, err := s.resolveActive(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, ErrNoActiveSchema
	}

	values, err := coerceAll(active.Fields, req.FieldValues)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	smp := &Sample{
		ID:                   uuid.NewString(),
		ProjectID:            projectID,
		Identifier:           identifier,
		CreatedRDMPVersionID: active.ID,
		FieldValues:          values,
		CreatedBy:            actorID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.samples.Create(ctx, smp); err != nil {
		switch {
		case errors.Is(err, repository.ErrUniqueViolation):
			return nil, ErrDuplicateIdentifier.WithDetails(identifier)
		case errors.Is(err, repository.ErrForeignKeyViolation):
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("creating sample: %w", err)
	}

	s.log(ctx, smp, actorID, audit.ActionSampleCreated, fmt.Sprintf("created sample %s", identifier), "")
	return &View{Sample: *smp, Completeness: completeness.Assess(smp.FieldValues, active)}, nil
}

// Get returns the sample with completeness computed against the current
// ACTIVE version.
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	smp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	active, err := s.resolveActive(ctx, smp.ProjectID)
	if err != nil {
		return nil, err
	}
	return &View{Sample: *smp, Completeness: completeness.Assess(smp.FieldValues, active)}, nil
}

// GetByIdentifier looks a sample up by its project-scoped identifier.
func (s *Service) GetByIdentifier(ctx context.Context, projectID, identifier string) (*View, error) {
	smp, err := s.samples.GetByIdentifier(ctx, projectID, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSampleNotFound
		}
		return nil, fmt.Errorf("getting sample: %w", err)
	}
	active, err := s.resolveActive(ctx, smp.ProjectID)
	if err != nil {
		return nil, err
	}
	return &View{Sample: *smp, Completeness: completeness.Assess(smp.FieldValues, active)}, nil
}

// List returns the project's samples ordered by identifier.
func (s *Service) List(ctx context.Context, projectID string, opts ListOptions) ([]View, error) {
	samples, err := s.samples.List(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing samples: %w", err)
	}
	active, err := s.resolveActive(ctx, projectID)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(samples))
	for _, smp := range samples {
		report := completeness.Assess(smp.FieldValues, active)
		if opts.Status != "" && report.Status != opts.Status {
			continue
		}
		views = append(views, View{Sample: smp, Completeness: report})
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].Identifier < views[j].Identifier })

	if opts.Offset > 0 {
		if opts.Offset >= len(views) {
			return []View{}, nil
		}
		views = views[opts.Offset:]
	}
	if opts.Limit > 0 && len(views) > opts.Limit {
		views = views[:opts.Limit]
	}
	return views, nil
}

// SetFieldValue coerces raw against the ACTIVE version's definition of key
// and stores it. A rejected value leaves the stored value unchanged. nil or
// "" clears the field.
func (s *Service) SetFieldValue(ctx context.Context, sampleID, actorID, key string, raw any) (*View, error) {
	view, err := s.setFieldValue(ctx, sampleID, actorID, key, raw)
	if s.metrics != nil {
		s.metrics.ObserveFieldWrite(writeOutcome(err))
	}
	return view, err
}

func (s *Service) setFieldValue(ctx context.Context, sampleID, actorID, key string, raw any) (*View, error) {
	smp, err := s.load(ctx, sampleID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Require(ctx, smp.ProjectID, actorID, rdmp.ActionEditMetadata); err != nil {
		return nil, err
	}

	active, err := s.resolveActive(ctx, smp.ProjectID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, ErrNoActiveSchema
	}
	def, ok := active.Fields.Lookup(key)
	if !ok {
		return nil, ErrUnknownField.WithField(key)
	}
	value, err := schema.Coerce(def, raw)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.samples.SetFieldValue(ctx, smp.ID, key, value, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrSampleNotFound
		}
		return nil, fmt.Errorf("setting field value: %w", err)
	}

	before := smp.FieldValues[key]
	if smp.FieldValues == nil {
		smp.FieldValues = map[string]schema.Value{}
	}
	if value.IsNull() {
		delete(smp.FieldValues, key)
	} else {
		smp.FieldValues[key] = value
	}
	smp.UpdatedAt = now

	s.log(ctx, smp, actorID, audit.ActionFieldValueSet, fmt.Sprintf("set %s on %s", key, smp.Identifier),
		audit.Details(map[string]any{key: before}, map[string]any{key: value}))
	return &View{Sample: *smp, Completeness: completeness.Assess(smp.FieldValues, active)}, nil
}

// Delete removes a sample. Samples with ASSIGNED ingests cannot be deleted.
func (s *Service) Delete(ctx context.Context, sampleID, actorID string) error {
	smp, err := s.load(ctx, sampleID)
	if err != nil {
		return err
	}
	if err := s.authz.Require(ctx, smp.ProjectID, actorID, rdmp.ActionEditMetadata); err != nil {
		return err
	}
	if s.assignments != nil {
		n, err := s.assignments.CountAssigned(ctx, sampleID)
		if err != nil {
			return fmt.Errorf("counting assigned ingests: %w", err)
		}
		if n > 0 {
			return ErrSampleInUse.WithDetails(fmt.Sprintf("%d assigned files", n))
		}
	}
	if err := s.samples.Delete(ctx, sampleID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrSampleNotFound
		case errors.Is(err, repository.ErrForeignKeyViolation):
			return ErrSampleInUse
		}
		return fmt.Errorf("deleting sample: %w", err)
	}

	s.log(ctx, smp, actorID, audit.ActionSampleDeleted, fmt.Sprintf("deleted sample %s", smp.Identifier), "")
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*Sample, error) {
	smp, err := s.samples.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSampleNotFound
		}
		return nil, fmt.Errorf("getting sample: %w", err)
	}
	return smp, nil
}

func (s *Service) resolveActive(ctx context.Context, projectID string) (*rdmp.Version, error) {
	active, err := s.active.ResolveActive(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("resolving active rdmp version: %w", err)
	}
	return active, nil
}

func (s *Service) log(ctx context.Context, smp *Sample, actorID string, action audit.Action, summary, details string) {
	s.logger.Debug(summary, "project_id", smp.ProjectID, "sample_id", smp.ID, "actor_id", actorID)
	if s.activities == nil {
		return
	}
	_ = s.activities.Log(ctx, &audit.Entry{
		ProjectID:  smp.ProjectID,
		ActorID:    actorID,
		Action:     action,
		TargetType: "sample",
		TargetID:   smp.ID,
		Summary:    summary,
		Details:    details,
	})
}

// coerceAll coerces initial values in schema order so the first failure
// reported is deterministic.
func coerceAll(fields schema.Fields, raw map[string]any) (map[string]schema.Value, error) {
	values := make(map[string]schema.Value, len(raw))
	var unknown []string
	for key := range raw {
		if _, ok := fields.Lookup(key); !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, ErrUnknownField.WithDetails(unknown...)
	}
	for _, def := range fields {
		r, ok := raw[def.Key]
		if !ok {
			continue
		}
		v, err := schema.Coerce(def, r)
		if err != nil {
			return nil, err
		}
		if !v.IsNull() {
			values[def.Key] = v
		}
	}
	return values, nil
}

func writeOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case failure.KindOf(err) == failure.FieldType:
		return "rejected"
	}
	return "error"
}
