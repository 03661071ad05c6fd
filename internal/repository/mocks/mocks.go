package mocks

import (
	"context"
	"time"

	"github.com/metafirst/supervisor/internal/domain/audit"
	"github.com/metafirst/supervisor/internal/domain/extraction"
	"github.com/metafirst/supervisor/internal/domain/ingest"
	"github.com/metafirst/supervisor/internal/domain/project"
	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/domain/release"
	"github.com/metafirst/supervisor/internal/domain/sample"
	"github.com/metafirst/supervisor/internal/domain/schema"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context, userID string) ([]project.Project, error) {
	args := m.Called(ctx, userID)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) SetExtractionRules(ctx context.Context, id string, rules []extraction.Rule) error {
	args := m.Called(ctx, id, rules)
	return args.Error(0)
}

func (m *ProjectRepository) SetIgnorePatterns(ctx context.Context, id string, patterns []string) error {
	args := m.Called(ctx, id, patterns)
	return args.Error(0)
}

// MemberRepository is a mock for project.MemberRepository.
type MemberRepository struct {
	mock.Mock
}

func (m *MemberRepository) Put(ctx context.Context, member *project.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MemberRepository) Remove(ctx context.Context, projectID, userID string) error {
	args := m.Called(ctx, projectID, userID)
	return args.Error(0)
}

func (m *MemberRepository) Get(ctx context.Context, projectID, userID string) (*project.Member, error) {
	args := m.Called(ctx, projectID, userID)
	if member, ok := args.Get(0).(*project.Member); ok {
		return member, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MemberRepository) List(ctx context.Context, projectID string) ([]project.Member, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]project.Member); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// StorageRootRepository is a mock for project.StorageRootRepository.
type StorageRootRepository struct {
	mock.Mock
}

func (m *StorageRootRepository) Create(ctx context.Context, root *project.StorageRoot) error {
	args := m.Called(ctx, root)
	return args.Error(0)
}

func (m *StorageRootRepository) Get(ctx context.Context, id string) (*project.StorageRoot, error) {
	args := m.Called(ctx, id)
	if root, ok := args.Get(0).(*project.StorageRoot); ok {
		return root, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StorageRootRepository) List(ctx context.Context, projectID string) ([]project.StorageRoot, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]project.StorageRoot); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// RDMPRepository is a mock for rdmp.Repository.
type RDMPRepository struct {
	mock.Mock
}

func (m *RDMPRepository) CreateDraft(ctx context.Context, v *rdmp.Version) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *RDMPRepository) Get(ctx context.Context, id string) (*rdmp.Version, error) {
	args := m.Called(ctx, id)
	if v, ok := args.Get(0).(*rdmp.Version); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RDMPRepository) GetActive(ctx context.Context, projectID string) (*rdmp.Version, error) {
	args := m.Called(ctx, projectID)
	if v, ok := args.Get(0).(*rdmp.Version); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RDMPRepository) List(ctx context.Context, projectID string) ([]rdmp.Version, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]rdmp.Version); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RDMPRepository) UpdateDraft(ctx context.Context, v *rdmp.Version) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *RDMPRepository) DeleteDraft(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *RDMPRepository) Activate(ctx context.Context, versionID, approvedBy string, at time.Time) (*rdmp.Version, error) {
	args := m.Called(ctx, versionID, approvedBy, at)
	if v, ok := args.Get(0).(*rdmp.Version); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActiveResolver is a mock for the ActiveResolver interfaces.
type ActiveResolver struct {
	mock.Mock
}

func (m *ActiveResolver) ResolveActive(ctx context.Context, projectID string) (*rdmp.Version, error) {
	args := m.Called(ctx, projectID)
	if v, ok := args.Get(0).(*rdmp.Version); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActiveResolver) RequireActive(ctx context.Context, projectID string) (*rdmp.Version, error) {
	args := m.Called(ctx, projectID)
	if v, ok := args.Get(0).(*rdmp.Version); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

// TemplateRepository is a mock for rdmp.TemplateRepository.
type TemplateRepository struct {
	mock.Mock
}

func (m *TemplateRepository) Create(ctx context.Context, t *rdmp.Template, first *rdmp.TemplateVersion) error {
	args := m.Called(ctx, t, first)
	return args.Error(0)
}

func (m *TemplateRepository) AddVersion(ctx context.Context, v *rdmp.TemplateVersion) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *TemplateRepository) Get(ctx context.Context, id string) (*rdmp.Template, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*rdmp.Template); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TemplateRepository) List(ctx context.Context) ([]rdmp.Template, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]rdmp.Template); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TemplateRepository) ListVersions(ctx context.Context, templateID string) ([]rdmp.TemplateVersion, error) {
	args := m.Called(ctx, templateID)
	if list, ok := args.Get(0).([]rdmp.TemplateVersion); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TemplateRepository) GetVersion(ctx context.Context, id string) (*rdmp.TemplateVersion, error) {
	args := m.Called(ctx, id)
	if v, ok := args.Get(0).(*rdmp.TemplateVersion); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

// Authorizer is a mock for the Authorizer interfaces.
type Authorizer struct {
	mock.Mock
}

func (m *Authorizer) RequireMember(ctx context.Context, projectID, actorID string) error {
	args := m.Called(ctx, projectID, actorID)
	return args.Error(0)
}

func (m *Authorizer) RequirePI(ctx context.Context, projectID, actorID string) error {
	args := m.Called(ctx, projectID, actorID)
	return args.Error(0)
}

func (m *Authorizer) Require(ctx context.Context, projectID, actorID string, action rdmp.Action) error {
	args := m.Called(ctx, projectID, actorID, action)
	return args.Error(0)
}

// ActivityRepository is a mock for audit.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *audit.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts audit.ListOptions) ([]audit.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]audit.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// SampleRepository is a mock for sample.Repository.
type SampleRepository struct {
	mock.Mock
}

func (m *SampleRepository) Create(ctx context.Context, s *sample.Sample) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *SampleRepository) Get(ctx context.Context, id string) (*sample.Sample, error) {
	args := m.Called(ctx, id)
	if s, ok := args.Get(0).(*sample.Sample); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SampleRepository) GetByIdentifier(ctx context.Context, projectID, identifier string) (*sample.Sample, error) {
	args := m.Called(ctx, projectID, identifier)
	if s, ok := args.Get(0).(*sample.Sample); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SampleRepository) List(ctx context.Context, projectID string) ([]sample.Sample, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]sample.Sample); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SampleRepository) SetFieldValue(ctx context.Context, sampleID, key string, value schema.Value, at time.Time) error {
	args := m.Called(ctx, sampleID, key, value, at)
	return args.Error(0)
}

func (m *SampleRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// SampleCreator is a mock for ingest.SampleCreator.
type SampleCreator struct {
	mock.Mock
}

func (m *SampleCreator) Create(ctx context.Context, projectID, actorID string, req sample.CreateRequest) (*sample.View, error) {
	args := m.Called(ctx, projectID, actorID, req)
	if view, ok := args.Get(0).(*sample.View); ok {
		return view, args.Error(1)
	}
	return nil, args.Error(1)
}

// IngestRepository is a mock for ingest.Repository.
type IngestRepository struct {
	mock.Mock
}

// Report accepts either a *ingest.PendingIngest or a function computing it
// from the reported ingest as its first return value.
func (m *IngestRepository) Report(ctx context.Context, ing *ingest.PendingIngest) (*ingest.PendingIngest, bool, error) {
	args := m.Called(ctx, ing)
	switch v := args.Get(0).(type) {
	case func(context.Context, *ingest.PendingIngest) *ingest.PendingIngest:
		return v(ctx, ing), args.Bool(1), args.Error(2)
	case *ingest.PendingIngest:
		return v, args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *IngestRepository) Get(ctx context.Context, id string) (*ingest.PendingIngest, error) {
	args := m.Called(ctx, id)
	if ing, ok := args.Get(0).(*ingest.PendingIngest); ok {
		return ing, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IngestRepository) List(ctx context.Context, opts ingest.ListOptions) ([]ingest.PendingIngest, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]ingest.PendingIngest); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IngestRepository) ProjectsWithUnresolved(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IngestRepository) UpdateClassification(ctx context.Context, id string, out ingest.Outcome, at time.Time) (bool, error) {
	args := m.Called(ctx, id, out, at)
	return args.Bool(0), args.Error(1)
}

func (m *IngestRepository) Assign(ctx context.Context, id, sampleID, actorID string, at time.Time) (*ingest.PendingIngest, error) {
	args := m.Called(ctx, id, sampleID, actorID, at)
	if ing, ok := args.Get(0).(*ingest.PendingIngest); ok {
		return ing, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IngestRepository) Ignore(ctx context.Context, id, actorID, reason string, at time.Time) (*ingest.PendingIngest, error) {
	args := m.Called(ctx, id, actorID, reason, at)
	if ing, ok := args.Get(0).(*ingest.PendingIngest); ok {
		return ing, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IngestRepository) CountAssigned(ctx context.Context, sampleID string) (int, error) {
	args := m.Called(ctx, sampleID)
	return args.Int(0), args.Error(1)
}

// ReleaseRepository is a mock for release.Repository.
type ReleaseRepository struct {
	mock.Mock
}

func (m *ReleaseRepository) Create(ctx context.Context, r *release.Release) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *ReleaseRepository) Get(ctx context.Context, id string) (*release.Release, error) {
	args := m.Called(ctx, id)
	if r, ok := args.Get(0).(*release.Release); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ReleaseRepository) List(ctx context.Context, projectID string) ([]release.Release, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]release.Release); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// SampleLister is a mock for release.SampleLister.
type SampleLister struct {
	mock.Mock
}

func (m *SampleLister) List(ctx context.Context, projectID string, opts sample.ListOptions) ([]sample.View, error) {
	args := m.Called(ctx, projectID, opts)
	if list, ok := args.Get(0).([]sample.View); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// IngestLister is a mock for release.FileLister.
type IngestLister struct {
	mock.Mock
}

func (m *IngestLister) List(ctx context.Context, projectID string, statuses ...ingest.Status) ([]ingest.PendingIngest, error) {
	args := m.Called(ctx, projectID, statuses)
	if list, ok := args.Get(0).([]ingest.PendingIngest); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
