package release_test

import (
	"context"
	"testing"

	"github.com/metafirst/supervisor/internal/domain/completeness"
	"github.com/metafirst/supervisor/internal/domain/ingest"
	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/domain/release"
	"github.com/metafirst/supervisor/internal/domain/sample"
	"github.com/metafirst/supervisor/internal/domain/schema"
	"github.com/metafirst/supervisor/internal/failure"
	"github.com/metafirst/supervisor/internal/repository"
	"github.com/metafirst/supervisor/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errDenied = failure.New(failure.Permission, "permission denied")

func activeVersion() *rdmp.Version {
	return &rdmp.Version{
		ID:         "v2",
		ProjectID:  "proj1",
		VersionInt: 2,
		State:      rdmp.StateActive,
		Fields: schema.Fields{
			{Key: "cell_line", Type: schema.TypeText, Required: true},
			{Key: "od600", Type: schema.TypeNumber},
		},
	}
}

type fixture struct {
	repo       *mocks.ReleaseRepository
	active     *mocks.ActiveResolver
	samples    *mocks.SampleLister
	files      *mocks.IngestLister
	authz      *mocks.Authorizer
	activities *mocks.ActivityRepository
	svc        *release.Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:       &mocks.ReleaseRepository{},
		active:     &mocks.ActiveResolver{},
		samples:    &mocks.SampleLister{},
		files:      &mocks.IngestLister{},
		authz:      &mocks.Authorizer{},
		activities: &mocks.ActivityRepository{},
	}
	f.authz.On("Require", mock.Anything, "proj1", "pi", rdmp.ActionCreateRelease).Return(nil)
	f.activities.On("Log", mock.Anything, mock.Anything).Return(nil)
	f.svc = release.NewService(f.repo, f.active, f.samples, f.files, f.authz, f.activities, nil)
	return f
}

func ptr(s string) *string { return &s }

func TestReleaseService_CreateSnapshotsSamplesAndFiles(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.active.On("RequireActive", ctx, "proj1").Return(activeVersion(), nil)
	f.samples.On("List", ctx, "proj1", sample.ListOptions{}).Return([]sample.View{
		{Sample: sample.Sample{ID: "s1", Identifier: "QPCR-001", FieldValues: map[string]schema.Value{
			"cell_line": schema.Text("HeLa"),
			"od600":     schema.Number(0),
		}}},
		{Sample: sample.Sample{ID: "s2", Identifier: "QPCR-002", FieldValues: map[string]schema.Value{}}},
	}, nil)
	f.files.On("List", ctx, "proj1", []ingest.Status{ingest.StatusAssigned}).Return([]ingest.PendingIngest{
		{ID: "ing1", StorageRootID: "root1", RelativePath: "runs/QPCR-001/a.csv", FileSizeBytes: 10, SampleID: ptr("s1")},
		{ID: "ing2", StorageRootID: "root1", RelativePath: "runs/QPCR-001/b.csv", FileSizeBytes: 20, SampleID: ptr("s1")},
	}, nil)

	var stored *release.Release
	f.repo.On("Create", ctx, mock.AnythingOfType("*release.Release")).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*release.Release)
	}).Return(nil)

	rel, err := f.svc.Create(ctx, "proj1", "pi", release.CreateRequest{Tag: " 2024-Q1 ", Description: "first cut"})
	require.NoError(t, err)
	require.Same(t, stored, rel)
	require.Equal(t, "2024-Q1", rel.Tag)
	require.Equal(t, "v2", rel.RDMPVersionID)
	require.Equal(t, int64(2), rel.RDMPVersionInt)
	require.Nil(t, rel.ParentReleaseID)
	require.Equal(t, release.Summary{Samples: 2, Complete: 1, Files: 2}, rel.Summary)

	require.NotNil(t, rel.Snapshot)
	require.Len(t, rel.Snapshot.Fields, 2)
	require.Len(t, rel.Snapshot.Samples, 2)
	first := rel.Snapshot.Samples[0]
	require.Equal(t, "QPCR-001", first.Identifier)
	require.True(t, first.Completeness.IsComplete)
	require.Equal(t, "v2", first.Completeness.VersionID)
	require.Len(t, first.Files, 2)
	second := rel.Snapshot.Samples[1]
	require.Equal(t, []string{"cell_line"}, second.Completeness.MissingFields)
	require.NotNil(t, second.Files)
	require.Empty(t, second.Files)

	f.activities.AssertNumberOfCalls(t, "Log", 1)
}

func TestReleaseService_CreateRequiresPermission(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.authz.On("Require", ctx, "proj1", "ana", rdmp.ActionCreateRelease).Return(errDenied)

	_, err := f.svc.Create(ctx, "proj1", "ana", release.CreateRequest{Tag: "v1"})
	require.ErrorIs(t, err, failure.ErrPermission)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.active.AssertNotCalled(t, "RequireActive", mock.Anything, mock.Anything)
}

func TestReleaseService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'x'
	}
	for _, tag := range []string{"", "   ", string(long)} {
		_, err := f.svc.Create(ctx, "proj1", "pi", release.CreateRequest{Tag: tag})
		require.ErrorIs(t, err, release.ErrInvalidInput, "tag %q", tag)
		require.ErrorIs(t, err, failure.ErrValidation)
	}
	f.active.AssertNotCalled(t, "RequireActive", mock.Anything, mock.Anything)
}

func TestReleaseService_CreateRequiresActiveVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.active.On("RequireActive", ctx, "proj1").Return(nil, rdmp.ErrNoActiveVersion)

	_, err := f.svc.Create(ctx, "proj1", "pi", release.CreateRequest{Tag: "v1"})
	require.ErrorIs(t, err, failure.ErrNoActiveSchema)
	f.samples.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestReleaseService_CreateDuplicateTag(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.active.On("RequireActive", ctx, "proj1").Return(activeVersion(), nil)
	f.samples.On("List", ctx, "proj1", sample.ListOptions{}).Return([]sample.View{}, nil)
	f.files.On("List", ctx, "proj1", []ingest.Status{ingest.StatusAssigned}).Return([]ingest.PendingIngest{}, nil)
	f.repo.On("Create", ctx, mock.Anything).Return(repository.ErrUniqueViolation)

	_, err := f.svc.Create(ctx, "proj1", "pi", release.CreateRequest{Tag: "v1"})
	require.ErrorIs(t, err, release.ErrDuplicateTag)
	f.activities.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
}

func TestReleaseService_CreateCorrectionChecksParent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.active.On("RequireActive", ctx, "proj1").Return(activeVersion(), nil)
	f.samples.On("List", ctx, "proj1", sample.ListOptions{}).Return([]sample.View{}, nil)
	f.files.On("List", ctx, "proj1", []ingest.Status{ingest.StatusAssigned}).Return([]ingest.PendingIngest{}, nil)
	f.repo.On("Get", ctx, "r1").Return(&release.Release{ID: "r1", ProjectID: "proj1"}, nil)
	f.repo.On("Get", ctx, "other").Return(&release.Release{ID: "other", ProjectID: "proj2"}, nil)
	f.repo.On("Get", ctx, "missing").Return(nil, repository.ErrNotFound)
	f.repo.On("Create", ctx, mock.Anything).Return(nil)

	rel, err := f.svc.Create(ctx, "proj1", "pi", release.CreateRequest{Tag: "v1.1", ParentReleaseID: "r1"})
	require.NoError(t, err)
	require.Equal(t, "r1", *rel.ParentReleaseID)

	_, err = f.svc.Create(ctx, "proj1", "pi", release.CreateRequest{Tag: "v1.2", ParentReleaseID: "other"})
	require.ErrorIs(t, err, release.ErrInvalidParent)

	_, err = f.svc.Create(ctx, "proj1", "pi", release.CreateRequest{Tag: "v1.3", ParentReleaseID: "missing"})
	require.ErrorIs(t, err, release.ErrInvalidParent)
	f.repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestReleaseService_Get(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.repo.On("Get", ctx, "missing").Return(nil, repository.ErrNotFound)
	f.repo.On("Get", ctx, "r1").Return(&release.Release{ID: "r1", Snapshot: &release.Snapshot{}}, nil)

	_, err := f.svc.Get(ctx, "missing")
	require.ErrorIs(t, err, release.ErrReleaseNotFound)
	require.ErrorIs(t, err, failure.ErrNotFound)

	rel, err := f.svc.Get(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, rel.Snapshot)
}

func TestReleaseService_SnapshotUsesPinnedVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.active.On("RequireActive", ctx, "proj1").Return(activeVersion(), nil)
	// The listed view was assessed against some other version; the snapshot
	// re-evaluates against the version the release is pinned to.
	f.samples.On("List", ctx, "proj1", sample.ListOptions{}).Return([]sample.View{{
		Sample:       sample.Sample{ID: "s1", Identifier: "QPCR-001", FieldValues: map[string]schema.Value{}},
		Completeness: completeness.Report{Status: completeness.StatusComplete},
	}}, nil)
	f.files.On("List", ctx, "proj1", []ingest.Status{ingest.StatusAssigned}).Return([]ingest.PendingIngest{}, nil)
	f.repo.On("Create", ctx, mock.Anything).Return(nil)

	rel, err := f.svc.Create(ctx, "proj1", "pi", release.CreateRequest{Tag: "v1"})
	require.NoError(t, err)
	require.Equal(t, 0, rel.Summary.Complete)
	require.False(t, rel.Snapshot.Samples[0].Completeness.IsComplete)
}
