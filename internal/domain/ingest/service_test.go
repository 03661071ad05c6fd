package ingest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/metafirst/supervisor/internal/domain/extraction"
	"github.com/metafirst/supervisor/internal/domain/ingest"
	"github.com/metafirst/supervisor/internal/domain/project"
	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/domain/sample"
	"github.com/metafirst/supervisor/internal/failure"
	"github.com/metafirst/supervisor/internal/repository"
	"github.com/metafirst/supervisor/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ingests  *mocks.IngestRepository
	projects *mocks.ProjectRepository
	roots    *mocks.StorageRootRepository
	samples  *mocks.SampleRepository
	creator  *mocks.SampleCreator
	active   *mocks.ActiveResolver
	authz    *mocks.Authorizer
	svc      *ingest.Service
}

func newFixture() *fixture {
	f := &fixture{
		ingests:  &mocks.IngestRepository{},
		projects: &mocks.ProjectRepository{},
		roots:    &mocks.StorageRootRepository{},
		samples:  &mocks.SampleRepository{},
		creator:  &mocks.SampleCreator{},
		active:   &mocks.ActiveResolver{},
		authz:    &mocks.Authorizer{},
	}
	f.authz.On("RequireMember", mock.Anything, "proj1", "alice").Return(nil)
	f.authz.On("Require", mock.Anything, "proj1", "alice", rdmp.ActionEditPaths).Return(nil)
	f.projects.On("Get", mock.Anything, "proj1").Return(&project.Project{
		ID:              "proj1",
		ExtractionRules: []extraction.Rule{{Pattern: `(QPCR-\d+)`}},
	}, nil)
	f.svc = ingest.NewService(ingest.Deps{
		Ingests:  f.ingests,
		Projects: f.projects,
		Roots:    f.roots,
		Samples:  f.samples,
		Creator:  f.creator,
		Active:   f.active,
		Authz:    f.authz,
	}, nil)
	return f
}

func ptr(s string) *string { return &s }

func TestIngestService_ReportClassifiesImmediately(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.roots.On("Get", ctx, "root1").Return(&project.StorageRoot{ID: "root1", ProjectID: "proj1"}, nil)
	f.ingests.On("Report", ctx, mock.MatchedBy(func(ing *ingest.PendingIngest) bool {
		return ing.RelativePath == "lab/runs/QPCR-003/file.csv" && ing.Status == ingest.StatusPending
	})).Return(func(_ context.Context, ing *ingest.PendingIngest) *ingest.PendingIngest {
		return ing
	}, true, nil)
	f.active.On("ResolveActive", ctx, "proj1").Return(&rdmp.Version{ID: "v1"}, nil)
	f.samples.On("GetByIdentifier", ctx, "proj1", "QPCR-003").Return(&sample.Sample{ID: "s1", ProjectID: "proj1"}, nil)
	f.ingests.On("UpdateClassification", ctx, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	ing, err := f.svc.Report(ctx, "alice", ingest.FileEvent{
		ProjectID:     "proj1",
		StorageRootID: "root1",
		RelativePath:  `lab\runs\QPCR-003\file.csv`,
		FileSizeBytes: 1024,
	})
	require.NoError(t, err)
	require.Equal(t, ingest.StatusMatched, ing.Status)
	require.Equal(t, "QPCR-003", *ing.InferredSampleIdentifier)
	require.Equal(t, "s1", *ing.MatchedSampleID)
	require.False(t, ing.ObservedAt.IsZero())
}

func TestIngestService_ReportRejectsForeignStorageRoot(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.roots.On("Get", ctx, "root2").Return(&project.StorageRoot{ID: "root2", ProjectID: "proj2"}, nil)

	_, err := f.svc.Report(ctx, "alice", ingest.FileEvent{ProjectID: "proj1", StorageRootID: "root2", RelativePath: "a.csv"})
	require.ErrorIs(t, err, ingest.ErrStorageRootNotFound)
	require.ErrorIs(t, err, failure.ErrNotFound)
}

func TestIngestService_ReportRejectsBadHash(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.roots.On("Get", ctx, "root1").Return(&project.StorageRoot{ID: "root1", ProjectID: "proj1"}, nil)

	_, err := f.svc.Report(ctx, "alice", ingest.FileEvent{
		ProjectID: "proj1", StorageRootID: "root1", RelativePath: "a.csv", FileHashSHA256: "xyz",
	})
	require.ErrorIs(t, err, ingest.ErrInvalidEvent)
}

func TestIngestService_AssignIsIdempotentAndFinal(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	pending := &ingest.PendingIngest{ID: "ing1", ProjectID: "proj1", Status: ingest.StatusMatched}
	assigned := &ingest.PendingIngest{ID: "ing1", ProjectID: "proj1", Status: ingest.StatusAssigned, SampleID: ptr("s1")}

	f.ingests.On("Get", ctx, "ing1").Return(pending, nil).Once()
	f.ingests.On("Get", ctx, "ing1").Return(assigned, nil)
	f.samples.On("Get", ctx, "s1").Return(&sample.Sample{ID: "s1", ProjectID: "proj1", Identifier: "QPCR-003"}, nil)
	f.samples.On("Get", ctx, "s2").Return(&sample.Sample{ID: "s2", ProjectID: "proj1", Identifier: "QPCR-004"}, nil)
	f.active.On("ResolveActive", ctx, "proj1").Return(&rdmp.Version{ID: "v1"}, nil)
	f.ingests.On("Assign", ctx, "ing1", "s1", "alice", mock.Anything).Return(assigned, nil).Once()

	first, err := f.svc.Assign(ctx, "ing1", "s1", "alice")
	require.NoError(t, err)
	require.Equal(t, ingest.StatusAssigned, first.Status)

	again, err := f.svc.Assign(ctx, "ing1", "s1", "alice")
	require.NoError(t, err)
	require.Equal(t, first, again)

	_, err = f.svc.Assign(ctx, "ing1", "s2", "alice")
	require.ErrorIs(t, err, ingest.ErrAlreadyAssigned)
	require.ErrorIs(t, err, failure.ErrAlreadyAssigned)
	f.ingests.AssertNumberOfCalls(t, "Assign", 1)
}

func TestIngestService_AssignRaceLostToOtherSample(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.ingests.On("Get", ctx, "ing1").Return(&ingest.PendingIngest{ID: "ing1", ProjectID: "proj1", Status: ingest.StatusPending}, nil)
	f.samples.On("Get", ctx, "s1").Return(&sample.Sample{ID: "s1", ProjectID: "proj1"}, nil)
	f.active.On("ResolveActive", ctx, "proj1").Return(&rdmp.Version{ID: "v1"}, nil)
	f.ingests.On("Assign", ctx, "ing1", "s1", "alice", mock.Anything).Return((*ingest.PendingIngest)(nil), repository.ErrConflict)

	_, err := f.svc.Assign(ctx, "ing1", "s1", "alice")
	require.ErrorIs(t, err, ingest.ErrAlreadyAssigned)
}

func TestIngestService_AssignNotFoundAndCrossProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.ingests.On("Get", ctx, "missing").Return((*ingest.PendingIngest)(nil), repository.ErrNotFound)
	f.ingests.On("Get", ctx, "ing1").Return(&ingest.PendingIngest{ID: "ing1", ProjectID: "proj1", Status: ingest.StatusPending}, nil)
	f.samples.On("Get", ctx, "nope").Return((*sample.Sample)(nil), repository.ErrNotFound)
	f.samples.On("Get", ctx, "other").Return(&sample.Sample{ID: "other", ProjectID: "proj2"}, nil)

	_, err := f.svc.Assign(ctx, "missing", "s1", "alice")
	require.ErrorIs(t, err, ingest.ErrIngestNotFound)
	_, err = f.svc.Assign(ctx, "ing1", "nope", "alice")
	require.ErrorIs(t, err, ingest.ErrSampleNotFound)
	_, err = f.svc.Assign(ctx, "ing1", "other", "alice")
	require.ErrorIs(t, err, ingest.ErrCrossProject)
}

func TestIngestService_AssignBlockedWithoutActiveVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.ingests.On("Get", ctx, "ing1").Return(&ingest.PendingIngest{ID: "ing1", ProjectID: "proj1", Status: ingest.StatusPending, Blocked: true}, nil)
	f.samples.On("Get", ctx, "s1").Return(&sample.Sample{ID: "s1", ProjectID: "proj1"}, nil)
	f.active.On("ResolveActive", ctx, "proj1").Return((*rdmp.Version)(nil), nil)

	_, err := f.svc.Assign(ctx, "ing1", "s1", "alice")
	require.ErrorIs(t, err, failure.ErrNoActiveSchema)
}

func TestIngestService_ClassifyLeavesAssignedAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.ingests.On("Get", ctx, "ing1").Return(&ingest.PendingIngest{
		ID: "ing1", ProjectID: "proj1", RelativePath: "QPCR-009/a.csv", Status: ingest.StatusAssigned, SampleID: ptr("s1"),
	}, nil)

	ing, err := f.svc.Classify(ctx, "ing1")
	require.NoError(t, err)
	require.Equal(t, ingest.StatusAssigned, ing.Status)
	f.ingests.AssertNotCalled(t, "UpdateClassification", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestService_ClassifyYieldsToConcurrentAssign(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.ingests.On("Get", ctx, "ing1").Return(&ingest.PendingIngest{
		ID: "ing1", ProjectID: "proj1", RelativePath: "QPCR-003/a.csv", Status: ingest.StatusPending,
	}, nil).Once()
	f.ingests.On("Get", ctx, "ing1").Return(&ingest.PendingIngest{
		ID: "ing1", ProjectID: "proj1", RelativePath: "QPCR-003/a.csv", Status: ingest.StatusAssigned, SampleID: ptr("s9"),
	}, nil)
	f.active.On("ResolveActive", ctx, "proj1").Return(&rdmp.Version{ID: "v1"}, nil)
	f.samples.On("GetByIdentifier", ctx, "proj1", "QPCR-003").Return(&sample.Sample{ID: "s1", ProjectID: "proj1"}, nil)
	f.ingests.On("UpdateClassification", ctx, "ing1", mock.Anything, mock.Anything).Return(false, nil)

	ing, err := f.svc.Classify(ctx, "ing1")
	require.NoError(t, err)
	require.Equal(t, ingest.StatusAssigned, ing.Status)
	require.Equal(t, "s9", *ing.SampleID)
}

func TestIngestService_SweepIsReentrant(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	matched := ingest.PendingIngest{
		ID: "ing1", ProjectID: "proj1", RelativePath: "QPCR-003/a.csv",
		Status: ingest.StatusMatched, InferredSampleIdentifier: ptr("QPCR-003"), MatchedSampleID: ptr("s1"),
		Reason: `matches sample "QPCR-003"`,
	}
	f.ingests.On("ProjectsWithUnresolved", ctx).Return([]string{"proj1"}, nil)
	f.ingests.On("List", mock.Anything, ingest.ListOptions{ProjectID: "proj1", Statuses: ingest.Unresolved}).Return([]ingest.PendingIngest{matched}, nil)
	f.active.On("ResolveActive", mock.Anything, "proj1").Return(&rdmp.Version{ID: "v1"}, nil)
	f.samples.On("GetByIdentifier", mock.Anything, "proj1", "QPCR-003").Return(&sample.Sample{ID: "s1", ProjectID: "proj1"}, nil)

	for i := 0; i < 2; i++ {
		res, err := f.svc.Sweep(ctx)
		require.NoError(t, err)
		require.Equal(t, ingest.SweepResult{Projects: 1, Examined: 1, Changed: 0}, res)
	}
	f.ingests.AssertNotCalled(t, "UpdateClassification", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestService_SweepContinuesPastFailingProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	boom := errors.New("disk full")
	f.projects.On("Get", mock.Anything, "broken").Return((*project.Project)(nil), boom)
	f.ingests.On("ProjectsWithUnresolved", ctx).Return([]string{"broken", "proj1"}, nil)
	f.ingests.On("List", mock.Anything, ingest.ListOptions{ProjectID: "proj1", Statuses: ingest.Unresolved}).Return([]ingest.PendingIngest{
		{ID: "ing1", ProjectID: "proj1", RelativePath: "QPCR-003/a.csv", Status: ingest.StatusPending},
	}, nil)
	f.active.On("ResolveActive", mock.Anything, "proj1").Return(&rdmp.Version{ID: "v1"}, nil)
	f.samples.On("GetByIdentifier", mock.Anything, "proj1", "QPCR-003").Return(&sample.Sample{ID: "s1", ProjectID: "proj1"}, nil)
	f.ingests.On("UpdateClassification", mock.Anything, "ing1", mock.Anything, mock.Anything).Return(true, nil)

	res, err := f.svc.Sweep(ctx)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, res.Changed)
}

func TestIngestService_CreateSampleAndAssignUsesSuggestion(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.ingests.On("Get", ctx, "ing1").Return(&ingest.PendingIngest{
		ID: "ing1", ProjectID: "proj1", Status: ingest.StatusPending, InferredSampleIdentifier: ptr("QPCR-004"),
	}, nil)
	f.creator.On("Create", ctx, "proj1", "alice", sample.CreateRequest{Identifier: "QPCR-004"}).
		Return(&sample.View{Sample: sample.Sample{ID: "s4", ProjectID: "proj1", Identifier: "QPCR-004"}}, nil)
	f.samples.On("Get", ctx, "s4").Return(&sample.Sample{ID: "s4", ProjectID: "proj1", Identifier: "QPCR-004"}, nil)
	f.active.On("ResolveActive", ctx, "proj1").Return(&rdmp.Version{ID: "v1"}, nil)
	f.ingests.On("Assign", ctx, "ing1", "s4", "alice", mock.Anything).Return(&ingest.PendingIngest{
		ID: "ing1", ProjectID: "proj1", Status: ingest.StatusAssigned, SampleID: ptr("s4"), AssignedAt: &time.Time{},
	}, nil)

	ing, view, err := f.svc.CreateSampleAndAssign(ctx, "ing1", "alice", sample.CreateRequest{})
	require.NoError(t, err)
	require.Equal(t, "QPCR-004", view.Identifier)
	require.Equal(t, "s4", *ing.SampleID)
}

func TestIngestService_IgnoreRejectsAssigned(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.ingests.On("Get", ctx, "ing1").Return(&ingest.PendingIngest{ID: "ing1", ProjectID: "proj1", Status: ingest.StatusAssigned}, nil)

	_, err := f.svc.Ignore(ctx, "ing1", "alice", "duplicate upload")
	require.ErrorIs(t, err, ingest.ErrAssigned)
	require.ErrorIs(t, err, failure.ErrInvalidState)
}
