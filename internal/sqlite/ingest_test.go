package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/metafirst/supervisor/internal/domain/ingest"
	"github.com/metafirst/supervisor/internal/domain/project"
	"github.com/metafirst/supervisor/internal/repository"
	"github.com/stretchr/testify/require"
)

func newRoot(id, projectID string) *project.StorageRoot {
	return &project.StorageRoot{ID: id, ProjectID: projectID, Name: "root-" + id, CreatedAt: time.Now().UTC()}
}

// newIngest builds a PENDING ingest under project p1 and storage root r1.
func newIngest(id, relativePath string) *ingest.PendingIngest {
	now := time.Now().UTC()
	return &ingest.PendingIngest{
		ID:            id,
		ProjectID:     "p1",
		StorageRootID: "r1",
		RelativePath:  relativePath,
		FileSizeBytes: 128,
		ObservedAt:    now,
		ReportedBy:    "watcher",
		Status:        ingest.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func strPtr(s string) *string { return &s }

func TestIngestRepository_ReportUpserts(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedActiveProject(t, db)
	repo := NewIngestRepository(db)

	first, created, err := repo.Report(ctx, newIngest("i1", "runs/QPCR-003/a.csv"))
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, ingest.StatusPending, first.Status)
	require.Nil(t, first.FileHashSHA256)

	again := newIngest("i2", "runs/QPCR-003/a.csv")
	again.FileSizeBytes = 256
	again.FileHashSHA256 = strPtr("ab")
	second, created, err := repo.Report(ctx, again)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "i1", second.ID)
	require.Equal(t, int64(256), second.FileSizeBytes)
	require.Equal(t, "ab", *second.FileHashSHA256)

	all, err := repo.List(ctx, ingest.ListOptions{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestIngestRepository_UpdateClassificationSkipsFinal(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedActiveProject(t, db)
	require.NoError(t, NewSampleRepository(db).Create(ctx, newSample("s1", "QPCR-003", nil)))
	repo := NewIngestRepository(db)

	ing, _, err := repo.Report(ctx, newIngest("i1", "runs/QPCR-003/a.csv"))
	require.NoError(t, err)

	out := ingest.Outcome{
		Status:                   ingest.StatusMatched,
		InferredSampleIdentifier: strPtr("QPCR-003"),
		MatchedSampleID:          strPtr("s1"),
		Reason:                   `matches sample "QPCR-003"`,
	}
	applied, err := repo.UpdateClassification(ctx, ing.ID, out, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, applied)

	matched, err := repo.Get(ctx, ing.ID)
	require.NoError(t, err)
	require.Equal(t, ingest.StatusMatched, matched.Status)
	require.Equal(t, "s1", *matched.MatchedSampleID)
	require.NotNil(t, matched.ClassifiedAt)

	ids, err := repo.ProjectsWithUnresolved(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"p1"}, ids)

	_, err = repo.Assign(ctx, ing.ID, "s1", "alice", time.Now().UTC())
	require.NoError(t, err)

	// Automatic classification never touches ASSIGNED ingests
	applied, err = repo.UpdateClassification(ctx, ing.ID, ingest.Outcome{Status: ingest.StatusPending}, time.Now().UTC())
	require.NoError(t, err)
	require.False(t, applied)

	ids, err = repo.ProjectsWithUnresolved(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestIngestRepository_AssignIsIdempotent(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedActiveProject(t, db)
	samples := NewSampleRepository(db)
	require.NoError(t, samples.Create(ctx, newSample("s1", "S-1", nil)))
	require.NoError(t, samples.Create(ctx, newSample("s2", "S-2", nil)))
	repo := NewIngestRepository(db)

	ing, _, err := repo.Report(ctx, newIngest("i1", "runs/S-1/a.csv"))
	require.NoError(t, err)

	first, err := repo.Assign(ctx, ing.ID, "s1", "alice", time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, ingest.StatusAssigned, first.Status)
	require.Equal(t, "s1", *first.SampleID)
	require.Equal(t, "alice", *first.AssignedBy)

	second, err := repo.Assign(ctx, ing.ID, "s1", "bob", time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, "alice", *second.AssignedBy)
	require.True(t, first.AssignedAt.Equal(*second.AssignedAt))

	_, err = repo.Assign(ctx, ing.ID, "s2", "alice", time.Now().UTC())
	require.ErrorIs(t, err, repository.ErrConflict)

	n, err := repo.CountAssigned(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	bySample, err := repo.List(ctx, ingest.ListOptions{SampleID: "s1"})
	require.NoError(t, err)
	require.Len(t, bySample, 1)

	_, err = repo.Assign(ctx, "missing", "s1", "alice", time.Now().UTC())
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestIngestRepository_Ignore(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedActiveProject(t, db)
	require.NoError(t, NewSampleRepository(db).Create(ctx, newSample("s1", "S-1", nil)))
	repo := NewIngestRepository(db)

	a, _, err := repo.Report(ctx, newIngest("i1", "runs/S-1/a.csv"))
	require.NoError(t, err)
	b, _, err := repo.Report(ctx, newIngest("i2", "runs/S-1/b.csv"))
	require.NoError(t, err)

	ignored, err := repo.Ignore(ctx, a.ID, "alice", "scratch file", time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, ingest.StatusIgnored, ignored.Status)
	require.Equal(t, "alice", *ignored.IgnoredBy)
	require.Equal(t, "scratch file", ignored.Reason)

	_, err = repo.Assign(ctx, b.ID, "s1", "alice", time.Now().UTC())
	require.NoError(t, err)
	_, err = repo.Ignore(ctx, b.ID, "alice", "", time.Now().UTC())
	require.ErrorIs(t, err, repository.ErrConflict)

	_, err = repo.Ignore(ctx, "missing", "alice", "", time.Now().UTC())
	require.ErrorIs(t, err, repository.ErrNotFound)

	pending, err := repo.List(ctx, ingest.ListOptions{ProjectID: "p1", Statuses: ingest.Unresolved})
	require.NoError(t, err)
	require.Empty(t, pending)
}
