package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/metafirst/supervisor/internal/domain/completeness"
	"github.com/metafirst/supervisor/internal/domain/release"
	"github.com/metafirst/supervisor/internal/domain/schema"
	"github.com/metafirst/supervisor/internal/repository"
	"github.com/stretchr/testify/require"
)

// seedActiveVersion creates project id with one ACTIVE version named id+"-v1".
func seedActiveVersion(t *testing.T, db *DB, id string) {
	t.Helper()
	ctx := context.Background()
	insertProject(t, db, id, "alice")
	repo := NewRDMPRepository(db)
	require.NoError(t, repo.CreateDraft(ctx, newDraft(id+"-v1", id)))
	_, err := repo.Activate(ctx, id+"-v1", "alice", time.Now().UTC())
	require.NoError(t, err)
}

func newRelease(id, projectID, tag string, at time.Time) *release.Release {
	return &release.Release{
		ID:             id,
		ProjectID:      projectID,
		Tag:            tag,
		RDMPVersionID:  projectID + "-v1",
		RDMPVersionInt: 1,
		Summary:        release.Summary{Samples: 1, Complete: 1, Files: 1},
		CreatedBy:      "alice",
		CreatedAt:      at,
		Snapshot: &release.Snapshot{
			Fields: schema.Fields{{Key: "cell_line", Type: schema.TypeText, Required: true}},
			Samples: []release.SampleSnapshot{{
				ID:          "s1",
				Identifier:  "QPCR-001",
				FieldValues: map[string]schema.Value{"cell_line": schema.Text("HeLa")},
				Completeness: completeness.Result{
					IsComplete:    true,
					MissingFields: []string{},
					TotalRequired: 1,
					TotalFilled:   1,
					VersionID:     projectID + "-v1",
					VersionInt:    1,
				},
				Files: []release.File{{IngestID: "ing1", StorageRootID: "root1", RelativePath: "a.csv", FileSizeBytes: 10}},
			}},
		},
	}
}

func TestReleaseRepository_SnapshotRoundTrip(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedActiveVersion(t, db, "p1")
	repo := NewReleaseRepository(db)

	rel := newRelease("r1", "p1", "2024-Q1", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, rel))

	got, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, "2024-Q1", got.Tag)
	require.Equal(t, rel.Summary, got.Summary)
	require.Nil(t, got.ParentReleaseID)
	require.NotNil(t, got.Snapshot)
	require.Equal(t, rel.Snapshot.Fields, got.Snapshot.Fields)
	require.Len(t, got.Snapshot.Samples, 1)
	s := got.Snapshot.Samples[0]
	require.Equal(t, "QPCR-001", s.Identifier)
	require.Equal(t, "HeLa", s.FieldValues["cell_line"].Canonical())
	require.True(t, s.Completeness.IsComplete)
	require.Equal(t, rel.Snapshot.Samples[0].Files, s.Files)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReleaseRepository_ListNewestFirstWithoutSnapshot(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedActiveVersion(t, db, "p1")
	repo := NewReleaseRepository(db)

	base := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, newRelease("r1", "p1", "v1", base)))
	correction := newRelease("r2", "p1", "v1.1", base.Add(time.Minute))
	parent := "r1"
	correction.ParentReleaseID = &parent
	require.NoError(t, repo.Create(ctx, correction))

	releases, err := repo.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, releases, 2)
	require.Equal(t, "r2", releases[0].ID)
	require.Equal(t, "r1", *releases[0].ParentReleaseID)
	require.Equal(t, "r1", releases[1].ID)
	for _, rel := range releases {
		require.Nil(t, rel.Snapshot)
	}

	empty, err := repo.List(ctx, "other")
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestReleaseRepository_TagUniquePerProject(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedActiveVersion(t, db, "p1")
	seedActiveVersion(t, db, "p2")
	repo := NewReleaseRepository(db)
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, newRelease("r1", "p1", "v1", now)))
	err := repo.Create(ctx, newRelease("r2", "p1", "v1", now))
	require.ErrorIs(t, err, repository.ErrUniqueViolation)

	require.NoError(t, repo.Create(ctx, newRelease("r3", "p2", "v1", now)))

	dangling := newRelease("r4", "p1", "v2", now)
	missing := "missing"
	dangling.ParentReleaseID = &missing
	require.ErrorIs(t, repo.Create(ctx, dangling), repository.ErrForeignKeyViolation)
}
