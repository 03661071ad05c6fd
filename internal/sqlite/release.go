package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/metafirst/supervisor/internal/domain/release"
)

// ReleaseRepository implements release.Repository for SQLite
type ReleaseRepository struct {
	db *DB
}

// NewReleaseRepository creates a new ReleaseRepository
func NewReleaseRepository(db *DB) *ReleaseRepository {
	return &ReleaseRepository{db: db}
}

const releaseColumns = `
	id, project_id, release_tag, description, rdmp_version_id, rdmp_version_int,
	parent_release_id, sample_count, complete_count, file_count, created_by, created_at`

// Create inserts a release with its snapshot
func (r *ReleaseRepository) Create(ctx context.Context, rel *release.Release) error {
	snapshot := rel.Snapshot
	if snapshot == nil {
		snapshot = &release.Snapshot{}
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode release snapshot: %w", err)
	}

	query := `
		INSERT INTO releases (
			id, project_id, release_tag, description, rdmp_version_id, rdmp_version_int,
			parent_release_id, sample_count, complete_count, file_count, snapshot,
			created_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		rel.ID,
		rel.ProjectID,
		rel.Tag,
		rel.Description,
		rel.RDMPVersionID,
		rel.RDMPVersionInt,
		nullString(rel.ParentReleaseID),
		rel.Summary.Samples,
		rel.Summary.Complete,
		rel.Summary.Files,
		string(data),
		rel.CreatedBy,
		rel.CreatedAt,
	)
	if err != nil {
		return wrapErr("create release", err)
	}
	return nil
}

// Get retrieves a release by ID, including its snapshot
func (r *ReleaseRepository) Get(ctx context.Context, id string) (*release.Release, error) {
	query := `SELECT ` + releaseColumns + `, snapshot FROM releases WHERE id = ?`

	var data string
	rel, err := scanRelease(r.db.QueryRowContext(ctx, query, id), &data)
	if err != nil {
		return nil, wrapErr("get release", err)
	}
	var snapshot release.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode release snapshot: %w", err)
	}
	rel.Snapshot = &snapshot
	return rel, nil
}

// List returns a project's releases without snapshots, newest first
func (r *ReleaseRepository) List(ctx context.Context, projectID string) ([]release.Release, error) {
	query := `SELECT ` + releaseColumns + ` FROM releases WHERE project_id = ? ORDER BY created_at DESC, release_tag DESC`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}
	defer rows.Close()

	releases := []release.Release{}
	for rows.Next() {
		rel, err := scanRelease(rows, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to scan release: %w", err)
		}
		releases = append(releases, *rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating release rows: %w", err)
	}
	return releases, nil
}

// scanRelease reads releaseColumns, followed by the snapshot column when
// snapshot is non-nil.
func scanRelease(row rowScanner, snapshot *string) (*release.Release, error) {
	var (
		rel    release.Release
		parent sql.NullString
	)
	dest := []any{
		&rel.ID,
		&rel.ProjectID,
		&rel.Tag,
		&rel.Description,
		&rel.RDMPVersionID,
		&rel.RDMPVersionInt,
		&parent,
		&rel.Summary.Samples,
		&rel.Summary.Complete,
		&rel.Summary.Files,
		&rel.CreatedBy,
		&rel.CreatedAt,
	}
	if snapshot != nil {
		dest = append(dest, snapshot)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	rel.ParentReleaseID = stringPtr(parent)
	return &rel, nil
}
