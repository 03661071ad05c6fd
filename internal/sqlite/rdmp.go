package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/repository"
)

// RDMPRepository implements rdmp.Repository for SQLite
type RDMPRepository struct {
	db *DB
}

// NewRDMPRepository creates a new RDMPRepository
func NewRDMPRepository(db *DB) *RDMPRepository {
	return &RDMPRepository{db: db}
}

const versionColumns = `
	id, project_id, version_int, title, fields, roles, state, created_by,
	approved_by, created_at, updated_at, activated_at, superseded_at,
	template_version_id`

// CreateDraft stores a DRAFT version numbered from the project's counter.
// Numbers are never reused, even after a draft is discarded.
func (r *RDMPRepository) CreateDraft(ctx context.Context, v *rdmp.Version) error {
	fields, roles, err := encodeVersion(v)
	if err != nil {
		return err
	}

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE projects SET rdmp_version_counter = rdmp_version_counter + 1 WHERE id = ?`, v.ProjectID)
		if err != nil {
			return wrapErr("increment version counter", err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}

		var next int64
		err = tx.QueryRowContext(ctx,
			`SELECT rdmp_version_counter FROM projects WHERE id = ?`, v.ProjectID).Scan(&next)
		if err != nil {
			return wrapErr("read version counter", err)
		}

		query := `
			INSERT INTO rdmp_versions (
				id, project_id, version_int, title, fields, roles, state,
				created_by, created_at, updated_at, template_version_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err = tx.ExecContext(ctx, query,
			v.ID,
			v.ProjectID,
			next,
			v.Title,
			fields,
			roles,
			string(rdmp.StateDraft),
			v.CreatedBy,
			v.CreatedAt,
			v.UpdatedAt,
			nullString(v.TemplateVersionID),
		)
		if err != nil {
			return wrapErr("create rdmp draft", err)
		}
		v.VersionInt = next
		v.State = rdmp.StateDraft
		return nil
	})
}

// Get retrieves a version by ID
func (r *RDMPRepository) Get(ctx context.Context, id string) (*rdmp.Version, error) {
	return getVersion(ctx, r.db, id)
}

// GetActive retrieves the project's ACTIVE version
func (r *RDMPRepository) GetActive(ctx context.Context, projectID string) (*rdmp.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM rdmp_versions WHERE project_id = ? AND state = ?`
	v, err := scanVersion(r.db.QueryRowContext(ctx, query, projectID, string(rdmp.StateActive)))
	if err != nil {
		return nil, wrapErr("get active rdmp version", err)
	}
	return v, nil
}

// List returns the project's versions, newest first
func (r *RDMPRepository) List(ctx context.Context, projectID string) ([]rdmp.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM rdmp_versions WHERE project_id = ? ORDER BY version_int DESC`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rdmp versions: %w", err)
	}
	defer rows.Close()

	versions := []rdmp.Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rdmp version: %w", err)
		}
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rdmp version rows: %w", err)
	}
	return versions, nil
}

// UpdateDraft rewrites the content of a DRAFT version
func (r *RDMPRepository) UpdateDraft(ctx context.Context, v *rdmp.Version) error {
	fields, roles, err := encodeVersion(v)
	if err != nil {
		return err
	}

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE rdmp_versions
			SET title = ?, fields = ?, roles = ?, updated_at = ?
			WHERE id = ? AND state = ?
		`
		res, err := tx.ExecContext(ctx, query, v.Title, fields, roles, v.UpdatedAt, v.ID, string(rdmp.StateDraft))
		if err != nil {
			return wrapErr("update rdmp draft", err)
		}
		return draftAffected(ctx, tx, res, v.ID)
	})
}

// DeleteDraft removes a DRAFT version
func (r *RDMPRepository) DeleteDraft(ctx context.Context, id string) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM rdmp_versions WHERE id = ? AND state = ?`, id, string(rdmp.StateDraft))
		if err != nil {
			return wrapErr("delete rdmp draft", err)
		}
		return draftAffected(ctx, tx, res, id)
	})
}

// Activate supersedes the project's ACTIVE version, activates versionID and
// points the project at it. Nothing changes unless all three writes succeed.
func (r *RDMPRepository) Activate(ctx context.Context, versionID, approvedBy string, at time.Time) (*rdmp.Version, error) {
	var activated *rdmp.Version
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getVersion(ctx, tx, versionID)
		if err != nil {
			return err
		}
		if current.State != rdmp.StateDraft {
			return repository.ErrConflict
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE rdmp_versions
			SET state = ?, superseded_at = ?, updated_at = ?
			WHERE project_id = ? AND state = ?
		`, string(rdmp.StateSuperseded), at, at, current.ProjectID, string(rdmp.StateActive))
		if err != nil {
			return wrapErr("supersede active rdmp version", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE rdmp_versions
			SET state = ?, approved_by = ?, activated_at = ?, updated_at = ?
			WHERE id = ? AND state = ?
		`, string(rdmp.StateActive), approvedBy, at, at, versionID, string(rdmp.StateDraft))
		if err != nil {
			return wrapErr("activate rdmp version", err)
		}
		if err := requireAffected(res); err != nil {
			return repository.ErrConflict
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE projects SET active_rdmp_version_id = ?, updated_at = ? WHERE id = ?`,
			versionID, at, current.ProjectID)
		if err != nil {
			return wrapErr("point project at active version", err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}

		activated, err = getVersion(ctx, tx, versionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return activated, nil
}

// draftAffected distinguishes a missing version from one that is no longer
// a DRAFT when a conditional write touched no rows.
func draftAffected(ctx context.Context, q queryer, res sql.Result, id string) error {
	err := requireAffected(res)
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	var state string
	err = q.QueryRowContext(ctx, `SELECT state FROM rdmp_versions WHERE id = ?`, id).Scan(&state)
	if err != nil {
		return wrapErr("get rdmp version state", err)
	}
	return repository.ErrConflict
}

func getVersion(ctx context.Context, q queryer, id string) (*rdmp.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM rdmp_versions WHERE id = ?`
	v, err := scanVersion(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapErr("get rdmp version", err)
	}
	return v, nil
}

func encodeVersion(v *rdmp.Version) (string, string, error) {
	fields, err := json.Marshal(v.Fields)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode fields: %w", err)
	}
	roles := v.Roles
	if roles == nil {
		roles = rdmp.Roles{}
	}
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode roles: %w", err)
	}
	return string(fields), string(rolesJSON), nil
}

func scanVersion(row rowScanner) (*rdmp.Version, error) {
	var (
		v          rdmp.Version
		fields     string
		roles      string
		approvedBy sql.NullString
		activated  sql.NullTime
		superseded sql.NullTime
		template   sql.NullString
	)
	err := row.Scan(
		&v.ID,
		&v.ProjectID,
		&v.VersionInt,
		&v.Title,
		&fields,
		&roles,
		&v.State,
		&v.CreatedBy,
		&approvedBy,
		&v.CreatedAt,
		&v.UpdatedAt,
		&activated,
		&superseded,
		&template,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fields), &v.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode fields: %w", err)
	}
	if err := json.Unmarshal([]byte(roles), &v.Roles); err != nil {
		return nil, fmt.Errorf("failed to decode roles: %w", err)
	}
	v.ApprovedBy = stringPtr(approvedBy)
	v.ActivatedAt = timePtr(activated)
	v.SupersededAt = timePtr(superseded)
	v.TemplateVersionID = stringPtr(template)
	return &v, nil
}
