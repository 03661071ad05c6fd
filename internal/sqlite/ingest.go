package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/metafirst/supervisor/internal/domain/ingest"
	"github.com/metafirst/supervisor/internal/repository"
)

// IngestRepository implements ingest.Repository for SQLite
type IngestRepository struct {
	db *DB
}

// NewIngestRepository creates a new IngestRepository
func NewIngestRepository(db *DB) *IngestRepository {
	return &IngestRepository{db: db}
}

const ingestColumns = `
	id, project_id, storage_root_id, relative_path, file_size_bytes,
	file_hash_sha256, observed_at, reported_by, status,
	inferred_sample_identifier, matched_sample_id, sample_id, blocked, reason,
	assigned_by, assigned_at, ignored_by, classified_at, created_at, updated_at`

// Report inserts ing, or refreshes the observation of the existing row for
// the same storage root and relative path. Classification state of an
// existing row is left untouched.
func (r *IngestRepository) Report(ctx context.Context, ing *ingest.PendingIngest) (*ingest.PendingIngest, bool, error) {
	var (
		stored  *ingest.PendingIngest
		created bool
	)
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		var existingID string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM pending_ingests WHERE storage_root_id = ? AND relative_path = ?`,
			ing.StorageRootID, ing.RelativePath,
		).Scan(&existingID)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			query := `
				INSERT INTO pending_ingests (
					id, project_id, storage_root_id, relative_path, file_size_bytes,
					file_hash_sha256, observed_at, reported_by, status, blocked, reason,
					created_at, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`
			_, err = tx.ExecContext(ctx, query,
				ing.ID,
				ing.ProjectID,
				ing.StorageRootID,
				ing.RelativePath,
				ing.FileSizeBytes,
				nullString(ing.FileHashSHA256),
				ing.ObservedAt,
				ing.ReportedBy,
				string(ing.Status),
				ing.Blocked,
				ing.Reason,
				ing.CreatedAt,
				ing.UpdatedAt,
			)
			if err != nil {
				return wrapErr("create pending ingest", err)
			}
			existingID = ing.ID
			created = true
		case err != nil:
			return wrapErr("find pending ingest", err)
		default:
			_, err = tx.ExecContext(ctx, `
				UPDATE pending_ingests
				SET file_size_bytes = ?, file_hash_sha256 = ?, observed_at = ?, updated_at = ?
				WHERE id = ?
			`, ing.FileSizeBytes, nullString(ing.FileHashSHA256), ing.ObservedAt, ing.UpdatedAt, existingID)
			if err != nil {
				return wrapErr("refresh pending ingest", err)
			}
		}

		stored, err = getIngest(ctx, tx, existingID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// Get retrieves a pending ingest by ID
func (r *IngestRepository) Get(ctx context.Context, id string) (*ingest.PendingIngest, error) {
	return getIngest(ctx, r.db, id)
}

// List returns ingests matching the given filters, oldest first
func (r *IngestRepository) List(ctx context.Context, opts ingest.ListOptions) ([]ingest.PendingIngest, error) {
	query := `SELECT ` + ingestColumns + ` FROM pending_ingests`

	args := []any{}
	conditions := []string{}

	if opts.ProjectID != "" {
		conditions = append(conditions, "project_id = ?")
		args = append(args, opts.ProjectID)
	}
	if opts.SampleID != "" {
		conditions = append(conditions, "sample_id = ?")
		args = append(args, opts.SampleID)
	}
	if len(opts.Statuses) > 0 {
		placeholders := make([]string, len(opts.Statuses))
		for i, status := range opts.Statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at, relative_path"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending ingests: %w", err)
	}
	defer rows.Close()

	ingests := []ingest.PendingIngest{}
	for rows.Next() {
		ing, err := scanIngest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending ingest: %w", err)
		}
		ingests = append(ingests, *ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending ingest rows: %w", err)
	}
	return ingests, nil
}

// ProjectsWithUnresolved returns IDs of projects with PENDING or MATCHED ingests
func (r *IngestRepository) ProjectsWithUnresolved(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT project_id
		FROM pending_ingests
		WHERE status IN (?, ?)
		ORDER BY project_id
	`, string(ingest.StatusPending), string(ingest.StatusMatched))
	if err != nil {
		return nil, fmt.Errorf("failed to list projects with unresolved ingests: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project id rows: %w", err)
	}
	return ids, nil
}

// UpdateClassification applies out while the ingest is still PENDING or
// MATCHED and reports whether it did
func (r *IngestRepository) UpdateClassification(ctx context.Context, id string, out ingest.Outcome, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pending_ingests
		SET status = ?, inferred_sample_identifier = ?, matched_sample_id = ?,
			blocked = ?, reason = ?, classified_at = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)
	`,
		string(out.Status),
		nullString(out.InferredSampleIdentifier),
		nullString(out.MatchedSampleID),
		out.Blocked,
		out.Reason,
		at,
		at,
		id,
		string(ingest.StatusPending),
		string(ingest.StatusMatched),
	)
	if err != nil {
		return false, wrapErr("update ingest classification", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// Assign binds the ingest to sampleID
func (r *IngestRepository) Assign(ctx context.Context, id, sampleID, actorID string, at time.Time) (*ingest.PendingIngest, error) {
	var assigned *ingest.PendingIngest
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getIngest(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status == ingest.StatusAssigned {
			if current.SampleID != nil && *current.SampleID == sampleID {
				assigned = current
				return nil
			}
			return repository.ErrConflict
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE pending_ingests
			SET status = ?, sample_id = ?, assigned_by = ?, assigned_at = ?,
				blocked = 0, reason = ?, updated_at = ?
			WHERE id = ? AND status != ?
		`,
			string(ingest.StatusAssigned),
			sampleID,
			actorID,
			at,
			"assigned by "+actorID,
			at,
			id,
			string(ingest.StatusAssigned),
		)
		if err != nil {
			return wrapErr("assign pending ingest", err)
		}
		if err := requireAffected(res); err != nil {
			return repository.ErrConflict
		}

		assigned, err = getIngest(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return assigned, nil
}

// Ignore marks a non-ASSIGNED ingest IGNORED
func (r *IngestRepository) Ignore(ctx context.Context, id, actorID, reason string, at time.Time) (*ingest.PendingIngest, error) {
	var ignored *ingest.PendingIngest
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE pending_ingests
			SET status = ?, ignored_by = ?, reason = ?, blocked = 0, updated_at = ?
			WHERE id = ? AND status != ?
		`, string(ingest.StatusIgnored), actorID, reason, at, id, string(ingest.StatusAssigned))
		if err != nil {
			return wrapErr("ignore pending ingest", err)
		}
		if err := requireAffected(res); err != nil {
			if _, getErr := getIngest(ctx, tx, id); getErr != nil {
				return getErr
			}
			return repository.ErrConflict
		}

		ignored, err = getIngest(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ignored, nil
}

// CountAssigned counts ASSIGNED ingests bound to sampleID
func (r *IngestRepository) CountAssigned(ctx context.Context, sampleID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pending_ingests WHERE sample_id = ? AND status = ?`,
		sampleID, string(ingest.StatusAssigned),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count assigned ingests: %w", err)
	}
	return n, nil
}

func getIngest(ctx context.Context, q queryer, id string) (*ingest.PendingIngest, error) {
	query := `SELECT ` + ingestColumns + ` FROM pending_ingests WHERE id = ?`
	ing, err := scanIngest(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapErr("get pending ingest", err)
	}
	return ing, nil
}

func scanIngest(row rowScanner) (*ingest.PendingIngest, error) {
	var (
		ing        ingest.PendingIngest
		hash       sql.NullString
		inferred   sql.NullString
		matched    sql.NullString
		sampleID   sql.NullString
		assignedBy sql.NullString
		assignedAt sql.NullTime
		ignoredBy  sql.NullString
		classified sql.NullTime
	)
	err := row.Scan(
		&ing.ID,
		&ing.ProjectID,
		&ing.StorageRootID,
		&ing.RelativePath,
		&ing.FileSizeBytes,
		&hash,
		&ing.ObservedAt,
		&ing.ReportedBy,
		&ing.Status,
		&inferred,
		&matched,
		&sampleID,
		&ing.Blocked,
		&ing.Reason,
		&assignedBy,
		&assignedAt,
		&ignoredBy,
		&classified,
		&ing.CreatedAt,
		&ing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ing.FileHashSHA256 = stringPtr(hash)
	ing.InferredSampleIdentifier = stringPtr(inferred)
	ing.MatchedSampleID = stringPtr(matched)
	ing.SampleID = stringPtr(sampleID)
	ing.AssignedBy = stringPtr(assignedBy)
	ing.AssignedAt = timePtr(assignedAt)
	ing.IgnoredBy = stringPtr(ignoredBy)
	ing.ClassifiedAt = timePtr(classified)
	return &ing, nil
}
