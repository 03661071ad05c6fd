package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/metafirst/supervisor/internal/domain/sample"
	"github.com/metafirst/supervisor/internal/domain/schema"
)

// SampleRepository implements sample.Repository for SQLite
type SampleRepository struct {
	db *DB
}

// NewSampleRepository creates a new SampleRepository
func NewSampleRepository(db *DB) *SampleRepository {
	return &SampleRepository{db: db}
}

const sampleColumns = `
	id, project_id, identifier, created_rdmp_version_id, created_by, created_at, updated_at`

// Create stores a sample with its initial field values
func (r *SampleRepository) Create(ctx context.Context, s *sample.Sample) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO samples (
				id, project_id, identifier, created_rdmp_version_id,
				created_by, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		_, err := tx.ExecContext(ctx, query,
			s.ID,
			s.ProjectID,
			s.Identifier,
			s.CreatedRDMPVersionID,
			s.CreatedBy,
			s.CreatedAt,
			s.UpdatedAt,
		)
		if err != nil {
			return wrapErr("create sample", err)
		}

		for key, value := range s.FieldValues {
			if value.IsNull() {
				continue
			}
			if err := putFieldValue(ctx, tx, s.ID, key, value, s.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get retrieves a sample and its field values by ID
func (r *SampleRepository) Get(ctx context.Context, id string) (*sample.Sample, error) {
	query := `SELECT ` + sampleColumns + ` FROM samples WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByIdentifier retrieves a sample by its project-scoped identifier
func (r *SampleRepository) GetByIdentifier(ctx context.Context, projectID, identifier string) (*sample.Sample, error) {
	query := `SELECT ` + sampleColumns + ` FROM samples WHERE project_id = ? AND identifier = ?`
	return r.getOne(ctx, query, projectID, identifier)
}

func (r *SampleRepository) getOne(ctx context.Context, query string, args ...any) (*sample.Sample, error) {
	s, err := scanSample(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, wrapErr("get sample", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT sample_id, field_key, value_type, value FROM sample_field_values WHERE sample_id = ?`, s.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load field values: %w", err)
	}
	defer rows.Close()

	if err := scanFieldValues(rows, map[string]*sample.Sample{s.ID: s}); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns the project's samples with their field values
func (r *SampleRepository) List(ctx context.Context, projectID string) ([]sample.Sample, error) {
	query := `SELECT ` + sampleColumns + ` FROM samples WHERE project_id = ? ORDER BY identifier`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list samples: %w", err)
	}

	var samples []*sample.Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating sample rows: %w", err)
	}
	rows.Close()

	byID := make(map[string]*sample.Sample, len(samples))
	for _, s := range samples {
		byID[s.ID] = s
	}

	valueRows, err := r.db.QueryContext(ctx, `
		SELECT v.sample_id, v.field_key, v.value_type, v.value
		FROM sample_field_values v
		JOIN samples s ON s.id = v.sample_id
		WHERE s.project_id = ?
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load field values: %w", err)
	}
	defer valueRows.Close()
	if err := scanFieldValues(valueRows, byID); err != nil {
		return nil, err
	}

	out := make([]sample.Sample, 0, len(samples))
	for _, s := range samples {
		out = append(out, *s)
	}
	return out, nil
}

// SetFieldValue writes one value. A null value deletes it.
func (r *SampleRepository) SetFieldValue(ctx context.Context, sampleID, key string, value schema.Value, at time.Time) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE samples SET updated_at = ? WHERE id = ?`, at, sampleID)
		if err != nil {
			return wrapErr("touch sample", err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}

		if value.IsNull() {
			_, err := tx.ExecContext(ctx,
				`DELETE FROM sample_field_values WHERE sample_id = ? AND field_key = ?`, sampleID, key)
			if err != nil {
				return wrapErr("clear field value", err)
			}
			return nil
		}
		return putFieldValue(ctx, tx, sampleID, key, value, at)
	})
}

// Delete removes a sample and its field values
func (r *SampleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM samples WHERE id = ?`, id)
	if err != nil {
		return wrapErr("delete sample", err)
	}
	return requireAffected(res)
}

func putFieldValue(ctx context.Context, q queryer, sampleID, key string, value schema.Value, at time.Time) error {
	query := `
		INSERT INTO sample_field_values (sample_id, field_key, value_type, value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (sample_id, field_key) DO UPDATE SET
			value_type = excluded.value_type,
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query, sampleID, key, string(value.Kind()), value.Canonical(), at)
	if err != nil {
		return wrapErr("store field value", err)
	}
	return nil
}

func scanSample(row rowScanner) (*sample.Sample, error) {
	var s sample.Sample
	err := row.Scan(
		&s.ID,
		&s.ProjectID,
		&s.Identifier,
		&s.CreatedRDMPVersionID,
		&s.CreatedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.FieldValues = map[string]schema.Value{}
	return &s, nil
}

func scanFieldValues(rows *sql.Rows, byID map[string]*sample.Sample) error {
	for rows.Next() {
		var sampleID, key, kind, canonical string
		if err := rows.Scan(&sampleID, &key, &kind, &canonical); err != nil {
			return fmt.Errorf("failed to scan field value: %w", err)
		}
		value, err := schema.Decode(schema.FieldType(kind), canonical)
		if err != nil {
			return fmt.Errorf("failed to decode field value %s: %w", key, err)
		}
		if s, ok := byID[sampleID]; ok {
			s.FieldValues[key] = value
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating field value rows: %w", err)
	}
	return nil
}
