package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/metafirst/supervisor/internal/domain/rdmp"
)

// TemplateRepository implements rdmp.TemplateRepository for SQLite
type TemplateRepository struct {
	db *DB
}

// NewTemplateRepository creates a new TemplateRepository
func NewTemplateRepository(db *DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

const templateVersionColumns = `
	id, template_id, version_int, title, fields, roles, created_by, created_at`

// Create inserts a template and its first version
func (r *TemplateRepository) Create(ctx context.Context, t *rdmp.Template, first *rdmp.TemplateVersion) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rdmp_templates (id, name, description, created_by, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, t.ID, t.Name, t.Description, t.CreatedBy, t.CreatedAt)
		if err != nil {
			return wrapErr("create rdmp template", err)
		}
		first.TemplateID = t.ID
		first.VersionInt = 1
		return insertTemplateVersion(ctx, tx, first)
	})
}

// AddVersion inserts v numbered after the template's latest version
func (r *TemplateRepository) AddVersion(ctx context.Context, v *rdmp.TemplateVersion) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM rdmp_templates WHERE id = ?`, v.TemplateID).Scan(&exists)
		if err != nil {
			return wrapErr("get rdmp template", err)
		}

		var latest int64
		err = tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(version_int), 0) FROM rdmp_template_versions WHERE template_id = ?`,
			v.TemplateID).Scan(&latest)
		if err != nil {
			return wrapErr("read latest template version", err)
		}
		v.VersionInt = latest + 1
		return insertTemplateVersion(ctx, tx, v)
	})
}

// Get retrieves a template by ID without its versions
func (r *TemplateRepository) Get(ctx context.Context, id string) (*rdmp.Template, error) {
	var t rdmp.Template
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_by, created_at FROM rdmp_templates WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Description, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return nil, wrapErr("get rdmp template", err)
	}
	return &t, nil
}

// List returns every template ordered by name
func (r *TemplateRepository) List(ctx context.Context) ([]rdmp.Template, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, created_by, created_at FROM rdmp_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rdmp templates: %w", err)
	}
	defer rows.Close()

	templates := []rdmp.Template{}
	for rows.Next() {
		var t rdmp.Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rdmp template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rdmp template rows: %w", err)
	}
	return templates, nil
}

// ListVersions returns a template's versions, newest first
func (r *TemplateRepository) ListVersions(ctx context.Context, templateID string) ([]rdmp.TemplateVersion, error) {
	query := `SELECT ` + templateVersionColumns + ` FROM rdmp_template_versions WHERE template_id = ? ORDER BY version_int DESC`
	rows, err := r.db.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rdmp template versions: %w", err)
	}
	defer rows.Close()

	versions := []rdmp.TemplateVersion{}
	for rows.Next() {
		v, err := scanTemplateVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rdmp template version: %w", err)
		}
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rdmp template version rows: %w", err)
	}
	return versions, nil
}

// GetVersion retrieves one template version by ID
func (r *TemplateRepository) GetVersion(ctx context.Context, id string) (*rdmp.TemplateVersion, error) {
	query := `SELECT ` + templateVersionColumns + ` FROM rdmp_template_versions WHERE id = ?`
	v, err := scanTemplateVersion(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapErr("get rdmp template version", err)
	}
	return v, nil
}

func insertTemplateVersion(ctx context.Context, tx *sql.Tx, v *rdmp.TemplateVersion) error {
	fields, roles, err := encodeVersion(&rdmp.Version{Fields: v.Fields, Roles: v.Roles})
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO rdmp_template_versions (
			id, template_id, version_int, title, fields, roles, created_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ID, v.TemplateID, v.VersionInt, v.Title, fields, roles, v.CreatedBy, v.CreatedAt)
	if err != nil {
		return wrapErr("create rdmp template version", err)
	}
	return nil
}

func scanTemplateVersion(row rowScanner) (*rdmp.TemplateVersion, error) {
	var (
		v      rdmp.TemplateVersion
		fields string
		roles  string
	)
	err := row.Scan(
		&v.ID,
		&v.TemplateID,
		&v.VersionInt,
		&v.Title,
		&fields,
		&roles,
		&v.CreatedBy,
		&v.CreatedAt,
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
	return &v, nil
}
