package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/metafirst/supervisor/internal/domain/extraction"
	"github.com/metafirst/supervisor/internal/domain/project"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `
	id, name, description, supervisor_id, extraction_rules, ignore_patterns,
	active_rdmp_version_id, created_by, created_at, updated_at`

// Create creates a new project and records its creator as PI
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	rules, err := json.Marshal(proj.ExtractionRules)
	if err != nil {
		return fmt.Errorf("failed to encode extraction rules: %w", err)
	}
	patterns, err := json.Marshal(proj.IgnorePatterns)
	if err != nil {
		return fmt.Errorf("failed to encode ignore patterns: %w", err)
	}

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO projects (
				id, name, description, supervisor_id, extraction_rules,
				ignore_patterns, created_by, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := tx.ExecContext(ctx, query,
			proj.ID,
			proj.Name,
			proj.Description,
			proj.SupervisorID,
			string(rules),
			string(patterns),
			proj.CreatedBy,
			proj.CreatedAt,
			proj.UpdatedAt,
		)
		if err != nil {
			return wrapErr("create project", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO project_members (project_id, user_id, role, created_at) VALUES (?, ?, ?, ?)`,
			proj.ID, proj.CreatedBy, project.RolePI, proj.CreatedAt,
		)
		if err != nil {
			return wrapErr("add project creator", err)
		}
		return nil
	})
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	proj, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapErr("get project", err)
	}
	return proj, nil
}

// List returns the projects userID is a member of, newest first
func (r *ProjectRepository) List(ctx context.Context, userID string) ([]project.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE id IN (SELECT project_id FROM project_members WHERE user_id = ?)
		ORDER BY created_at DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []project.Project{}
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *proj)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return projects, nil
}

// SetExtractionRules replaces the project's extraction rules
func (r *ProjectRepository) SetExtractionRules(ctx context.Context, id string, rules []extraction.Rule) error {
	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("failed to encode extraction rules: %w", err)
	}
	return r.setColumn(ctx, "extraction_rules", id, string(data))
}

// SetIgnorePatterns replaces the project's ignore patterns
func (r *ProjectRepository) SetIgnorePatterns(ctx context.Context, id string, patterns []string) error {
	data, err := json.Marshal(patterns)
	if err != nil {
		return fmt.Errorf("failed to encode ignore patterns: %w", err)
	}
	return r.setColumn(ctx, "ignore_patterns", id, string(data))
}

// column is one of a fixed set of names, never user input.
func (r *ProjectRepository) setColumn(ctx context.Context, column, id, value string) error {
	query := `UPDATE projects SET ` + column + ` = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, value, time.Now().UTC(), id)
	if err != nil {
		return wrapErr("update project "+column, err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*project.Project, error) {
	var (
		proj     project.Project
		rules    string
		patterns string
		active   sql.NullString
	)
	err := row.Scan(
		&proj.ID,
		&proj.Name,
		&proj.Description,
		&proj.SupervisorID,
		&rules,
		&patterns,
		&active,
		&proj.CreatedBy,
		&proj.CreatedAt,
		&proj.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rules), &proj.ExtractionRules); err != nil {
		return nil, fmt.Errorf("failed to decode extraction rules: %w", err)
	}
	if err := json.Unmarshal([]byte(patterns), &proj.IgnorePatterns); err != nil {
		return nil, fmt.Errorf("failed to decode ignore patterns: %w", err)
	}
	proj.ActiveRDMPVersionID = stringPtr(active)
	return &proj, nil
}
