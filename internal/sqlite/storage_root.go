package sqlite

import (
	"context"
	"fmt"

	"github.com/metafirst/supervisor/internal/domain/project"
)

// StorageRootRepository implements project.StorageRootRepository for SQLite
type StorageRootRepository struct {
	db *DB
}

// NewStorageRootRepository creates a new StorageRootRepository
func NewStorageRootRepository(db *DB) *StorageRootRepository {
	return &StorageRootRepository{db: db}
}

// Create stores a storage root
func (r *StorageRootRepository) Create(ctx context.Context, root *project.StorageRoot) error {
	query := `
		INSERT INTO storage_roots (id, project_id, name, description, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, root.ID, root.ProjectID, root.Name, root.Description, root.CreatedAt)
	if err != nil {
		return wrapErr("create storage root", err)
	}
	return nil
}

// Get retrieves a storage root by ID
func (r *StorageRootRepository) Get(ctx context.Context, id string) (*project.StorageRoot, error) {
	query := `
		SELECT id, project_id, name, description, created_at
		FROM storage_roots
		WHERE id = ?
	`
	var root project.StorageRoot
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&root.ID, &root.ProjectID, &root.Name, &root.Description, &root.CreatedAt,
	)
	if err != nil {
		return nil, wrapErr("get storage root", err)
	}
	return &root, nil
}

// List returns the project's storage roots ordered by name
func (r *StorageRootRepository) List(ctx context.Context, projectID string) ([]project.StorageRoot, error) {
	query := `
		SELECT id, project_id, name, description, created_at
		FROM storage_roots
		WHERE project_id = ?
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage roots: %w", err)
	}
	defer rows.Close()

	roots := []project.StorageRoot{}
	for rows.Next() {
		var root project.StorageRoot
		if err := rows.Scan(&root.ID, &root.ProjectID, &root.Name, &root.Description, &root.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan storage root: %w", err)
		}
		roots = append(roots, root)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating storage root rows: %w", err)
	}
	return roots, nil
}
