package sqlite

import (
	"context"
	"fmt"

	"github.com/metafirst/supervisor/internal/domain/project"
)

// MemberRepository implements project.MemberRepository for SQLite
type MemberRepository struct {
	db *DB
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(db *DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Put adds the member or changes its role
func (r *MemberRepository) Put(ctx context.Context, m *project.Member) error {
	query := `
		INSERT INTO project_members (project_id, user_id, role, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (project_id, user_id) DO UPDATE SET role = excluded.role
	`
	if _, err := r.db.ExecContext(ctx, query, m.ProjectID, m.UserID, m.Role, m.CreatedAt); err != nil {
		return wrapErr("put project member", err)
	}
	return nil
}

// Remove deletes a membership
func (r *MemberRepository) Remove(ctx context.Context, projectID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID)
	if err != nil {
		return wrapErr("remove project member", err)
	}
	return requireAffected(res)
}

// Get retrieves one membership
func (r *MemberRepository) Get(ctx context.Context, projectID, userID string) (*project.Member, error) {
	query := `
		SELECT project_id, user_id, role, created_at
		FROM project_members
		WHERE project_id = ? AND user_id = ?
	`
	var m project.Member
	err := r.db.QueryRowContext(ctx, query, projectID, userID).Scan(&m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt)
	if err != nil {
		return nil, wrapErr("get project member", err)
	}
	return &m, nil
}

// List returns the project's members in join order
func (r *MemberRepository) List(ctx context.Context, projectID string) ([]project.Member, error) {
	query := `
		SELECT project_id, user_id, role, created_at
		FROM project_members
		WHERE project_id = ?
		ORDER BY created_at, user_id
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	defer rows.Close()

	members := []project.Member{}
	for rows.Next() {
		var m project.Member
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}
	return members, nil
}
