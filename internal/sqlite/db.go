package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite database connection. All access goes through a
// single connection so writes are serialized and in-memory databases stay
// consistent.
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema if it does not exist yet.
func (db *DB) RunMigrations() error {
	migration := `
-- Projects
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    supervisor_id TEXT NOT NULL DEFAULT '',
    extraction_rules TEXT NOT NULL DEFAULT '[]',
    ignore_patterns TEXT NOT NULL DEFAULT '[]',
    active_rdmp_version_id TEXT REFERENCES rdmp_versions(id),
    rdmp_version_counter INTEGER NOT NULL DEFAULT 0,
    created_by TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

-- Project membership
CREATE TABLE IF NOT EXISTS project_members (
    project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    role TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (project_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_member_user ON project_members(user_id);

-- Storage roots
CREATE TABLE IF NOT EXISTS storage_roots (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    UNIQUE (project_id, name)
);

-- RDMP templates, shared across projects
CREATE TABLE IF NOT EXISTS rdmp_templates (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS rdmp_template_versions (
    id TEXT PRIMARY KEY,
    template_id TEXT NOT NULL REFERENCES rdmp_templates(id) ON DELETE CASCADE,
    version_int INTEGER NOT NULL,
    title TEXT NOT NULL,
    fields TEXT NOT NULL,
    roles TEXT NOT NULL,
    created_by TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (template_id, version_int)
);

-- RDMP versions
CREATE TABLE IF NOT EXISTS rdmp_versions (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    version_int INTEGER NOT NULL,
    title TEXT NOT NULL,
    fields TEXT NOT NULL,
    roles TEXT NOT NULL,
    state TEXT NOT NULL CHECK(state IN ('DRAFT', 'ACTIVE', 'SUPERSEDED')),
    created_by TEXT NOT NULL,
    approved_by TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    activated_at TIMESTAMP,
    superseded_at TIMESTAMP,
    template_version_id TEXT REFERENCES rdmp_template_versions(id),
    UNIQUE (project_id, version_int)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_rdmp_single_active ON rdmp_versions(project_id) WHERE state = 'ACTIVE';

-- Samples
CREATE TABLE IF NOT EXISTS samples (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    identifier TEXT NOT NULL,
    created_rdmp_version_id TEXT NOT NULL REFERENCES rdmp_versions(id),
    created_by TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    UNIQUE (project_id, identifier)
);

-- Sample field values, one row per non-null value
CREATE TABLE IF NOT EXISTS sample_field_values (
    sample_id TEXT NOT NULL REFERENCES samples(id) ON DELETE CASCADE,
    field_key TEXT NOT NULL,
    value_type TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (sample_id, field_key)
);

-- Pending ingests
CREATE TABLE IF NOT EXISTS pending_ingests (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    storage_root_id TEXT NOT NULL REFERENCES storage_roots(id) ON DELETE CASCADE,
    relative_path TEXT NOT NULL,
    file_size_bytes INTEGER NOT NULL,
    file_hash_sha256 TEXT,
    observed_at TIMESTAMP NOT NULL,
    reported_by TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL CHECK(status IN ('PENDING', 'MATCHED', 'ASSIGNED', 'IGNORED')),
    inferred_sample_identifier TEXT,
    matched_sample_id TEXT REFERENCES samples(id) ON DELETE SET NULL,
    sample_id TEXT REFERENCES samples(id) ON DELETE RESTRICT,
    blocked INTEGER NOT NULL DEFAULT 0,
    reason TEXT NOT NULL DEFAULT '',
    assigned_by TEXT,
    assigned_at TIMESTAMP,
    ignored_by TEXT,
    classified_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    UNIQUE (storage_root_id, relative_path),
    CHECK (status != 'ASSIGNED' OR sample_id IS NOT NULL)
);
CREATE INDEX IF NOT EXISTS idx_ingest_project_status ON pending_ingests(project_id, status);
CREATE INDEX IF NOT EXISTS idx_ingest_sample ON pending_ingests(sample_id);

-- Releases: frozen, immutable project snapshots
CREATE TABLE IF NOT EXISTS releases (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    release_tag TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    rdmp_version_id TEXT NOT NULL REFERENCES rdmp_versions(id),
    rdmp_version_int INTEGER NOT NULL,
    parent_release_id TEXT REFERENCES releases(id),
    sample_count INTEGER NOT NULL,
    complete_count INTEGER NOT NULL,
    file_count INTEGER NOT NULL,
    snapshot TEXT NOT NULL,
    created_by TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (project_id, release_tag)
);
CREATE INDEX IF NOT EXISTS idx_release_project ON releases(project_id, created_at);

-- Audit log
CREATE TABLE IF NOT EXISTS audit_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id TEXT NOT NULL,
    actor_id TEXT NOT NULL DEFAULT '',
    action TEXT NOT NULL,
    target_type TEXT NOT NULL DEFAULT '',
    target_id TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_project ON audit_log(project_id, created_at);
CREATE INDEX IF NOT EXISTS idx_audit_target ON audit_log(target_id);

-- API keys for authentication
CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    last_used TIMESTAMP,
    description TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_user_keys ON api_keys(user_id);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// withTx runs fn in a transaction, committing when it returns nil.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
