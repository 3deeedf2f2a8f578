package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CreateSchema creates the users and files tables plus indexes if they do
// not exist. Sibling-name uniqueness for directories is enforced at the
// store level with partial unique indexes (NULL parent_id bypasses plain
// unique constraints).
//
// UNIQUE(owner_id, path) also interacts with rename: renames update the
// display filename but never rewrite paths, so a renamed directory keeps its
// original path reserved. Recreating that name in the same spot reports
// NAME_TAKEN until the old node is deleted, even though no sibling visibly
// carries the name.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, prefix string) error {
	createUsers := `
		CREATE TABLE IF NOT EXISTS ` + tables.Users + ` (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createUsers); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	createFiles := `
		CREATE TABLE IF NOT EXISTS ` + tables.Files + ` (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL REFERENCES ` + tables.Users + `(id) ON DELETE CASCADE,
			parent_id UUID REFERENCES ` + tables.Files + `(id) ON DELETE CASCADE,
			type TEXT NOT NULL CHECK (type IN ('DIR', 'FILE')),
			path TEXT NOT NULL,
			filename TEXT NOT NULL,
			fsname TEXT,
			mimetype TEXT,
			size BIGINT,
			thumbnail_path TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(owner_id, path)
		)
	`
	if _, err := pool.Exec(ctx, createFiles); err != nil {
		return fmt.Errorf("create files table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `files_owner_parent ON ` + tables.Files + `(owner_id, parent_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + prefix + `files_sibling_dir_unique ON ` + tables.Files + `(owner_id, parent_id, filename) WHERE parent_id IS NOT NULL AND type = 'DIR'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + prefix + `files_root_dir_unique ON ` + tables.Files + `(owner_id, filename) WHERE parent_id IS NULL AND type = 'DIR'`,
	}
	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}

// DropSchema drops the files and users tables. Used by cmd/seed for fresh
// starts in dev/test; the seed command refuses to run this in prod.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{tables.Files, tables.Users} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop table %s: %w", table, err)
		}
	}
	return nil
}
