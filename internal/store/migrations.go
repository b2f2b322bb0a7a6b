package store

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations run in order; each entry's index+1 is its version.
var migrations = []string{
	`CREATE TABLE runs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		input_hash  TEXT NOT NULL,
		filename    TEXT NOT NULL DEFAULT '',
		config_json TEXT NOT NULL,
		stats_json  TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);
	CREATE TABLE chunks (
		chunk_id   TEXT PRIMARY KEY,
		run_id     INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		chapter    INTEGER NOT NULL,
		kind       TEXT NOT NULL,
		start_para INTEGER NOT NULL,
		end_para   INTEGER NOT NULL,
		para_count INTEGER NOT NULL,
		char_len   INTEGER NOT NULL,
		text       TEXT NOT NULL
	);
	CREATE INDEX idx_chunks_chapter ON chunks(chapter);
	CREATE INDEX idx_chunks_kind ON chunks(kind);`,
}

// applyMigrations brings the schema up to the current version.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))`,
			version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", version, err)
		}
	}
	return nil
}
