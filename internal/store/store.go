// Package store persists the pipeline's output collection in SQLite. The
// scalar columns mirror what the indexing collaborator keeps alongside its
// vectors, so the store doubles as the local source of truth for inspection.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/liuwen-dev/novelseg/internal/novel"
)

// ErrNotFound is returned when a requested record doesn't exist.
var ErrNotFound = errors.New("not found")

const driverName = "sqlite"

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// SQLite benefits from a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Run records one pipeline run.
type Run struct {
	ID        int64
	InputHash string
	Filename  string
	Config    json.RawMessage
	Stats     json.RawMessage
	CreatedAt time.Time
}

// SaveRun replaces the stored chunk collection with the given one, recording
// the run's provenance (input hash, config and stats snapshots) in the same
// transaction. Chunk ids are stable across runs on the same input, so the
// previous collection must go first.
func (s *Store) SaveRun(ctx context.Context, inputHash, filename string, configJSON, statsJSON []byte, chunks []novel.Chunk) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return 0, fmt.Errorf("clear chunks: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (input_hash, filename, config_json, stats_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		inputHash, filename, string(configJSON), string(statsJSON),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (chunk_id, run_id, chapter, kind, start_para, end_para, para_count, char_len, text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx,
			c.ChunkID, runID, c.Chapter, string(c.Kind),
			c.StartPara, c.EndPara, c.ParaCount, c.CharLen, c.Text); err != nil {
			return 0, fmt.Errorf("insert chunk %s: %w", c.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// GetChunk fetches a single chunk by id.
func (s *Store) GetChunk(ctx context.Context, chunkID string) (*novel.Chunk, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT chunk_id, chapter, kind, start_para, end_para, para_count, char_len, text
		 FROM chunks WHERE chunk_id = ?`, chunkID)
	var c novel.Chunk
	var kind string
	err := row.Scan(&c.ChunkID, &c.Chapter, &kind, &c.StartPara, &c.EndPara,
		&c.ParaCount, &c.CharLen, &c.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chunk %s: %w", chunkID, err)
	}
	c.Kind = novel.Kind(kind)
	return &c, nil
}

// ListChunks returns chunks ordered by chunk_id, optionally filtered by
// chapter (0 = all) and kind ("" = all). limit <= 0 means no limit.
func (s *Store) ListChunks(ctx context.Context, chapter int, kind novel.Kind, limit int) ([]novel.Chunk, error) {
	query := `SELECT chunk_id, chapter, kind, start_para, end_para, para_count, char_len, text FROM chunks`
	var args []any
	var where []string
	if chapter > 0 {
		where = append(where, `chapter = ?`)
		args = append(args, chapter)
	}
	if kind != "" {
		where = append(where, `kind = ?`)
		args = append(args, string(kind))
	}
	for i, w := range where {
		if i == 0 {
			query += ` WHERE ` + w
		} else {
			query += ` AND ` + w
		}
	}
	query += ` ORDER BY chunk_id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var out []novel.Chunk
	for rows.Next() {
		var c novel.Chunk
		var k string
		if err := rows.Scan(&c.ChunkID, &c.Chapter, &k, &c.StartPara, &c.EndPara,
			&c.ParaCount, &c.CharLen, &c.Text); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.Kind = novel.Kind(k)
		out = append(out, c)
	}
	return out, rows.Err()
}

// LatestRun returns the most recent run record, or ErrNotFound.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, input_hash, filename, config_json, stats_json, created_at
		 FROM runs ORDER BY id DESC LIMIT 1`)
	var r Run
	var cfgJSON, statsJSON, created string
	err := row.Scan(&r.ID, &r.InputHash, &r.Filename, &cfgJSON, &statsJSON, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	r.Config = json.RawMessage(cfgJSON)
	r.Stats = json.RawMessage(statsJSON)
	if t, perr := time.Parse(time.RFC3339, created); perr == nil {
		r.CreatedAt = t
	}
	return &r, nil
}

// CountChunks returns the number of stored chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}
