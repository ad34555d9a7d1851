// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a SQLite ledger of finished merge jobs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/docmerge/pkg/types"
)

const defaultListLimit = 20

// Store manages the history database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the history database at cfg.Path and creates the
// schema if it does not exist.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: cfg.Path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			output TEXT NOT NULL,
			state TEXT NOT NULL,
			pages INTEGER NOT NULL DEFAULT 0,
			inputs TEXT NOT NULL,
			skipped TEXT,
			error TEXT,
			elapsed_ms INTEGER NOT NULL DEFAULT 0,
			remote_key TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_started_at ON jobs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores rec, replacing any earlier record with the same ID.
func (s *Store) Record(ctx context.Context, rec types.JobRecord) error {
	inputs, err := json.Marshal(rec.Inputs)
	if err != nil {
		return fmt.Errorf("encoding inputs: %w", err)
	}
	skipped, err := json.Marshal(rec.Skipped)
	if err != nil {
		return fmt.Errorf("encoding skipped files: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO jobs
			(id, started_at, output, state, pages, inputs, skipped, error, elapsed_ms, remote_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.Output,
		string(rec.State),
		rec.Pages,
		string(inputs),
		string(skipped),
		rec.Error,
		rec.Elapsed.Milliseconds(),
		rec.RemoteKey,
	)
	if err != nil {
		return fmt.Errorf("recording job %s: %w", rec.ID, err)
	}
	return nil
}

// List returns up to limit records, newest first. A non-positive limit uses
// the default of 20.
func (s *Store) List(ctx context.Context, limit int) ([]types.JobRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, output, state, pages, inputs, skipped, error, elapsed_ms, remote_key
		FROM jobs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var records []types.JobRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	return records, nil
}

// Get returns the record with the given ID.
func (s *Store) Get(ctx context.Context, id string) (types.JobRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, output, state, pages, inputs, skipped, error, elapsed_ms, remote_key
		FROM jobs WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return types.JobRecord{}, fmt.Errorf("job %s not found", id)
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (types.JobRecord, error) {
	var (
		rec                      types.JobRecord
		startedAt, state, inputs string
		skipped, errText, remote sql.NullString
		elapsedMS                int64
	)
	if err := sc.Scan(&rec.ID, &startedAt, &rec.Output, &state, &rec.Pages,
		&inputs, &skipped, &errText, &elapsedMS, &remote); err != nil {
		if err == sql.ErrNoRows {
			return rec, err
		}
		return rec, fmt.Errorf("scanning job: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return rec, fmt.Errorf("parsing start time of job %s: %w", rec.ID, err)
	}
	rec.StartedAt = t
	rec.State = types.JobState(state)
	rec.Error = errText.String
	rec.RemoteKey = remote.String
	rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond

	if err := json.Unmarshal([]byte(inputs), &rec.Inputs); err != nil {
		return rec, fmt.Errorf("decoding inputs of job %s: %w", rec.ID, err)
	}
	if skipped.Valid && skipped.String != "" && skipped.String != "null" {
		if err := json.Unmarshal([]byte(skipped.String), &rec.Skipped); err != nil {
			return rec, fmt.Errorf("decoding skipped files of job %s: %w", rec.ID, err)
		}
	}
	return rec, nil
}
