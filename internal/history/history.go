// Package history records build runs and their stage outcomes in a sqlite
// file inside the working tree's marker directory. Recording is best effort:
// the pipeline treats history failures as log-worthy, never fatal.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the sqlite run-history database.
type Store struct {
	db   *sql.DB
	path string
}

// Run is one orchestrator invocation over a working tree.
type Run struct {
	ID         string
	Root       string
	Stack      string
	Command    string
	Context    string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
	Projects   []string
}

// StageRecord is one stage execution inside a run.
type StageRecord struct {
	Project   string
	Stage     string
	Status    string
	ExitCode  int
	StartedAt time.Time
	Duration  time.Duration
	Error     string
}

// retainRuns caps how many runs the store keeps. Older runs and their
// stage records go away on the next BeginRun.
const retainRuns = 200

// NewRunID returns a fresh run identifier.
func NewRunID(command string) string {
	command = strings.TrimSpace(command)
	if command == "" {
		command = "run"
	}
	return fmt.Sprintf("%s-%d", command, time.Now().UTC().UnixNano())
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.initSchema(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA foreign_keys=ON;`,
		`PRAGMA busy_timeout=5000;`,
		`
CREATE TABLE IF NOT EXISTS dbox_runs (
  run_id TEXT PRIMARY KEY,
  root TEXT NOT NULL,
  stack TEXT NOT NULL,
  command TEXT NOT NULL,
  context TEXT NOT NULL,
  status TEXT NOT NULL,
  started_at_ns INTEGER NOT NULL,
  finished_at_ns INTEGER NOT NULL,
  projects_json TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS dbox_stages (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id TEXT NOT NULL,
  project TEXT NOT NULL,
  stage TEXT NOT NULL,
  status TEXT NOT NULL,
  exit_code INTEGER NOT NULL,
  started_at_ns INTEGER NOT NULL,
  duration_ns INTEGER NOT NULL,
  error TEXT NOT NULL,
  FOREIGN KEY (run_id) REFERENCES dbox_runs(run_id) ON DELETE CASCADE
);`,
		`CREATE INDEX IF NOT EXISTS idx_dbox_stages_run_id_id ON dbox_stages(run_id, id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// BeginRun inserts the run row with status "running".
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	projectsJSON, err := json.Marshal(run.Projects)
	if err != nil {
		return err
	}
	started := run.StartedAt
	if started.IsZero() {
		started = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO dbox_runs (run_id, root, stack, command, context, status, started_at_ns, finished_at_ns, projects_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.ID, run.Root, run.Stack, run.Command, run.Context, "running",
		started.UnixNano(), 0, string(projectsJSON))
	if err != nil {
		return err
	}
	return s.prune(ctx)
}

// prune drops the oldest runs beyond the retention cap; the cascade takes
// their stage records with them.
func (s *Store) prune(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
DELETE FROM dbox_runs WHERE run_id NOT IN (
  SELECT run_id FROM dbox_runs ORDER BY started_at_ns DESC, run_id DESC LIMIT ?
)`, retainRuns)
	return err
}

// RecordStage appends one stage outcome to the run.
func (s *Store) RecordStage(ctx context.Context, runID string, rec StageRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO dbox_stages (run_id, project, stage, status, exit_code, started_at_ns, duration_ns, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, runID, rec.Project, rec.Stage, rec.Status, rec.ExitCode,
		rec.StartedAt.UnixNano(), int64(rec.Duration), strings.TrimSpace(rec.Error))
	return err
}

// FinishRun stamps the run's final status and finish time.
func (s *Store) FinishRun(ctx context.Context, runID, status string) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE dbox_runs SET status = ?, finished_at_ns = ? WHERE run_id = ?
`, status, time.Now().UTC().UnixNano(), runID)
	return err
}

// MostRecentRunID returns the latest run's identifier, or "" when nothing
// has been recorded yet.
func (s *Store) MostRecentRunID(ctx context.Context) (string, error) {
	var runID string
	err := s.db.QueryRowContext(ctx, `SELECT run_id FROM dbox_runs ORDER BY started_at_ns DESC LIMIT 1`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return runID, err
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, root, stack, command, context, status, started_at_ns, finished_at_ns, projects_json
FROM dbox_runs
ORDER BY started_at_ns DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var run Run
		var startedNS, finishedNS int64
		var projectsJSON string
		if err := rows.Scan(&run.ID, &run.Root, &run.Stack, &run.Command, &run.Context,
			&run.Status, &startedNS, &finishedNS, &projectsJSON); err != nil {
			return nil, err
		}
		run.StartedAt = time.Unix(0, startedNS).UTC()
		if finishedNS > 0 {
			run.FinishedAt = time.Unix(0, finishedNS).UTC()
		}
		if err := json.Unmarshal([]byte(projectsJSON), &run.Projects); err != nil {
			run.Projects = nil
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Stages returns the stage records of one run in execution order.
func (s *Store) Stages(ctx context.Context, runID string) ([]StageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT project, stage, status, exit_code, started_at_ns, duration_ns, error
FROM dbox_stages
WHERE run_id = ?
ORDER BY id
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StageRecord
	for rows.Next() {
		var rec StageRecord
		var startedNS, durationNS int64
		if err := rows.Scan(&rec.Project, &rec.Stage, &rec.Status, &rec.ExitCode,
			&startedNS, &durationNS, &rec.Error); err != nil {
			return nil, err
		}
		rec.StartedAt = time.Unix(0, startedNS).UTC()
		rec.Duration = time.Duration(durationNS)
		out = append(out, rec)
	}
	return out, rows.Err()
}
