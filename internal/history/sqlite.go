// Package history keeps a SQLite ledger of runs and their per-role outcomes.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/manasm11/workforce/internal/runner"
	_ "modernc.org/sqlite"
)

// Store persists run history in SQLite. It implements runner.Recorder.
type Store struct {
	db *sql.DB
}

var _ runner.Recorder = (*Store)(nil)

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID         string
	Vision     string
	Roles      []string
	Mode       string
	Model      string
	Policy     string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress
	Completed  int
	Failed     int
	Skipped    int
	OutputDir  string
}

// OutcomeRecord is one role outcome within a run.
type OutcomeRecord struct {
	RunID      string
	RoleID     string
	Status     string
	ResultKind string
	Path       string
	Error      string
	Duration   time.Duration
	RecordedAt time.Time
}

// Open opens (or creates) the database at path. ":memory:" is accepted for
// throwaway ledgers.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("history: ensure dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	// A single connection keeps :memory: databases shared and serialises writers.
	db.SetMaxOpenConns(1)
	s, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database and ensures the schema.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureSchema(db); err != nil {
		return nil, fmt.Errorf("history: schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun inserts the run row.
func (s *Store) StartRun(ctx context.Context, run runner.RunInfo) error {
	roles, err := json.Marshal(run.Roles)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, vision, roles_json, mode, model, policy, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Vision,
		string(roles),
		string(run.Mode),
		run.Model,
		string(run.Policy),
		normalizeTime(run.StartedAt),
	)
	return err
}

// RecordOutcome appends one role outcome.
func (s *Store) RecordOutcome(ctx context.Context, runID string, o runner.Outcome) error {
	errText := ""
	if o.Err != nil {
		errText = o.Err.Error()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes (run_id, role_id, status, result_kind, path, error_text, duration_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		o.RoleID,
		string(o.Status),
		o.Result.Kind.String(),
		o.Path,
		errText,
		o.Duration.Milliseconds(),
		normalizeTime(time.Now()),
	)
	return err
}

// FinishRun stores the final counts.
func (s *Store) FinishRun(ctx context.Context, sum runner.Summary) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, completed = ?, failed = ?, skipped = ?, output_dir = ?
		WHERE id = ?
	`,
		normalizeTime(time.Now()),
		sum.Completed,
		sum.Failed,
		sum.Skipped,
		sum.OutputDir,
		sum.RunID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("history: run %s not found", sum.RunID)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
		SELECT id, vision, roles_json, mode, model, policy, started_at, finished_at,
		       completed, failed, skipped, output_dir
		FROM runs
		ORDER BY started_at DESC, rowid DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			r         RunRecord
			rolesJSON string
			started   sql.NullTime
			finished  sql.NullTime
		)
		if err := rows.Scan(
			&r.ID,
			&r.Vision,
			&rolesJSON,
			&r.Mode,
			&r.Model,
			&r.Policy,
			&started,
			&finished,
			&r.Completed,
			&r.Failed,
			&r.Skipped,
			&r.OutputDir,
		); err != nil {
			return nil, err
		}
		if rolesJSON != "" {
			_ = json.Unmarshal([]byte(rolesJSON), &r.Roles)
		}
		if started.Valid {
			r.StartedAt = started.Time
		}
		if finished.Valid {
			r.FinishedAt = finished.Time
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// Outcomes returns a run's role outcomes in execution order.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]OutcomeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, role_id, status, result_kind, path, error_text, duration_ms, recorded_at
		FROM outcomes
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutcomeRecord
	for rows.Next() {
		var (
			o          OutcomeRecord
			durationMS int64
			recorded   sql.NullTime
		)
		if err := rows.Scan(&o.RunID, &o.RoleID, &o.Status, &o.ResultKind, &o.Path, &o.Error, &durationMS, &recorded); err != nil {
			return nil, err
		}
		o.Duration = time.Duration(durationMS) * time.Millisecond
		if recorded.Valid {
			o.RecordedAt = recorded.Time
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			vision TEXT NOT NULL,
			roles_json TEXT NOT NULL DEFAULT '[]',
			mode TEXT NOT NULL,
			model TEXT NOT NULL DEFAULT '',
			policy TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMP,
			finished_at TIMESTAMP,
			completed INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			output_dir TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			role_id TEXT NOT NULL,
			status TEXT NOT NULL,
			result_kind TEXT NOT NULL,
			path TEXT NOT NULL DEFAULT '',
			error_text TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			recorded_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`)
	return err
}

func normalizeTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
