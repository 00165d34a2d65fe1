package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"antsbot.ai/internal/tactic"
)

// timeLayout is fixed width so started_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// RunIndex is a queryable history of scenario runs. The JSONL run log stays
// the source of truth; this is for "when did raze_hill last pass" questions.
type RunIndex struct {
	db *sql.DB
}

func OpenRunIndex(path string) (*RunIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &RunIndex{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL,
			started_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			passed INTEGER NOT NULL,
			cutoff TEXT NOT NULL,
			game_length INTEGER NOT NULL,
			failures_json TEXT NOT NULL,
			error TEXT NOT NULL,
			archive_path TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_scenario_started ON runs(scenario, started_at);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (x *RunIndex) Close() error {
	if x == nil {
		return nil
	}
	return x.db.Close()
}

// RecordRun upserts one run keyed by its run id.
func (x *RunIndex) RecordRun(ctx context.Context, res tactic.Result) error {
	if x == nil {
		return nil
	}
	if res.RunID == "" {
		return fmt.Errorf("record run: empty run id")
	}
	failures := res.Failures
	if failures == nil {
		failures = []string{}
	}
	fb, err := json.Marshal(failures)
	if err != nil {
		return err
	}
	passed := 0
	if res.Passed {
		passed = 1
	}
	_, err = x.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, scenario, started_at, duration_ms, passed, cutoff, game_length, failures_json, error, archive_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			scenario = excluded.scenario,
			started_at = excluded.started_at,
			duration_ms = excluded.duration_ms,
			passed = excluded.passed,
			cutoff = excluded.cutoff,
			game_length = excluded.game_length,
			failures_json = excluded.failures_json,
			error = excluded.error,
			archive_path = excluded.archive_path
	`, res.RunID, res.Scenario, res.StartedAt.UTC().Format(timeLayout), res.DurationMs, passed,
		res.Cutoff, res.GameLength, string(fb), res.Error, res.ArchivePath)
	return err
}

// RecentRuns returns up to limit runs, newest first. An empty scenario
// matches all scenarios.
func (x *RunIndex) RecentRuns(ctx context.Context, scenario string, limit int) ([]tactic.Result, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := x.db.QueryContext(ctx, `
		SELECT run_id, scenario, started_at, duration_ms, passed, cutoff, game_length, failures_json, error, archive_path
		FROM runs
		WHERE (? = '' OR scenario = ?)
		ORDER BY started_at DESC, run_id DESC
		LIMIT ?
	`, scenario, scenario, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tactic.Result
	for rows.Next() {
		var (
			r       tactic.Result
			started string
			passed  int
			fb      string
		)
		if err := rows.Scan(&r.RunID, &r.Scenario, &started, &r.DurationMs, &passed, &r.Cutoff, &r.GameLength, &fb, &r.Error, &r.ArchivePath); err != nil {
			return nil, err
		}
		ts, err := time.Parse(timeLayout, started)
		if err != nil {
			return nil, fmt.Errorf("run %s: started_at: %w", r.RunID, err)
		}
		r.StartedAt = ts
		r.Passed = passed != 0
		if err := json.Unmarshal([]byte(fb), &r.Failures); err != nil {
			return nil, fmt.Errorf("run %s: failures: %w", r.RunID, err)
		}
		if len(r.Failures) == 0 {
			r.Failures = nil
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PassRate returns passed and total run counts for scenario.
func (x *RunIndex) PassRate(ctx context.Context, scenario string) (passed, total int, err error) {
	err = x.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(passed), 0), COUNT(*) FROM runs WHERE scenario = ?`, scenario,
	).Scan(&passed, &total)
	return passed, total, err
}

type ScenarioStats struct {
	Scenario   string
	Passed     int
	Total      int
	LastRun    time.Time
	LastPassed bool
}

// Stats summarizes every scenario in the index, sorted by name.
func (x *RunIndex) Stats(ctx context.Context) ([]ScenarioStats, error) {
	rows, err := x.db.QueryContext(ctx, `
		SELECT r.scenario, SUM(r.passed), COUNT(*), MAX(r.started_at),
			(SELECT l.passed FROM runs l WHERE l.scenario = r.scenario ORDER BY l.started_at DESC, l.run_id DESC LIMIT 1)
		FROM runs r
		GROUP BY r.scenario
		ORDER BY r.scenario
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScenarioStats
	for rows.Next() {
		var (
			s          ScenarioStats
			last       string
			lastPassed int
		)
		if err := rows.Scan(&s.Scenario, &s.Passed, &s.Total, &last, &lastPassed); err != nil {
			return nil, err
		}
		ts, err := time.Parse(timeLayout, last)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: started_at: %w", s.Scenario, err)
		}
		s.LastRun = ts
		s.LastPassed = lastPassed != 0
		out = append(out, s)
	}
	return out, rows.Err()
}
