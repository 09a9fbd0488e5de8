// Package journal keeps a sqlite history of runs and node exits for
// post-run diagnostics.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"swarmlab/pkg/model"
)

// Journal records one row per node per run.
type Journal struct {
	db    *sql.DB
	runID string
}

// Open creates or opens the journal database at path and starts a new run.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal mkdir: %w", err)
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal open: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS runs(id TEXT PRIMARY KEY, started_at INTEGER);
CREATE TABLE IF NOT EXISTS nodes(
  run_id TEXT, idx INTEGER, port INTEGER, pid INTEGER,
  state TEXT, exit_code INTEGER, log_path TEXT,
  launched_at INTEGER, exited_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_nodes_run ON nodes(run_id);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	j := &Journal{db: db, runID: time.Now().UTC().Format("20060102-150405")}
	if _, err := db.ExecContext(ctx, `INSERT OR REPLACE INTO runs(id, started_at) VALUES(?,?)`,
		j.runID, time.Now().Unix()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal run row: %w", err)
	}
	return j, nil
}

// RunID identifies the run this journal is recording.
func (j *Journal) RunID() string { return j.runID }

// RecordLaunch inserts the row for a freshly started node.
func (j *Journal) RecordLaunch(rec model.NodeRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO nodes(run_id, idx, port, pid, state, exit_code, log_path, launched_at, exited_at)
		 VALUES(?,?,?,?,?,?,?,?,0)`,
		j.runID, rec.Index, rec.Endpoint.Port, rec.PID, string(rec.State), rec.ExitCode,
		rec.LogPath, rec.LaunchedAt.Unix())
	return err
}

// RecordExit updates the node's row with its final state and exit code.
func (j *Journal) RecordExit(rec model.NodeRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := j.db.ExecContext(ctx,
		`UPDATE nodes SET state=?, exit_code=?, exited_at=? WHERE run_id=? AND idx=?`,
		string(rec.State), rec.ExitCode, rec.ExitedAt.Unix(), j.runID, rec.Index)
	return err
}

// NodeRows returns the recorded nodes for one run in index order.
func (j *Journal) NodeRows(runID string) ([]model.NodeRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rows, err := j.db.QueryContext(ctx,
		`SELECT idx, port, pid, state, exit_code, log_path, launched_at, exited_at
		 FROM nodes WHERE run_id=? ORDER BY idx`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.NodeRecord
	for rows.Next() {
		var rec model.NodeRecord
		var state string
		var launched, exited int64
		if err := rows.Scan(&rec.Index, &rec.Endpoint.Port, &rec.PID, &state,
			&rec.ExitCode, &rec.LogPath, &launched, &exited); err != nil {
			return nil, err
		}
		rec.Endpoint.Host = model.LoopbackHost
		rec.Multiaddr = rec.Endpoint.Multiaddr()
		rec.State = model.NodeState(state)
		rec.LaunchedAt = time.Unix(launched, 0)
		if exited > 0 {
			rec.ExitedAt = time.Unix(exited, 0)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}
