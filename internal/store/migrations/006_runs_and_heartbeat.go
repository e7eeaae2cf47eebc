package migrations

import "database/sql"

// RunsAndHeartbeat creates the run and heartbeat_state tables backing the
// stalled-run reaper (spec.md §3).
func RunsAndHeartbeat(tx *sql.Tx) error {
	_, err := tx.Exec(`
CREATE TABLE runs (
	id         TEXT PRIMARY KEY,
	task_id    TEXT REFERENCES tasks(id) ON DELETE SET NULL,
	worker_id  TEXT NOT NULL REFERENCES workers(id) ON DELETE CASCADE,
	status     TEXT NOT NULL DEFAULT 'running' CHECK (status IN ('running','stalled','cancelled','completed')),
	started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	ended_at   DATETIME
);

CREATE INDEX idx_runs_status ON runs(status);
CREATE INDEX idx_runs_task_id ON runs(task_id);

CREATE TABLE heartbeat_state (
	run_id            TEXT PRIMARY KEY REFERENCES runs(id) ON DELETE CASCADE,
	stdout_bytes      INTEGER NOT NULL DEFAULT 0,
	stderr_bytes      INTEGER NOT NULL DEFAULT 0,
	transcript_bytes  INTEGER NOT NULL DEFAULT 0,
	last_check_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_activity_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_delta_bytes  INTEGER NOT NULL DEFAULT 0
);
`)
	return err
}
