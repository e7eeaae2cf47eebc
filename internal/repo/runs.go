package repo

import (
	"context"
	"database/sql"

	"github.com/jamesaphoenix/tx/internal/storeerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

const runColumns = `id, task_id, worker_id, status, started_at, ended_at`

func scanRun(row interface{ Scan(dest ...interface{}) error }) (*types.Run, error) {
	var r types.Run
	var status string
	if err := row.Scan(&r.ID, &r.TaskID, &r.WorkerID, &status, &r.StartedAt, &r.EndedAt); err != nil {
		return nil, err
	}
	r.Status = types.RunStatus(status)
	return &r, nil
}

// InsertRun records the start of one agent execution.
func InsertRun(ctx context.Context, q Queryer, r *types.Run) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO runs (id, task_id, worker_id, status, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.TaskID, r.WorkerID, string(r.Status), r.StartedAt, r.EndedAt,
	)
	if err != nil {
		return storeerr.Database("insert run", err)
	}
	return nil
}

// GetRun fetches a run by ID.
func GetRun(ctx context.Context, q Queryer, id string) (*types.Run, error) {
	row := q.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, storeerr.NotFound("run", id)
	}
	if err != nil {
		return nil, storeerr.Database("get run", err)
	}
	return r, nil
}

// UpdateRunStatus transitions a run (stalled/cancelled/completed) and
// stamps ended_at when it leaves the running state.
func UpdateRunStatus(ctx context.Context, q Queryer, id string, status types.RunStatus, endedAt interface{}) error {
	res, err := q.ExecContext(ctx, `UPDATE runs SET status = ?, ended_at = ? WHERE id = ?`,
		string(status), endedAt, id)
	if err != nil {
		return storeerr.Database("update run status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeerr.Database("update run status rows affected", err)
	}
	if n == 0 {
		return storeerr.NotFound("run", id)
	}
	return nil
}

// RunningRuns returns every run still in the running state.
func RunningRuns(ctx context.Context, q Queryer) ([]*types.Run, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+runColumns+` FROM runs WHERE status = 'running'`)
	if err != nil {
		return nil, storeerr.Database("running runs", err)
	}
	defer rows.Close()
	var out []*types.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, storeerr.Database("scan running run", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunsForWorker returns every run owned by a worker, most recent first.
func RunsForWorker(ctx context.Context, q Queryer, workerID string) ([]*types.Run, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+runColumns+` FROM runs WHERE worker_id = ? ORDER BY started_at DESC`, workerID)
	if err != nil {
		return nil, storeerr.Database("runs for worker", err)
	}
	defer rows.Close()
	var out []*types.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, storeerr.Database("scan worker run", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
