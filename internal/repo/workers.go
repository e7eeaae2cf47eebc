package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jamesaphoenix/tx/internal/storeerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

const workerColumns = `id, name, hostname, pid, status, registered_at, last_heartbeat_at,
	current_task_id, capabilities, metadata`

func scanWorker(row interface{ Scan(dest ...interface{}) error }) (*types.Worker, error) {
	var w types.Worker
	var status, capabilitiesJSON string
	if err := row.Scan(&w.ID, &w.Name, &w.Hostname, &w.PID, &status, &w.RegisteredAt,
		&w.LastHeartbeatAt, &w.CurrentTaskID, &capabilitiesJSON, &w.Metadata); err != nil {
		return nil, err
	}
	w.Status = types.WorkerStatus(status)
	if capabilitiesJSON != "" {
		if err := json.Unmarshal([]byte(capabilitiesJSON), &w.Capabilities); err != nil {
			return nil, err
		}
	}
	return &w, nil
}

// UpsertWorker registers a new worker or re-registers an existing one under
// the same ID (a worker process restarting keeps its identity).
func UpsertWorker(ctx context.Context, q Queryer, w *types.Worker) error {
	capabilitiesJSON, err := json.Marshal(w.Capabilities)
	if err != nil {
		return storeerr.Validation("marshal worker capabilities: %v", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO workers (id, name, hostname, pid, status, registered_at, last_heartbeat_at,
			current_task_id, capabilities, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, hostname = excluded.hostname, pid = excluded.pid,
			status = excluded.status, last_heartbeat_at = excluded.last_heartbeat_at,
			capabilities = excluded.capabilities, metadata = excluded.metadata`,
		w.ID, w.Name, w.Hostname, w.PID, string(w.Status), w.RegisteredAt, w.LastHeartbeatAt,
		w.CurrentTaskID, string(capabilitiesJSON), w.Metadata,
	)
	if err != nil {
		return storeerr.Database("upsert worker", err)
	}
	return nil
}

// GetWorker fetches a worker by ID.
func GetWorker(ctx context.Context, q Queryer, id string) (*types.Worker, error) {
	row := q.QueryRowContext(ctx, `SELECT `+workerColumns+` FROM workers WHERE id = ?`, id)
	w, err := scanWorker(row)
	if err == sql.ErrNoRows {
		return nil, storeerr.NotFound("worker", id)
	}
	if err != nil {
		return nil, storeerr.Database("get worker", err)
	}
	return w, nil
}

// UpdateWorkerStatus sets a worker's status and current task, and bumps its
// heartbeat timestamp in the same statement.
func UpdateWorkerStatus(ctx context.Context, q Queryer, id string, status types.WorkerStatus, currentTaskID *string, heartbeatAt interface{}) error {
	res, err := q.ExecContext(ctx, `
		UPDATE workers SET status = ?, current_task_id = ?, last_heartbeat_at = ? WHERE id = ?`,
		string(status), currentTaskID, heartbeatAt, id)
	if err != nil {
		return storeerr.Database("update worker status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeerr.Database("update worker status rows affected", err)
	}
	if n == 0 {
		return storeerr.NotFound("worker", id)
	}
	return nil
}

// TouchWorkerHeartbeat bumps last_heartbeat_at without touching status.
func TouchWorkerHeartbeat(ctx context.Context, q Queryer, id string, at interface{}) error {
	res, err := q.ExecContext(ctx, `UPDATE workers SET last_heartbeat_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return storeerr.Database("touch worker heartbeat", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeerr.Database("touch worker heartbeat rows affected", err)
	}
	if n == 0 {
		return storeerr.NotFound("worker", id)
	}
	return nil
}

// SetWorkerDead flags a worker dead without touching its current_task_id,
// since the reaper reasons about that worker's runs/claims separately.
func SetWorkerDead(ctx context.Context, q Queryer, id string, at interface{}) error {
	res, err := q.ExecContext(ctx, `UPDATE workers SET status = 'dead', last_heartbeat_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return storeerr.Database("set worker dead", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeerr.Database("set worker dead rows affected", err)
	}
	if n == 0 {
		return storeerr.NotFound("worker", id)
	}
	return nil
}

// DeleteWorker deregisters a worker. Callers must release its active claims
// first (workerservice.Deregister does this in one transaction).
func DeleteWorker(ctx context.Context, q Queryer, id string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM workers WHERE id = ?`, id)
	if err != nil {
		return storeerr.Database("delete worker", err)
	}
	return nil
}

// ListWorkers returns every registered worker, most recently registered
// first.
func ListWorkers(ctx context.Context, q Queryer) ([]*types.Worker, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+workerColumns+` FROM workers ORDER BY registered_at DESC`)
	if err != nil {
		return nil, storeerr.Database("list workers", err)
	}
	defer rows.Close()
	var out []*types.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, storeerr.Database("scan worker", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// StaleWorkers returns workers whose last heartbeat is older than cutoff
// and whose status isn't already dead, for workerservice.Stale.
func StaleWorkers(ctx context.Context, q Queryer, cutoff interface{}) ([]*types.Worker, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+workerColumns+` FROM workers WHERE last_heartbeat_at < ? AND status != 'dead'`, cutoff)
	if err != nil {
		return nil, storeerr.Database("stale workers", err)
	}
	defer rows.Close()
	var out []*types.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, storeerr.Database("scan stale worker", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
