package repo

import (
	"context"
	"database/sql"

	"github.com/jamesaphoenix/tx/internal/storeerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

const heartbeatColumns = `run_id, stdout_bytes, stderr_bytes, transcript_bytes, last_check_at, last_activity_at, last_delta_bytes`

func scanHeartbeat(row interface{ Scan(dest ...interface{}) error }) (*types.HeartbeatState, error) {
	var h types.HeartbeatState
	if err := row.Scan(&h.RunID, &h.StdoutBytes, &h.StderrBytes, &h.TranscriptBytes,
		&h.LastCheckAt, &h.LastActivityAt, &h.LastDeltaBytes); err != nil {
		return nil, err
	}
	return &h, nil
}

// UpsertHeartbeat creates or replaces a run's heartbeat bookkeeping row.
func UpsertHeartbeat(ctx context.Context, q Queryer, h *types.HeartbeatState) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO heartbeat_state (run_id, stdout_bytes, stderr_bytes, transcript_bytes,
			last_check_at, last_activity_at, last_delta_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			stdout_bytes = excluded.stdout_bytes, stderr_bytes = excluded.stderr_bytes,
			transcript_bytes = excluded.transcript_bytes, last_check_at = excluded.last_check_at,
			last_activity_at = excluded.last_activity_at, last_delta_bytes = excluded.last_delta_bytes`,
		h.RunID, h.StdoutBytes, h.StderrBytes, h.TranscriptBytes, h.LastCheckAt, h.LastActivityAt, h.LastDeltaBytes,
	)
	if err != nil {
		return storeerr.Database("upsert heartbeat", err)
	}
	return nil
}

// GetHeartbeat fetches the heartbeat row for a run.
func GetHeartbeat(ctx context.Context, q Queryer, runID string) (*types.HeartbeatState, error) {
	row := q.QueryRowContext(ctx, `SELECT `+heartbeatColumns+` FROM heartbeat_state WHERE run_id = ?`, runID)
	h, err := scanHeartbeat(row)
	if err == sql.ErrNoRows {
		return nil, storeerr.NotFound("heartbeat_state", runID)
	}
	if err != nil {
		return nil, storeerr.Database("get heartbeat", err)
	}
	return h, nil
}

// HeartbeatsForRunning joins heartbeat_state to runs in the running state,
// a single query the reaper uses to decide which runs have gone silent.
func HeartbeatsForRunning(ctx context.Context, q Queryer) ([]*types.HeartbeatState, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT h.run_id, h.stdout_bytes, h.stderr_bytes, h.transcript_bytes,
			h.last_check_at, h.last_activity_at, h.last_delta_bytes
		FROM heartbeat_state h
		JOIN runs r ON r.id = h.run_id
		WHERE r.status = 'running'`)
	if err != nil {
		return nil, storeerr.Database("heartbeats for running", err)
	}
	defer rows.Close()
	var out []*types.HeartbeatState
	for rows.Next() {
		h, err := scanHeartbeat(rows)
		if err != nil {
			return nil, storeerr.Database("scan heartbeat", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
