package repo

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/jamesaphoenix/tx/internal/storeerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

const claimColumns = `id, task_id, worker_id, claimed_at, lease_expires_at, renewed_count, status`

func scanClaim(row interface{ Scan(dest ...interface{}) error }) (*types.Claim, error) {
	var c types.Claim
	var status string
	if err := row.Scan(&c.ID, &c.TaskID, &c.WorkerID, &c.ClaimedAt, &c.LeaseExpiresAt, &c.RenewedCount, &status); err != nil {
		return nil, err
	}
	c.Status = types.ClaimStatus(status)
	return &c, nil
}

// ActiveClaimForTask returns the current active claim on a task, if any.
// A sql.ErrNoRows-derived NotFoundError means the task is unclaimed.
func ActiveClaimForTask(ctx context.Context, q Queryer, taskID string) (*types.Claim, error) {
	row := q.QueryRowContext(ctx, `SELECT `+claimColumns+` FROM claims WHERE task_id = ? AND status = 'active'`, taskID)
	c, err := scanClaim(row)
	if err == sql.ErrNoRows {
		return nil, storeerr.NotFound("claim", taskID)
	}
	if err != nil {
		return nil, storeerr.Database("active claim for task", err)
	}
	return c, nil
}

// InsertClaim creates a new active claim. The caller must run this inside
// a transaction that has already checked ActiveClaimForTask, since the
// partial unique index only catches the race, it doesn't resolve it into a
// typed AlreadyClaimedError.
func InsertClaim(ctx context.Context, q Queryer, c *types.Claim) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO claims (task_id, worker_id, claimed_at, lease_expires_at, renewed_count, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.TaskID, c.WorkerID, c.ClaimedAt, c.LeaseExpiresAt, c.RenewedCount, string(c.Status),
	)
	if err != nil {
		return 0, storeerr.Database("insert claim", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeerr.Database("insert claim id", err)
	}
	return id, nil
}

// GetClaim fetches a claim by its primary key.
func GetClaim(ctx context.Context, q Queryer, id int64) (*types.Claim, error) {
	row := q.QueryRowContext(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = ?`, id)
	c, err := scanClaim(row)
	if err == sql.ErrNoRows {
		return nil, storeerr.NotFound("claim", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, storeerr.Database("get claim", err)
	}
	return c, nil
}

// UpdateClaimStatus transitions a claim's status (release/expire/complete).
func UpdateClaimStatus(ctx context.Context, q Queryer, id int64, status types.ClaimStatus) error {
	res, err := q.ExecContext(ctx, `UPDATE claims SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return storeerr.Database("update claim status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeerr.Database("update claim status rows affected", err)
	}
	if n == 0 {
		return storeerr.NotFound("claim", strconv.FormatInt(id, 10))
	}
	return nil
}

// RenewClaim extends a claim's lease and bumps its renewal counter in one
// statement, so the check-then-write is atomic under the row lock.
func RenewClaim(ctx context.Context, q Queryer, id int64, newExpiry interface{}) error {
	res, err := q.ExecContext(ctx, `
		UPDATE claims SET lease_expires_at = ?, renewed_count = renewed_count + 1
		WHERE id = ? AND status = 'active'`, newExpiry, id)
	if err != nil {
		return storeerr.Database("renew claim", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeerr.Database("renew claim rows affected", err)
	}
	if n == 0 {
		return storeerr.NotFound("claim", strconv.FormatInt(id, 10))
	}
	return nil
}

// ExpiredActiveClaims returns every active claim whose lease has already
// passed, for claimservice.GetExpired.
func ExpiredActiveClaims(ctx context.Context, q Queryer, asOf interface{}) ([]*types.Claim, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+claimColumns+` FROM claims WHERE status = 'active' AND lease_expires_at < ?`, asOf)
	if err != nil {
		return nil, storeerr.Database("expired active claims", err)
	}
	defer rows.Close()
	var out []*types.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, storeerr.Database("scan expired claim", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ActiveClaimsForWorker returns every active claim held by a worker, used by
// releaseByWorker on worker deregistration/crash.
func ActiveClaimsForWorker(ctx context.Context, q Queryer, workerID string) ([]*types.Claim, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+claimColumns+` FROM claims WHERE worker_id = ? AND status = 'active'`, workerID)
	if err != nil {
		return nil, storeerr.Database("active claims for worker", err)
	}
	defer rows.Close()
	var out []*types.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, storeerr.Database("scan worker claim", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ClaimHistoryForTask returns every claim ever held on a task, most recent
// first, for audit/debugging surfaces.
func ClaimHistoryForTask(ctx context.Context, q Queryer, taskID string) ([]*types.Claim, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+claimColumns+` FROM claims WHERE task_id = ? ORDER BY claimed_at DESC`, taskID)
	if err != nil {
		return nil, storeerr.Database("claim history", err)
	}
	defer rows.Close()
	var out []*types.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, storeerr.Database("scan claim history row", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
