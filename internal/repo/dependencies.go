package repo

import (
	"context"
	"strings"

	"github.com/jamesaphoenix/tx/internal/storeerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

// InsertDependency records that blockerID must complete before blockedID.
// The blocker_id != blocked_id CHECK and the composite PRIMARY KEY protect
// against self-edges and duplicates at the storage boundary.
func InsertDependency(ctx context.Context, q Queryer, blockerID, blockedID string, createdAt interface{}) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO task_dependencies (blocker_id, blocked_id, created_at) VALUES (?, ?, ?)`,
		blockerID, blockedID, createdAt,
	)
	if err != nil {
		return storeerr.Database("insert dependency", err)
	}
	return nil
}

// DeleteDependency removes a single blocker -> blocked edge.
func DeleteDependency(ctx context.Context, q Queryer, blockerID, blockedID string) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM task_dependencies WHERE blocker_id = ? AND blocked_id = ?`,
		blockerID, blockedID,
	)
	if err != nil {
		return storeerr.Database("delete dependency", err)
	}
	return nil
}

// DeleteDependenciesInvolving removes every dependency edge touching id,
// either as blocker or blocked. Used by taskservice.Remove.
func DeleteDependenciesInvolving(ctx context.Context, q Queryer, id string) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM task_dependencies WHERE blocker_id = ? OR blocked_id = ?`, id, id)
	if err != nil {
		return storeerr.Database("delete dependencies involving task", err)
	}
	return nil
}

// BlockedBy returns the IDs of tasks that must complete before id can run
// (id is the blocked side).
func BlockedBy(ctx context.Context, q Queryer, id string) ([]string, error) {
	return dependencyColumn(ctx, q, `SELECT blocker_id FROM task_dependencies WHERE blocked_id = ? ORDER BY blocker_id`, id)
}

// Blocks returns the IDs of tasks that id is blocking (id is the blocker).
func Blocks(ctx context.Context, q Queryer, id string) ([]string, error) {
	return dependencyColumn(ctx, q, `SELECT blocked_id FROM task_dependencies WHERE blocker_id = ? ORDER BY blocked_id`, id)
}

func dependencyColumn(ctx context.Context, q Queryer, query, id string) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, storeerr.Database("dependency column", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, storeerr.Database("scan dependency", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// BlockedByBatch and BlocksBatch mirror ChildrenIDsBatch: one query each,
// regardless of len(ids), so TaskWithDeps batch enrichment stays within the
// fixed-query-count invariant.
func BlockedByBatch(ctx context.Context, q Queryer, ids []string) (map[string][]string, error) {
	return dependencyColumnBatch(ctx, q, "blocked_id", "blocker_id", ids)
}

func BlocksBatch(ctx context.Context, q Queryer, ids []string) (map[string][]string, error) {
	return dependencyColumnBatch(ctx, q, "blocker_id", "blocked_id", ids)
}

func dependencyColumnBatch(ctx context.Context, q Queryer, keyCol, valCol string, ids []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT ` + keyCol + `, ` + valCol + ` FROM task_dependencies WHERE ` + keyCol + ` IN (` + placeholders + `) ORDER BY ` + valCol
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerr.Database("dependency batch", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, val string
		if err := rows.Scan(&key, &val); err != nil {
			return nil, storeerr.Database("scan dependency batch", err)
		}
		out[key] = append(out[key], val)
	}
	return out, rows.Err()
}

// AllDependencies returns every dependency edge, bounded by limit, ordered
// by blocker_id then blocked_id. Used by the sync engine's export/status,
// which need timestamps the batch helpers above don't carry.
func AllDependencies(ctx context.Context, q Queryer, limit int) ([]types.TaskDependency, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT blocker_id, blocked_id, created_at FROM task_dependencies
		ORDER BY blocker_id, blocked_id LIMIT ?`, limit)
	if err != nil {
		return nil, storeerr.Database("all dependencies", err)
	}
	defer rows.Close()
	var out []types.TaskDependency
	for rows.Next() {
		var d types.TaskDependency
		if err := rows.Scan(&d.BlockerID, &d.BlockedID, &d.CreatedAt); err != nil {
			return nil, storeerr.Database("scan dependency", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// IncompleteBlockerCount returns how many of id's blockers have not reached
// StatusDone. Zero means id is ready (modulo its own status).
func IncompleteBlockerCount(ctx context.Context, q Queryer, id string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT count(*) FROM task_dependencies d
		JOIN tasks b ON b.id = d.blocker_id
		WHERE d.blocked_id = ? AND b.status != ?`, id, string(types.StatusDone)).Scan(&n)
	if err != nil {
		return 0, storeerr.Database("incomplete blocker count", err)
	}
	return n, nil
}

// DependencyExists reports whether this exact blocker -> blocked edge is
// already recorded; the reverse edge is not checked. Callers use it to skip
// duplicate inserts.
func DependencyExists(ctx context.Context, q Queryer, blockerID, blockedID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT count(*) FROM task_dependencies WHERE blocker_id = ? AND blocked_id = ?`,
		blockerID, blockedID).Scan(&n)
	if err != nil {
		return false, storeerr.Database("dependency exists", err)
	}
	return n > 0, nil
}
