package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jamesaphoenix/tx/internal/storeerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

// InsertTask inserts a brand-new task row. The caller (taskservice) has
// already assigned t.ID and validated it.
func InsertTask(ctx context.Context, q Queryer, t *types.Task) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, status, parent_id, score, created_at,
			updated_at, completed_at, metadata, assignee_type, assignee_id, assigned_at, assigned_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, string(t.Status), t.ParentID, t.Score,
		t.CreatedAt, t.UpdatedAt, t.CompletedAt, t.Metadata,
		string(t.AssigneeType), t.AssigneeID, t.AssignedAt, t.AssignedBy,
	)
	if err != nil {
		return storeerr.Database("insert task", err)
	}
	return nil
}

func scanTask(row interface{ Scan(dest ...interface{}) error }) (*types.Task, error) {
	var t types.Task
	var status, assigneeType string
	if err := row.Scan(
		&t.ID, &t.Title, &t.Description, &status, &t.ParentID, &t.Score,
		&t.CreatedAt, &t.UpdatedAt, &t.CompletedAt, &t.Metadata,
		&assigneeType, &t.AssigneeID, &t.AssignedAt, &t.AssignedBy,
	); err != nil {
		return nil, err
	}
	t.Status = types.Status(status)
	t.AssigneeType = types.AssigneeType(assigneeType)
	return &t, nil
}

const taskColumns = `id, title, description, status, parent_id, score, created_at,
	updated_at, completed_at, metadata, assignee_type, assignee_id, assigned_at, assigned_by`

// GetTask returns a single task, or a NotFoundError if it doesn't exist.
func GetTask(ctx context.Context, q Queryer, id string) (*types.Task, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, storeerr.NotFound("task", id)
	}
	if err != nil {
		return nil, storeerr.Database("get task", err)
	}
	return t, nil
}

// GetTasks returns every task whose ID is in ids, in no particular order.
// Missing IDs are silently omitted (used internally by batch enrichment).
func GetTasks(ctx context.Context, q Queryer, ids []string) ([]*types.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, storeerr.Database("get tasks", err)
	}
	defer rows.Close()

	var out []*types.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, storeerr.Database("scan task", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTask overwrites every mutable column of an existing task.
func UpdateTask(ctx context.Context, q Queryer, t *types.Task) error {
	res, err := q.ExecContext(ctx, `
		UPDATE tasks SET title=?, description=?, status=?, parent_id=?, score=?, updated_at=?,
			completed_at=?, metadata=?, assignee_type=?, assignee_id=?, assigned_at=?, assigned_by=?
		WHERE id=?`,
		t.Title, t.Description, string(t.Status), t.ParentID, t.Score, t.UpdatedAt,
		t.CompletedAt, t.Metadata, string(t.AssigneeType), t.AssigneeID, t.AssignedAt, t.AssignedBy,
		t.ID,
	)
	if err != nil {
		return storeerr.Database("update task", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeerr.Database("update task rows affected", err)
	}
	if n == 0 {
		return storeerr.NotFound("task", t.ID)
	}
	return nil
}

// DeleteTask removes a single task row. Cascading (dependencies, children)
// is the caller's (taskservice's) responsibility.
func DeleteTask(ctx context.Context, q Queryer, id string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return storeerr.Database("delete task", err)
	}
	return nil
}

// ChildrenIDs returns the direct children of a task, ordered by id.
func ChildrenIDs(ctx context.Context, q Queryer, id string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM tasks WHERE parent_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, storeerr.Database("children", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeerr.Database("scan child id", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ChildrenIDsBatch returns direct children for every id in ids as a single
// query, so getWithDepsBatch can satisfy spec.md §8's fixed-query-count
// invariant regardless of input size.
func ChildrenIDsBatch(ctx context.Context, q Queryer, ids []string) (map[string][]string, error) {
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
	rows, err := q.QueryContext(ctx, `SELECT parent_id, id FROM tasks WHERE parent_id IN (`+placeholders+`) ORDER BY id`, args...)
	if err != nil {
		return nil, storeerr.Database("children batch", err)
	}
	defer rows.Close()
	for rows.Next() {
		var parent, child string
		if err := rows.Scan(&parent, &child); err != nil {
			return nil, storeerr.Database("scan children batch", err)
		}
		out[parent] = append(out[parent], child)
	}
	return out, rows.Err()
}

// AncestorChain walks parent_id from id up to the root, returning IDs in
// child-to-root order (id's immediate parent first). Used by cycle
// detection and auto-completion.
func AncestorChain(ctx context.Context, q Queryer, id string) ([]string, error) {
	var chain []string
	current := id
	for i := 0; i < 1000; i++ { // guards against any latent cycle in stored data
		var parent sql.NullString
		err := q.QueryRowContext(ctx, `SELECT parent_id FROM tasks WHERE id = ?`, current).Scan(&parent)
		if err == sql.ErrNoRows {
			break
		}
		if err != nil {
			return nil, storeerr.Database("ancestor chain", err)
		}
		if !parent.Valid {
			break
		}
		chain = append(chain, parent.String)
		current = parent.String
	}
	return chain, nil
}

// ListTasks returns tasks matching filter, ordered score DESC, id ASC.
func ListTasks(ctx context.Context, q Queryer, filter types.TaskFilter) ([]*types.Task, error) {
	where, args := taskFilterClause(filter)
	query := `SELECT ` + taskColumns + ` FROM tasks` + where + ` ORDER BY score DESC, id ASC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerr.Database("list tasks", err)
	}
	defer rows.Close()
	var out []*types.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, storeerr.Database("scan task", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountTasks counts tasks matching filter (Limit is ignored).
func CountTasks(ctx context.Context, q Queryer, filter types.TaskFilter) (int, error) {
	where, args := taskFilterClause(filter)
	var n int
	err := q.QueryRowContext(ctx, `SELECT count(*) FROM tasks`+where, args...).Scan(&n)
	if err != nil {
		return 0, storeerr.Database("count tasks", err)
	}
	return n, nil
}

func taskFilterClause(filter types.TaskFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if len(filter.Statuses) > 0 {
		placeholders := strings.Repeat("?,", len(filter.Statuses))
		placeholders = placeholders[:len(placeholders)-1]
		clauses = append(clauses, `status IN (`+placeholders+`)`)
		for _, s := range filter.Statuses {
			args = append(args, string(s))
		}
	}
	if filter.ParentID != nil {
		clauses = append(clauses, `parent_id = ?`)
		args = append(args, *filter.ParentID)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ExistsTask reports whether a task with id exists.
func ExistsTask(ctx context.Context, q Queryer, id string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT count(*) FROM tasks WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, storeerr.Database("exists task", err)
	}
	return n > 0, nil
}

// Now is a seam for tests that need deterministic timestamps; production
// code always calls time.Now().
var Now = time.Now
