// Package migrations holds one file per schema version, each exporting one
// named function taking a *sql.Tx (CoreSchema, ClaimsAndWorkers, ...) that
// internal/store's migrations_list.go registers. Grounded on the teacher's
// internal/storage/sqlite/migrations package layout (one file per named
// migration), generalized to a numeric version ordering per spec.md §4.1.
package migrations

import "database/sql"

// CoreSchema creates the task graph: tasks and task_dependencies, with every
// CHECK constraint and index spec.md §3/§4.1 names, including the composite
// indexes the dashboard's ORDER BY must satisfy without a temp b-tree
// (testable property #12).
func CoreSchema(tx *sql.Tx) error {
	_, err := tx.Exec(`
CREATE TABLE tasks (
	id            TEXT PRIMARY KEY CHECK (
	                  id GLOB '[a-z0-9][a-z0-9]*-[a-z0-9][a-z0-9][a-z0-9][a-z0-9][a-z0-9][a-z0-9]*'
	                  AND length(id) BETWEEN 8 AND 16
	              ),
	title         TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'backlog' CHECK (status IN ('backlog','ready','planning','active','done')),
	parent_id     TEXT REFERENCES tasks(id) ON DELETE SET NULL,
	score         REAL NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	completed_at  DATETIME,
	metadata      TEXT NOT NULL DEFAULT '{}',
	assignee_type TEXT NOT NULL DEFAULT 'agent' CHECK (assignee_type IN ('agent','human')),
	assignee_id   TEXT,
	assigned_at   DATETIME,
	assigned_by   TEXT,
	CHECK (parent_id IS NULL OR parent_id != id)
);

CREATE INDEX idx_tasks_status ON tasks(status);
CREATE INDEX idx_tasks_parent_id ON tasks(parent_id);
CREATE INDEX idx_tasks_score ON tasks(score);
CREATE INDEX idx_tasks_updated_at ON tasks(updated_at);
CREATE INDEX idx_tasks_score_id ON tasks(score DESC, id ASC);
CREATE INDEX idx_tasks_status_score_id ON tasks(status, score DESC, id ASC);

CREATE TABLE task_dependencies (
	blocker_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	blocked_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (blocker_id, blocked_id),
	CHECK (blocker_id != blocked_id)
);

CREATE INDEX idx_task_dependencies_blocked ON task_dependencies(blocked_id);
`)
	return err
}
