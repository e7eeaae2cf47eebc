// Package repo holds the thin, stateless repository surfaces over the
// store: one file per entity (tasks, dependencies, claims, workers,
// learnings, candidates, edges, docs, sync config, runs, heartbeat state).
// Every function takes a Queryer so it runs identically whether called
// directly against the store or inside a store.Tx — grounded on the
// teacher's storage.Transaction interface, which exposes the same
// operations for atomic multi-step workflows (internal/storage/storage.go).
package repo

import (
	"context"
	"database/sql"
)

// Queryer is satisfied by both *sql.DB and *sql.Tx (via store.Tx).
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}
