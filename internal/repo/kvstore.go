package repo

import (
	"context"
	"database/sql"

	"github.com/jamesaphoenix/tx/internal/storeerr"
)

// The sync_config, orchestrator_state, and metadata tables share the same
// key/value shape; one generic helper set backs all three so the sync
// engine, orchestrator config, and TOCTOU hash bookkeeping don't each carry
// a near-duplicate repo file.

func kvSet(ctx context.Context, q Queryer, table, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO `+table+` (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return storeerr.Database("set "+table, err)
	}
	return nil
}

func kvGet(ctx context.Context, q Queryer, table, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM `+table+` WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, storeerr.Database("get "+table, err)
	}
	return value, true, nil
}

func kvAll(ctx context.Context, q Queryer, table string) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT key, value FROM `+table)
	if err != nil {
		return nil, storeerr.Database("list "+table, err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, storeerr.Database("scan "+table, err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

func kvDelete(ctx context.Context, q Queryer, table, key string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE key = ?`, key)
	if err != nil {
		return storeerr.Database("delete "+table, err)
	}
	return nil
}

// SetSyncConfig / GetSyncConfig / AllSyncConfig back the sync engine's
// last_export / last_import / auto_sync watermarks.
func SetSyncConfig(ctx context.Context, q Queryer, key, value string) error { return kvSet(ctx, q, "sync_config", key, value) }
func GetSyncConfig(ctx context.Context, q Queryer, key string) (string, bool, error) {
	return kvGet(ctx, q, "sync_config", key)
}
func AllSyncConfig(ctx context.Context, q Queryer) (map[string]string, error) {
	return kvAll(ctx, q, "sync_config")
}

// SetOrchestratorState / GetOrchestratorState back lease_duration_minutes
// and other orchestrator-tunable settings.
func SetOrchestratorState(ctx context.Context, q Queryer, key, value string) error {
	return kvSet(ctx, q, "orchestrator_state", key, value)
}
func GetOrchestratorState(ctx context.Context, q Queryer, key string) (string, bool, error) {
	return kvGet(ctx, q, "orchestrator_state", key)
}
func AllOrchestratorState(ctx context.Context, q Queryer) (map[string]string, error) {
	return kvAll(ctx, q, "orchestrator_state")
}

// SetMetadata / GetMetadata / DeleteMetadata back internal bookkeeping such
// as the sync engine's last-known JSONL content hash, used for the TOCTOU
// re-check before an import transaction commits.
func SetMetadata(ctx context.Context, q Queryer, key, value string) error {
	return kvSet(ctx, q, "metadata", key, value)
}
func GetMetadata(ctx context.Context, q Queryer, key string) (string, bool, error) {
	return kvGet(ctx, q, "metadata", key)
}
func DeleteMetadata(ctx context.Context, q Queryer, key string) error {
	return kvDelete(ctx, q, "metadata", key)
}
