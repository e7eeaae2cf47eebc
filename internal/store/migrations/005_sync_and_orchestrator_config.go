package migrations

import "database/sql"

// SyncAndOrchestratorConfig creates the two small key/value tables spec.md
// §3/§6 names: sync_config (last_export, last_import, auto_sync) and
// orchestrator_state (lease_duration_minutes and friends).
func SyncAndOrchestratorConfig(tx *sql.Tx) error {
	_, err := tx.Exec(`
CREATE TABLE sync_config (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE orchestrator_state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

-- Generic metadata table for internal bookkeeping (e.g. content hashes used
-- by the sync engine's TOCTOU re-check), kept distinct from sync_config's
-- user-facing watermarks.
CREATE TABLE metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`)
	return err
}
