package migrations

import "database/sql"

// ClaimsAndWorkers creates the lease/worker tables of spec.md §3/§4.3.
func ClaimsAndWorkers(tx *sql.Tx) error {
	_, err := tx.Exec(`
CREATE TABLE workers (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL DEFAULT '',
	hostname          TEXT NOT NULL DEFAULT '',
	pid               INTEGER NOT NULL DEFAULT 0,
	status            TEXT NOT NULL DEFAULT 'starting' CHECK (status IN ('starting','idle','busy','stopping','dead')),
	registered_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_heartbeat_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	current_task_id   TEXT REFERENCES tasks(id) ON DELETE SET NULL,
	capabilities      TEXT NOT NULL DEFAULT '[]',
	metadata          TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE claims (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id          TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	worker_id        TEXT NOT NULL REFERENCES workers(id) ON DELETE CASCADE,
	claimed_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	lease_expires_at DATETIME NOT NULL,
	renewed_count    INTEGER NOT NULL DEFAULT 0,
	status           TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active','released','expired','completed'))
);

CREATE INDEX idx_claims_task_id ON claims(task_id);
CREATE INDEX idx_claims_worker_id ON claims(worker_id);
CREATE INDEX idx_claims_status ON claims(status);
-- at most one active claim per task is enforced in the claim service inside
-- a transaction (spec.md §4.3); this partial unique index is defense in
-- depth against any code path that bypasses the service.
CREATE UNIQUE INDEX idx_claims_one_active_per_task ON claims(task_id) WHERE status = 'active';
`)
	return err
}
