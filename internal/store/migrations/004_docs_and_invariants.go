package migrations

import "database/sql"

// DocsAndInvariants creates the docs and invariants tables referenced by
// spec.md §1 as "a second body of code ... referenced only where it
// intersects the core" — storage only, no rendering or checking logic.
func DocsAndInvariants(tx *sql.Tx) error {
	_, err := tx.Exec(`
CREATE TABLE docs (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	body       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE invariants (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`)
	return err
}
