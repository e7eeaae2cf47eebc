package migrations

import "database/sql"

// LearningsAndEdges creates the retrieval corpus tables of spec.md §3/§4.5:
// learnings, candidates, and the typed graph edges table.
func LearningsAndEdges(tx *sql.Tx) error {
	_, err := tx.Exec(`
CREATE TABLE learnings (
	id            TEXT PRIMARY KEY,
	content       TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	embedding     BLOB,
	outcome_score REAL,
	usage_count   INTEGER NOT NULL DEFAULT 0,
	category      TEXT NOT NULL DEFAULT ''
);

CREATE VIRTUAL TABLE learnings_fts USING fts5(
	content,
	content='learnings',
	content_rowid='rowid'
);

CREATE TRIGGER learnings_fts_insert AFTER INSERT ON learnings BEGIN
	INSERT INTO learnings_fts(rowid, content) VALUES (new.rowid, new.content);
END;
CREATE TRIGGER learnings_fts_delete AFTER DELETE ON learnings BEGIN
	INSERT INTO learnings_fts(learnings_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
END;
CREATE TRIGGER learnings_fts_update AFTER UPDATE ON learnings BEGIN
	INSERT INTO learnings_fts(learnings_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
	INSERT INTO learnings_fts(rowid, content) VALUES (new.rowid, new.content);
END;

CREATE TABLE candidates (
	id           TEXT PRIMARY KEY,
	content      TEXT NOT NULL,
	confidence   TEXT NOT NULL DEFAULT 'medium' CHECK (confidence IN ('low','medium','high')),
	source_run   TEXT,
	source_task  TEXT REFERENCES tasks(id) ON DELETE SET NULL,
	source_file  TEXT,
	status       TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','promoted','rejected')),
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX idx_candidates_status ON candidates(status);

CREATE TABLE edges (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	from_type      TEXT NOT NULL CHECK (from_type IN ('learning','file','task','run','doc')),
	from_id        TEXT NOT NULL,
	to_type        TEXT NOT NULL CHECK (to_type IN ('learning','file','task','run','doc')),
	to_id          TEXT NOT NULL,
	type           TEXT NOT NULL,
	weight         REAL NOT NULL DEFAULT 1.0 CHECK (weight >= 0 AND weight <= 1),
	metadata       TEXT NOT NULL DEFAULT '{}',
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	invalidated_at DATETIME
);

CREATE INDEX idx_edges_from ON edges(from_type, from_id);
CREATE INDEX idx_edges_to ON edges(to_type, to_id);
CREATE INDEX idx_edges_type ON edges(type);
`)
	return err
}
