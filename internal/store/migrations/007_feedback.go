package migrations

import "database/sql"

// Feedback creates the learning_feedback table backing the retrieval
// pipeline's optional feedback-tracker boost (spec.md §4.5 step 5,
// SPEC_FULL.md SUPPLEMENTED FEATURES).
func Feedback(tx *sql.Tx) error {
	_, err := tx.Exec(`
CREATE TABLE learning_feedback (
	learning_id TEXT PRIMARY KEY REFERENCES learnings(id) ON DELETE CASCADE,
	score       REAL NOT NULL CHECK (score >= 0 AND score <= 1),
	votes       INTEGER NOT NULL DEFAULT 0,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`)
	return err
}
