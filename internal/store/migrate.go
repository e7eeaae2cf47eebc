package store

import (
	"database/sql"
	"fmt"
)

// Migration is one versioned schema change. Versions start at 1 and
// increase strictly; Func runs inside its own BEGIN IMMEDIATE transaction.
// Grounded on the teacher's internal/storage/sqlite/migrations.go
// migrationsList, generalized to one-transaction-per-migration so a failed
// migration never advances the schema version (spec.md §4.1, testable
// property #7) instead of the teacher's single whole-run transaction.
type Migration struct {
	Version     int
	Description string
	Func        func(tx *sql.Tx) error
}

// MigrationInfo is the public, read-only view of a Migration used by the
// migration-status query (spec.md §4.1).
type MigrationInfo struct {
	Version     int
	Description string
}

// MigrationStatus is the result of Store.MigrationStatus.
type MigrationStatus struct {
	CurrentVersion    int
	LatestVersion     int
	PendingCount      int
	AppliedMigrations []MigrationInfo
	PendingMigrations []MigrationInfo
}

// getSchemaVersion returns the highest applied version, or 0 if the
// schema_migrations table does not exist yet.
func getSchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='schema_migrations'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("checking schema_migrations table: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var version sql.NullInt64
	err = db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

// applyMigrations runs every migration whose version exceeds the current
// schema version, in ascending order, each inside its own BEGIN IMMEDIATE
// transaction. A failing migration rolls back cleanly without advancing the
// version; rerunning applyMigrations afterward retries from the same point
// (idempotent: already-applied versions are skipped).
func applyMigrations(db *sql.DB, migrations []Migration) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("bootstrapping schema_migrations table: %w", err)
	}

	current, err := getSchemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d (%s): begin: %w", m.Version, m.Description, err)
		}

		if err := m.Func(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
			m.Version, m.Description,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s): recording version: %w", m.Version, m.Description, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d (%s): commit: %w", m.Version, m.Description, err)
		}
	}

	return nil
}

// MigrationStatus returns the current/latest version and the applied/pending
// migration lists (spec.md §4.1).
func (s *Store) MigrationStatus() (MigrationStatus, error) {
	current, err := getSchemaVersion(s.db)
	if err != nil {
		return MigrationStatus{}, err
	}

	latest := 0
	var applied, pending []MigrationInfo
	for _, m := range migrations {
		if m.Version > latest {
			latest = m.Version
		}
		info := MigrationInfo{Version: m.Version, Description: m.Description}
		if m.Version <= current {
			applied = append(applied, info)
		} else {
			pending = append(pending, info)
		}
	}

	return MigrationStatus{
		CurrentVersion:    current,
		LatestVersion:     latest,
		PendingCount:      len(pending),
		AppliedMigrations: applied,
		PendingMigrations: pending,
	}, nil
}
