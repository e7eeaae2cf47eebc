// Package store owns the embedded relational database handle: opening the
// SQLite file, running migrations to the latest schema version, and scoping
// transactions so every exit path either commits or rolls back. Grounded on
// the teacher's internal/storage/sqlite.SQLiteStorage, rebuilt on
// github.com/ncruces/go-sqlite3 (pure Go, no cgo, WASM-hosted via
// tetratelabs/wazero) per the teacher's go.mod.
package store

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/jamesaphoenix/tx/internal/storeerr"
)

// Store is the shared, process-wide database handle. It holds no
// prepared-statement cache and is the only mutable process-wide state in the
// system (spec.md §5, §9).
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite database at path and migrates
// it to the latest schema version. _txlock=immediate makes every
// db.Begin()/BeginTx() issue BEGIN IMMEDIATE, taking the write lock eagerly
// per spec.md §4.1/§5 instead of SQLite's default deferred transaction.
func Open(path string) (*Store, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, storeerr.Database("open", err)
	}
	// SQLite allows only one writer; a single open connection avoids
	// SQLITE_BUSY storms across goroutines sharing this handle.
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db, migrations); err != nil {
		db.Close()
		return nil, storeerr.Database("migrate", err)
	}

	return &Store{db: db}, nil
}

// OpenInMemory opens a private, migrated in-memory database. Used by tests.
func OpenInMemory() (*Store, error) {
	return Open("file::memory:?cache=shared")
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying *sql.DB for repositories. Repositories are
// stateless and always go through this handle or a Tx handed to them by
// WithTx; they never cache rows.
func (s *Store) DB() *sql.DB { return s.db }

// Tx is the scoped transaction handle passed to repository methods that
// must run inside a single atomic unit of work.
type Tx struct {
	*sql.Tx
}

// WithTx runs fn inside a BEGIN IMMEDIATE transaction (via the _txlock=
// immediate DSN option set in Open) and guarantees COMMIT on success or
// ROLLBACK on any error or panic (spec.md §4.1, §5). IMMEDIATE mode takes
// the write lock eagerly, avoiding the read-then-upgrade deadlock that a
// deferred transaction risks when two writers contend for the same rows.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeerr.Database("begin", err)
	}

	tx := &Tx{Tx: sqlTx}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
			return
		}
		if commitErr := sqlTx.Commit(); commitErr != nil {
			err = storeerr.Database("commit", commitErr)
		}
	}()

	err = fn(tx)
	return err
}
