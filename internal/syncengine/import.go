package syncengine

import (
	"context"
	"fmt"
	"time"

	"github.com/jamesaphoenix/tx/internal/repo"
	"github.com/jamesaphoenix/tx/internal/storeerr"
	"github.com/jamesaphoenix/tx/internal/store"
	"github.com/jamesaphoenix/tx/internal/types"
)

// Result summarizes one import's effect on the database.
type Result struct {
	Inserted        int
	Updated         int
	Skipped         int
	Conflicts       int
	Deleted         int
	DepAdded        int
	DepSkipped      int
	DepRemoved      int
	DepFailures     int
}

// Import parses the JSONL mirror, reconciles it against the database in a
// single BEGIN IMMEDIATE transaction, and re-validates the file's content
// hash immediately before commit to guard against a concurrent writer
// (spec.md §4.4).
func (e *Engine) Import(ctx context.Context) (Result, error) {
	var result Result

	err := withFileLock(e.path, func() error {
		ops, err := readOperations(e.path)
		if err != nil {
			return err
		}
		capturedHash, err := hashFile(e.path)
		if err != nil {
			return storeerr.Database("hash jsonl before import", err)
		}

		deduped := dedupeByEntity(ops)
		upserts, deletes, depAdds, depRemoves := partition(deduped)
		upserts = topoSortUpserts(upserts)

		return e.store.WithTx(ctx, func(tx *store.Tx) error {
			presentIDs := map[string]bool{}
			for _, op := range upserts {
				presentIDs[op.ID] = true
			}

			for _, op := range upserts {
				r, err := applyTaskUpsert(ctx, tx, op, presentIDs, e.now())
				if err != nil {
					return err
				}
				switch r {
				case upsertInserted:
					result.Inserted++
				case upsertUpdated:
					result.Updated++
				case upsertSkipped:
					result.Skipped++
				case upsertConflict:
					result.Conflicts++
				}
			}

			for _, op := range deletes {
				deleted, err := applyTaskDelete(ctx, tx, op)
				if err != nil {
					return err
				}
				if deleted {
					result.Deleted++
				}
			}

			var depFailures int
			for _, op := range depAdds {
				exists, err := repo.DependencyExists(ctx, tx, op.BlockerID, op.BlockedID)
				if err != nil {
					return err
				}
				if exists {
					result.DepSkipped++
					continue
				}
				ts, parseErr := time.Parse(time.RFC3339Nano, op.TS)
				if parseErr != nil {
					ts = e.now()
				}
				if err := repo.InsertDependency(ctx, tx, op.BlockerID, op.BlockedID, ts); err != nil {
					depFailures++
					continue
				}
				result.DepAdded++
			}
			result.DepFailures = depFailures

			for _, op := range depRemoves {
				if err := repo.DeleteDependency(ctx, tx, op.BlockerID, op.BlockedID); err != nil {
					return err
				}
				result.DepRemoved++
			}

			// Step 8: a task's edges and its row must land atomically; any
			// collected dependency-insert failure aborts the whole import.
			if depFailures > 0 {
				return storeerr.StaleData("import: %d dependency insert(s) failed; rolling back", depFailures)
			}

			// Step 7: re-read the file while still holding the write lock and
			// confirm no concurrent writer touched it since step 1.
			currentHash, err := hashFile(e.path)
			if err != nil {
				return storeerr.Database("hash jsonl before commit", err)
			}
			if currentHash != capturedHash {
				return storeerr.StaleData("concurrent export detected during import; aborting")
			}

			return repo.SetSyncConfig(ctx, tx, "last_import", formatTS(e.now()))
		})
	})
	if err != nil {
		return Result{}, err
	}
	e.notifier.Notify(fmt.Sprintf(
		"sync: import inserted=%d updated=%d skipped=%d conflicts=%d deleted=%d dep_added=%d dep_removed=%d",
		result.Inserted, result.Updated, result.Skipped, result.Conflicts, result.Deleted, result.DepAdded, result.DepRemoved))
	return result, nil
}

type upsertOutcome int

const (
	upsertInserted upsertOutcome = iota
	upsertUpdated
	upsertSkipped
	upsertConflict
)

func applyTaskUpsert(ctx context.Context, tx *store.Tx, op Operation, presentIDs map[string]bool, now time.Time) (upsertOutcome, error) {
	ts, err := time.Parse(time.RFC3339Nano, op.TS)
	if err != nil {
		ts = now
	}

	parentID := op.Data.ParentID
	if parentID != nil {
		// Step 5: after topo ordering the parent should already exist, but an
		// orphaned reference (parent dropped from this import batch and not
		// yet in the DB) must not violate the parent_id FK.
		if !presentIDs[*parentID] {
			exists, err := repo.ExistsTask(ctx, tx, *parentID)
			if err != nil {
				return 0, err
			}
			if !exists {
				parentID = nil
			}
		}
	}

	existing, err := repo.GetTask(ctx, tx, op.ID)
	if _, isNotFound := err.(*storeerr.NotFoundError); isNotFound {
		t := &types.Task{
			ID: op.ID, Title: op.Data.Title, Description: op.Data.Description,
			Status: types.Status(op.Data.Status), ParentID: parentID, Score: op.Data.Score,
			CreatedAt: ts, UpdatedAt: ts, Metadata: op.Data.Metadata,
			AssigneeType: types.AssigneeAgent,
		}
		if t.Metadata == "" {
			t.Metadata = "{}"
		}
		if !t.Status.Valid() {
			t.Status = types.StatusBacklog
		}
		if err := repo.InsertTask(ctx, tx, t); err != nil {
			return 0, err
		}
		return upsertInserted, nil
	}
	if err != nil {
		return 0, err
	}

	switch {
	case ts.After(existing.UpdatedAt):
		existing.Title = op.Data.Title
		existing.Description = op.Data.Description
		if s := types.Status(op.Data.Status); s.Valid() {
			existing.Status = s
		}
		existing.Score = op.Data.Score
		existing.ParentID = parentID
		existing.Metadata = op.Data.Metadata
		existing.UpdatedAt = ts
		if err := repo.UpdateTask(ctx, tx, existing); err != nil {
			return 0, err
		}
		return upsertUpdated, nil
	case ts.Equal(existing.UpdatedAt):
		return upsertSkipped, nil
	default:
		return upsertConflict, nil
	}
}

func applyTaskDelete(ctx context.Context, tx *store.Tx, op Operation) (bool, error) {
	existing, err := repo.GetTask(ctx, tx, op.ID)
	if _, isNotFound := err.(*storeerr.NotFoundError); isNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	ts, parseErr := time.Parse(time.RFC3339Nano, op.TS)
	if parseErr != nil {
		return false, nil
	}
	if !ts.After(existing.UpdatedAt) {
		return false, nil
	}
	if err := repo.DeleteDependenciesInvolving(ctx, tx, op.ID); err != nil {
		return false, err
	}
	if err := repo.DeleteTask(ctx, tx, op.ID); err != nil {
		return false, err
	}
	return true, nil
}
