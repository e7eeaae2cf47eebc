package syncengine

import (
	"context"
	"os"
	"time"

	"github.com/jamesaphoenix/tx/internal/repo"
	"github.com/jamesaphoenix/tx/internal/types"
)

// Status reports the counts and dirty flag spec.md §4.4 Status names.
type Status struct {
	DBTaskCount       int
	DBDependencyCount int
	JSONLTaskCount    int
	JSONLDepCount     int
	LastExport        *time.Time
	LastImport        *time.Time
	Dirty             bool
}

// Status computes the current database/JSONL divergence.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	db := e.store.DB()
	var st Status

	dbTasks, err := repo.ListTasks(ctx, db, types.TaskFilter{Limit: exportBound})
	if err != nil {
		return Status{}, err
	}
	st.DBTaskCount = len(dbTasks)

	deps, err := allDependencies(ctx, db, dbTasks, exportBound)
	if err != nil {
		return Status{}, err
	}
	st.DBDependencyCount = len(deps)

	if raw, ok, err := repo.GetSyncConfig(ctx, db, "last_export"); err != nil {
		return Status{}, err
	} else if ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			st.LastExport = &t
		}
	}
	if st.LastExport == nil {
		if info, err := os.Stat(e.path); err == nil {
			mtime := info.ModTime()
			st.LastExport = &mtime
		}
	}

	if raw, ok, err := repo.GetSyncConfig(ctx, db, "last_import"); err != nil {
		return Status{}, err
	} else if ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			st.LastImport = &t
		}
	}

	ops, err := readOperations(e.path)
	fileExists := err == nil
	if fileExists {
		deduped := dedupeByEntity(ops)
		for _, op := range deduped {
			switch op.Op {
			case OpUpsert:
				st.JSONLTaskCount++
			case OpDepAdd:
				st.JSONLDepCount++
			}
		}
	}

	st.Dirty = computeDirty(st, dbTasks, deps, fileExists)
	return st, nil
}

func computeDirty(st Status, tasks []*types.Task, deps []types.TaskDependency, fileExists bool) bool {
	if len(tasks) > 0 && !fileExists {
		return true
	}
	if st.LastExport == nil {
		return true
	}
	for _, t := range tasks {
		if t.UpdatedAt.After(*st.LastExport) {
			return true
		}
	}
	for _, d := range deps {
		if d.CreatedAt.After(*st.LastExport) {
			return true
		}
	}
	if st.DBTaskCount != st.JSONLTaskCount || st.DBDependencyCount != st.JSONLDepCount {
		return true
	}
	return false
}
