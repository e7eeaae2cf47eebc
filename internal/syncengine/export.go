package syncengine

import (
	"bufio"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jamesaphoenix/tx/internal/repo"
	"github.com/jamesaphoenix/tx/internal/storeerr"
	"github.com/jamesaphoenix/tx/internal/store"
	"github.com/jamesaphoenix/tx/internal/types"
)

// exportBound is the "high bound" spec.md §4.4 names for the export read.
const exportBound = 100_000

// Notifier receives one line per notable sync event, mirroring the
// teacher's internal/autoimport.Notifier shape.
type Notifier interface {
	Notify(msg string)
}

type noopNotifier struct{}

func (noopNotifier) Notify(string) {}

// Engine implements export, import, compact, and status over a single
// JSONL mirror path.
type Engine struct {
	store    *store.Store
	path     string
	notifier Notifier
	now      func() time.Time
}

func New(s *store.Store, path string, notifier Notifier) *Engine {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Engine{store: s, path: path, notifier: notifier, now: time.Now}
}

func formatTS(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

// Export reads every task and dependency (bounded by exportBound), converts
// them to upsert/dep_add operations, sorts deterministically by ts, and
// atomically replaces the JSONL file. Tombstones previously appended via
// AppendDelete/AppendDepRemove that are still pending (not yet compacted
// away) are preserved by merging them into the freshly generated snapshot.
func (e *Engine) Export(ctx context.Context) error {
	return withFileLock(e.path, func() error {
		db := e.store.DB()

		tasks, err := repo.ListTasks(ctx, db, types.TaskFilter{Limit: exportBound})
		if err != nil {
			return err
		}
		deps, err := allDependencies(ctx, db, tasks, exportBound)
		if err != nil {
			return err
		}

		ops := make([]Operation, 0, len(tasks)+len(deps))
		for _, t := range tasks {
			ops = append(ops, taskToUpsert(t))
		}
		for _, d := range deps {
			ops = append(ops, Operation{
				V: 1, Op: OpDepAdd, TS: formatTS(d.CreatedAt),
				BlockerID: d.BlockerID, BlockedID: d.BlockedID,
			})
		}

		// Preserve any tombstones from the existing file that still name
		// entities not present in the fresh snapshot (i.e. genuinely deleted
		// since the last export), so a delete recorded via AppendDelete isn't
		// silently dropped by the next full-state export.
		existing, err := readOperations(e.path)
		if err == nil {
			present := map[string]bool{}
			for _, o := range ops {
				present[o.EntityKey()] = true
			}
			for _, o := range existing {
				if (o.Op == OpDelete || o.Op == OpDepRemove) && !present[o.EntityKey()] {
					ops = append(ops, o)
				}
			}
		}

		sort.SliceStable(ops, func(i, j int) bool { return ops[i].TS < ops[j].TS })

		if err := writeOperationsAtomic(e.path, ops); err != nil {
			return err
		}

		now := e.now()
		if err := repo.SetSyncConfig(ctx, db, "last_export", formatTS(now)); err != nil {
			return err
		}
		e.notifier.Notify(fmt.Sprintf("sync: exported %d tasks, %d dependencies", len(tasks), len(deps)))
		return nil
	})
}

func taskToUpsert(t *types.Task) Operation {
	return Operation{
		V: 1, Op: OpUpsert, TS: formatTS(t.UpdatedAt), ID: t.ID,
		Data: &TaskData{
			Title: t.Title, Description: t.Description, Status: string(t.Status),
			Score: t.Score, ParentID: t.ParentID, Metadata: t.Metadata,
		},
	}
}

// AppendDelete records a task deletion as a standalone tombstone line,
// appended directly to the JSONL file under the write lock. Export merges
// this forward into subsequent snapshots until Compact drops it.
func (e *Engine) AppendDelete(ctx context.Context, taskID string) error {
	return withFileLock(e.path, func() error {
		return appendOperation(e.path, Operation{V: 1, Op: OpDelete, TS: formatTS(e.now()), ID: taskID})
	})
}

// AppendDepRemove records a dependency removal as a standalone tombstone.
func (e *Engine) AppendDepRemove(ctx context.Context, blockerID, blockedID string) error {
	return withFileLock(e.path, func() error {
		return appendOperation(e.path, Operation{
			V: 1, Op: OpDepRemove, TS: formatTS(e.now()), BlockerID: blockerID, BlockedID: blockedID,
		})
	})
}

func allDependencies(ctx context.Context, q repo.Queryer, _ []*types.Task, limit int) ([]types.TaskDependency, error) {
	return repo.AllDependencies(ctx, q, limit)
}

// writeOperationsAtomic writes ops as JSONL to a temp file in the same
// directory, then renames over path — the same atomic-replace pattern the
// teacher's export/autoimport code uses to avoid readers observing a
// torn write.
func writeOperationsAtomic(path string, ops []Operation) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return storeerr.Database("create temp export file", err)
	}
	tmpPath := tmp.Name()
	w := bufio.NewWriter(tmp)
	for _, op := range ops {
		line, err := op.MarshalLine()
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return storeerr.Database("marshal operation", err)
		}
		w.Write(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return storeerr.Database("flush export file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return storeerr.Database("sync export file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return storeerr.Database("close export file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return storeerr.Database("rename export file", err)
	}
	return nil
}

// appendOperation appends one line to an existing (or new) JSONL file.
func appendOperation(path string, op Operation) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return storeerr.Database("open jsonl for append", err)
	}
	defer f.Close()
	line, err := op.MarshalLine()
	if err != nil {
		return storeerr.Database("marshal operation", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return storeerr.Database("append operation", err)
	}
	return nil
}

// hashFile computes the SHA-256 hash of the file's current contents, used
// by import's TOCTOU re-check (spec.md §4.4 step 7).
func hashFile(path string) ([32]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return [32]byte{}, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return [32]byte{}, err
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}
