package syncengine

import (
	"fmt"
	"sort"
)

// Compact deduplicates the JSONL mirror by entity (keeping the latest
// state), drops delete/dep_remove tombstones, sorts by ts, and writes the
// result back atomically (spec.md §4.4 Compact).
func (e *Engine) Compact() error {
	return withFileLock(e.path, func() error {
		ops, err := readOperations(e.path)
		if err != nil {
			return err
		}
		deduped := dedupeByEntity(ops)

		kept := deduped[:0:0]
		for _, op := range deduped {
			if op.Op == OpDelete || op.Op == OpDepRemove {
				continue
			}
			kept = append(kept, op)
		}
		sort.SliceStable(kept, func(i, j int) bool { return kept[i].TS < kept[j].TS })

		if err := writeOperationsAtomic(e.path, kept); err != nil {
			return err
		}
		e.notifier.Notify(fmt.Sprintf("sync: compacted to %d operations", len(kept)))
		return nil
	})
}
