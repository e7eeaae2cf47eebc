package syncengine

import (
	"fmt"

	"github.com/gofrs/flock"
)

// withFileLock runs fn while holding an exclusive, process-level lock on
// path+".lock" — the JSONL-specific write lock spec.md §5 distinguishes
// from the SQLite write lock (which BEGIN IMMEDIATE already serializes).
// Grounded on cmd/bd/sync.go's flock.TryLock + defer Unlock discipline.
func withFileLock(path string, fn func() error) error {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring sync lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another sync operation is in progress")
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}
