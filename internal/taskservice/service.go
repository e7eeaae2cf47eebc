// Package taskservice implements the task lifecycle: create, status
// transitions with cycle-safe reparenting, cascade delete, and the
// ancestor auto-completion pass. Grounded on the teacher's
// internal/storage/storage.go Storage interface and cmd/bd's dependency
// checking (internal/storage/sqlite issue update path).
package taskservice

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode"

	"github.com/jamesaphoenix/tx/internal/ids"
	"github.com/jamesaphoenix/tx/internal/repo"
	"github.com/jamesaphoenix/tx/internal/storeerr"
	"github.com/jamesaphoenix/tx/internal/store"
	"github.com/jamesaphoenix/tx/internal/types"
)

// maxCascadeDepth bounds descendant collection on Remove(cascade=true),
// per spec.md §4.2.
const maxCascadeDepth = 1000

// Service implements the task operations of spec.md §4.2.
type Service struct {
	store *store.Store
	now   func() time.Time
}

func New(s *store.Store) *Service {
	return &Service{store: s, now: time.Now}
}

// trimmedTitle strips leading/trailing whitespace and Unicode format
// characters (category Cf, e.g. zero-width space) before emptiness checks.
func trimmedTitle(title string) string {
	return strings.TrimFunc(title, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.Is(unicode.Cf, r)
	})
}

// Create validates input, generates a collision-safe ID, and inserts the
// new task.
func (s *Service) Create(ctx context.Context, input types.CreateTaskInput) (*types.Task, error) {
	if trimmedTitle(input.Title) == "" {
		return nil, storeerr.Validation("title must not be empty")
	}
	if !isFinite(input.Score) {
		return nil, storeerr.Validation("score must be finite")
	}

	var created *types.Task
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		if input.ParentID != nil {
			exists, err := repo.ExistsTask(ctx, tx, *input.ParentID)
			if err != nil {
				return err
			}
			if !exists {
				return storeerr.Validation("parent task %s does not exist", *input.ParentID)
			}
		}

		now := s.now()
		metadata := input.Metadata
		if metadata == "" {
			metadata = "{}"
		}

		for attempt := 0; attempt < ids.MaxCreateAttempts; attempt++ {
			id := ids.Generate("tx", input.Title, input.Description, now, attempt)
			t := &types.Task{
				ID:           id,
				Title:        input.Title,
				Description:  input.Description,
				Status:       types.StatusBacklog,
				ParentID:     input.ParentID,
				Score:        input.Score,
				CreatedAt:    now,
				UpdatedAt:    now,
				Metadata:     metadata,
				AssigneeType: types.AssigneeAgent,
			}
			err := repo.InsertTask(ctx, tx, t)
			if err == nil {
				created = t
				return nil
			}
			if !isUniqueViolation(err) {
				return err
			}
			// collision on generated ID; retry with a fresh nonce
		}
		return storeerr.Database("create task", sql.ErrTxDone)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get returns a bare task.
func (s *Service) Get(ctx context.Context, id string) (*types.Task, error) {
	return repo.GetTask(ctx, s.store.DB(), id)
}

// GetWithDeps returns a single enriched task.
func (s *Service) GetWithDeps(ctx context.Context, id string) (*types.TaskWithDeps, error) {
	out, err := s.GetWithDepsBatch(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, storeerr.NotFound("task", id)
	}
	return out[0], nil
}

// GetWithDepsBatch enriches every task in ids with blockedBy/blocks/
// children/isReady using a small fixed number of queries regardless of
// input size: one task fetch, one children-batch query, two
// dependency-batch queries, and one blocker-status snapshot. Per spec.md
// §4.2/§8.
func (s *Service) GetWithDepsBatch(ctx context.Context, ids []string) ([]*types.TaskWithDeps, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db := s.store.DB()

	tasks, err := repo.GetTasks(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*types.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	children, err := repo.ChildrenIDsBatch(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	blockedBy, err := repo.BlockedByBatch(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	blocks, err := repo.BlocksBatch(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	// Single snapshot of every blocker's status, used to compute isReady for
	// every requested task without an additional per-task query.
	allBlockerIDs := make([]string, 0)
	seen := map[string]bool{}
	for _, blockers := range blockedBy {
		for _, b := range blockers {
			if !seen[b] {
				seen[b] = true
				allBlockerIDs = append(allBlockerIDs, b)
			}
		}
	}
	blockerStatus := map[string]types.Status{}
	if len(allBlockerIDs) > 0 {
		blockerTasks, err := repo.GetTasks(ctx, db, allBlockerIDs)
		if err != nil {
			return nil, err
		}
		for _, bt := range blockerTasks {
			blockerStatus[bt.ID] = bt.Status
		}
	}

	out := make([]*types.TaskWithDeps, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			continue
		}
		ready := types.IsWorkable(t.Status)
		for _, b := range blockedBy[id] {
			if blockerStatus[b] != types.StatusDone {
				ready = false
				break
			}
		}
		out = append(out, &types.TaskWithDeps{
			Task:      *t,
			BlockedBy: blockedBy[id],
			Blocks:    blocks[id],
			Children:  children[id],
			IsReady:   ready,
		})
	}
	return out, nil
}

// Update applies a partial change set under transition/cycle validation.
func (s *Service) Update(ctx context.Context, id string, input types.UpdateTaskInput) (*types.Task, error) {
	var updated *types.Task
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		t, err := repo.GetTask(ctx, tx, id)
		if err != nil {
			return err
		}

		if input.Title != nil {
			if trimmedTitle(*input.Title) == "" {
				return storeerr.Validation("title must not be empty")
			}
			t.Title = *input.Title
		}
		if input.Description != nil {
			t.Description = *input.Description
		}
		if input.Score != nil {
			if !isFinite(*input.Score) {
				return storeerr.Validation("score must be finite")
			}
			t.Score = *input.Score
		}
		if input.Metadata != nil {
			t.Metadata = *input.Metadata
		}
		if input.AssigneeType != nil {
			t.AssigneeType = *input.AssigneeType
		}
		if input.AssigneeID != nil {
			t.AssigneeID = *input.AssigneeID
		}
		if input.AssignedBy != nil {
			t.AssignedBy = *input.AssignedBy
		}

		if input.ParentID != nil {
			newParent := *input.ParentID
			if newParent != nil {
				if *newParent == id {
					return storeerr.Validation("task %s cannot be its own parent", id)
				}
				exists, err := repo.ExistsTask(ctx, tx, *newParent)
				if err != nil {
					return err
				}
				if !exists {
					return storeerr.Validation("parent task %s does not exist", *newParent)
				}
				ancestors, err := repo.AncestorChain(ctx, tx, *newParent)
				if err != nil {
					return err
				}
				for _, a := range ancestors {
					if a == id {
						return storeerr.Validation("parent %s is a descendant of %s; would create a cycle", *newParent, id)
					}
				}
			}
			t.ParentID = newParent
		}

		if input.Status != nil {
			newStatus := *input.Status
			if !newStatus.Valid() {
				return storeerr.Validation("unknown status %q", newStatus)
			}
			if !types.TransitionAllowed(t.Status, newStatus) {
				return storeerr.Validation("illegal transition from %s to %s", t.Status, newStatus)
			}
			crossedIntoDone := newStatus == types.StatusDone && t.Status != types.StatusDone
			leftDone := t.Status == types.StatusDone && newStatus != types.StatusDone
			t.Status = newStatus
			now := s.now()
			if crossedIntoDone {
				t.CompletedAt = &now
			} else if leftDone {
				t.CompletedAt = nil
			}
		}

		t.UpdatedAt = s.now()
		if err := repo.UpdateTask(ctx, tx, t); err != nil {
			return err
		}
		updated = t

		if input.Status != nil && *input.Status == types.StatusDone {
			if err := autoCompleteAncestors(ctx, tx, id, s.now()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ForceStatus bypasses transition validation. Used by reconciliation and
// the reaper.
func (s *Service) ForceStatus(ctx context.Context, id string, status types.Status) (*types.Task, error) {
	if !status.Valid() {
		return nil, storeerr.Validation("unknown status %q", status)
	}
	var updated *types.Task
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		t, err := repo.GetTask(ctx, tx, id)
		if err != nil {
			return err
		}
		now := s.now()
		if status == types.StatusDone && t.Status != types.StatusDone {
			t.CompletedAt = &now
		} else if status != types.StatusDone {
			t.CompletedAt = nil
		}
		t.Status = status
		t.UpdatedAt = now
		if err := repo.UpdateTask(ctx, tx, t); err != nil {
			return err
		}
		updated = t
		if status == types.StatusDone {
			return autoCompleteAncestors(ctx, tx, id, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// autoCompleteAncestors walks id's ancestor chain and marks each ancestor
// done iff every one of its direct children is done, stopping at the first
// ancestor that cannot be completed. The ancestor chain is read with one
// parent lookup per level; the children of all ancestors and the child
// statuses are then fetched with one batch query each. Each completed
// ancestor is re-read and updated with its own statements; there is no
// single bulk update.
func autoCompleteAncestors(ctx context.Context, tx *store.Tx, id string, now time.Time) error {
	ancestors, err := repo.AncestorChain(ctx, tx, id)
	if err != nil {
		return err
	}
	if len(ancestors) == 0 {
		return nil
	}

	childrenOf, err := repo.ChildrenIDsBatch(ctx, tx, ancestors)
	if err != nil {
		return err
	}

	allChildIDs := map[string]bool{}
	for _, kids := range childrenOf {
		for _, k := range kids {
			allChildIDs[k] = true
		}
	}
	allChildIDs[id] = true // id itself was just marked done by the caller
	idList := make([]string, 0, len(allChildIDs))
	for k := range allChildIDs {
		idList = append(idList, k)
	}
	childTasks, err := repo.GetTasks(ctx, tx, idList)
	if err != nil {
		return err
	}
	status := make(map[string]types.Status, len(childTasks))
	for _, c := range childTasks {
		status[c.ID] = c.Status
	}
	// id itself is done in this pass even though UpdateTask may not have
	// committed its row read back yet within the same transaction.
	status[id] = types.StatusDone

	var toComplete []string
	for _, ancestorID := range ancestors {
		kids := childrenOf[ancestorID]
		allDone := true
		for _, k := range kids {
			if s, ok := status[k]; !ok || s != types.StatusDone {
				allDone = false
				break
			}
		}
		if !allDone {
			break // nothing above this ancestor can complete either
		}
		toComplete = append(toComplete, ancestorID)
		status[ancestorID] = types.StatusDone
	}

	for _, aid := range toComplete {
		t, err := repo.GetTask(ctx, tx, aid)
		if err != nil {
			return err
		}
		t.Status = types.StatusDone
		t.CompletedAt = &now
		t.UpdatedAt = now
		if err := repo.UpdateTask(ctx, tx, t); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes a task. If it has children and cascade is false, it fails
// with HasChildrenError. With cascade, every descendant (bounded by
// maxCascadeDepth) is deleted in reverse-depth order after an explicit
// dependency-edge cleanup pass.
func (s *Service) Remove(ctx context.Context, id string, cascade bool) error {
	return s.store.WithTx(ctx, func(tx *store.Tx) error {
		if _, err := repo.GetTask(ctx, tx, id); err != nil {
			return err
		}
		kids, err := repo.ChildrenIDs(ctx, tx, id)
		if err != nil {
			return err
		}
		if len(kids) > 0 && !cascade {
			return &storeerr.HasChildrenError{TaskID: id}
		}

		levels, err := collectDescendantLevels(ctx, tx, id)
		if err != nil {
			return err
		}

		// delete in reverse-depth order: deepest descendants first, root last
		for i := len(levels) - 1; i >= 0; i-- {
			for _, tid := range levels[i] {
				if err := repo.DeleteDependenciesInvolving(ctx, tx, tid); err != nil {
					return err
				}
				if err := repo.DeleteTask(ctx, tx, tid); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// collectDescendantLevels performs a bounded-depth BFS from id, returning
// one slice per level (level 0 is {id} itself).
func collectDescendantLevels(ctx context.Context, tx *store.Tx, id string) ([][]string, error) {
	levels := [][]string{{id}}
	frontier := []string{id}
	for depth := 0; depth < maxCascadeDepth && len(frontier) > 0; depth++ {
		childrenOf, err := repo.ChildrenIDsBatch(ctx, tx, frontier)
		if err != nil {
			return nil, err
		}
		var next []string
		for _, f := range frontier {
			next = append(next, childrenOf[f]...)
		}
		if len(next) == 0 {
			break
		}
		levels = append(levels, next)
		frontier = next
	}
	return levels, nil
}

// List returns tasks matching filter.
func (s *Service) List(ctx context.Context, filter types.TaskFilter) ([]*types.Task, error) {
	return repo.ListTasks(ctx, s.store.DB(), filter)
}

// ListWithDeps returns enriched tasks matching filter, in one List plus one
// GetWithDepsBatch round trip.
func (s *Service) ListWithDeps(ctx context.Context, filter types.TaskFilter) ([]*types.TaskWithDeps, error) {
	tasks, err := repo.ListTasks(ctx, s.store.DB(), filter)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return s.GetWithDepsBatch(ctx, ids)
}

// Count returns the number of tasks matching filter.
func (s *Service) Count(ctx context.Context, filter types.TaskFilter) (int, error) {
	return repo.CountTasks(ctx, s.store.DB(), filter)
}

// AddDependency records that blockerID must complete before blockedID.
func (s *Service) AddDependency(ctx context.Context, blockerID, blockedID string) error {
	if blockerID == blockedID {
		return storeerr.Validation("a task cannot depend on itself")
	}
	return s.store.WithTx(ctx, func(tx *store.Tx) error {
		if _, err := repo.GetTask(ctx, tx, blockerID); err != nil {
			return err
		}
		if _, err := repo.GetTask(ctx, tx, blockedID); err != nil {
			return err
		}
		exists, err := repo.DependencyExists(ctx, tx, blockerID, blockedID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		return repo.InsertDependency(ctx, tx, blockerID, blockedID, s.now())
	})
}

// RemoveDependency deletes a blocker -> blocked edge.
func (s *Service) RemoveDependency(ctx context.Context, blockerID, blockedID string) error {
	return repo.DeleteDependency(ctx, s.store.DB(), blockerID, blockedID)
}

func isFinite(f float64) bool {
	return !(f != f || f > maxFloat || f < -maxFloat)
}

const maxFloat = 1.7976931348623157e+308

// isUniqueViolation loosely matches SQLite's UNIQUE/PRIMARY KEY constraint
// failure message; ncruces/go-sqlite3 surfaces these as plain errors whose
// text carries the SQLite error string.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
