// Package reaper implements the stalled-run sweep named but not assigned a
// concrete module by spec.md §3/§5: a run that has gone silent past
// staleAfter is marked stalled, its owning task is forced back to a workable
// status, and its claim is expired — all inside one transaction. Grounded
// on the teacher's internal/daemon reconciliation-loop style (single pass,
// single transaction, notifier callback).
package reaper

import (
	"context"
	"time"

	"github.com/jamesaphoenix/tx/internal/repo"
	"github.com/jamesaphoenix/tx/internal/store"
	"github.com/jamesaphoenix/tx/internal/types"
)

// Notifier receives one line per stalled run the sweep terminates, the
// same shape as the sync engine's notifier.
type Notifier interface {
	Notify(msg string)
}

type noopNotifier struct{}

func (noopNotifier) Notify(string) {}

// Reaper sweeps running runs whose heartbeat has gone silent.
type Reaper struct {
	store      *store.Store
	staleAfter time.Duration
	notifier   Notifier
	now        func() time.Time
}

func New(s *store.Store, staleAfter time.Duration, notifier Notifier) *Reaper {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Reaper{store: s, staleAfter: staleAfter, notifier: notifier, now: time.Now}
}

// Result summarizes one sweep.
type Result struct {
	StalledRuns    int
	ExpiredClaims  int
	ResetTasks     int
}

// Sweep surveys every running run's heartbeat, terminates the ones that
// have gone silent past staleAfter, resets their owning task to "ready",
// and expires any active claim on that task — all in one transaction.
func (r *Reaper) Sweep(ctx context.Context) (Result, error) {
	var result Result
	err := r.store.WithTx(ctx, func(tx *store.Tx) error {
		cutoff := r.now().Add(-r.staleAfter)
		heartbeats, err := repo.HeartbeatsForRunning(ctx, tx)
		if err != nil {
			return err
		}

		for _, h := range heartbeats {
			if !h.LastActivityAt.Before(cutoff) {
				continue
			}

			run, err := repo.GetRun(ctx, tx, h.RunID)
			if err != nil {
				return err
			}
			if err := repo.UpdateRunStatus(ctx, tx, run.ID, types.RunStalled, r.now()); err != nil {
				return err
			}
			result.StalledRuns++
			r.notifier.Notify("reaper: run " + run.ID + " stalled, no activity since " + h.LastActivityAt.Format(time.RFC3339))

			if run.TaskID != nil {
				task, err := repo.GetTask(ctx, tx, *run.TaskID)
				if err == nil && task.Status != types.StatusDone {
					if err := forceStatusTx(ctx, tx, *run.TaskID, types.StatusReady, r.now()); err != nil {
						return err
					}
					result.ResetTasks++
				}

				claim, err := repo.ActiveClaimForTask(ctx, tx, *run.TaskID)
				if err == nil {
					if err := repo.UpdateClaimStatus(ctx, tx, claim.ID, types.ClaimExpired); err != nil {
						return err
					}
					result.ExpiredClaims++
				}
			}
		}
		return nil
	})
	return result, err
}

// forceStatusTx inlines taskservice.ForceStatus's semantics against an
// already-open transaction, avoiding a nested store.WithTx call.
func forceStatusTx(ctx context.Context, tx *store.Tx, id string, status types.Status, now time.Time) error {
	t, err := repo.GetTask(ctx, tx, id)
	if err != nil {
		return err
	}
	if status == types.StatusDone && t.Status != types.StatusDone {
		t.CompletedAt = &now
	} else if status != types.StatusDone {
		t.CompletedAt = nil
	}
	t.Status = status
	t.UpdatedAt = now
	return repo.UpdateTask(ctx, tx, t)
}
