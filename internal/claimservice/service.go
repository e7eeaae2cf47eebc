// Package claimservice implements the lease/claim state machine of
// spec.md §4.3: a claim transitions active -> released|expired|completed,
// never back. Grounded on the teacher's transactional-mutation style
// (internal/storage/storage.go's Transaction interface and BEGIN
// IMMEDIATE discipline); the lease concept itself has no teacher
// analogue and is modeled fresh from the spec (see DESIGN.md).
package claimservice

import (
	"context"
	"time"

	"github.com/jamesaphoenix/tx/internal/repo"
	"github.com/jamesaphoenix/tx/internal/storeerr"
	"github.com/jamesaphoenix/tx/internal/store"
	"github.com/jamesaphoenix/tx/internal/types"
)

// DefaultLeaseDuration is used when orchestrator_state carries no
// lease_duration_minutes override.
const DefaultLeaseDuration = 30 * time.Minute

// MaxRenewals is the hard renewal ceiling (spec.md §9 Open Question,
// resolved as a hard cap — see DESIGN.md).
const MaxRenewals = 10

type Service struct {
	store *store.Store
	now   func() time.Time
}

func New(s *store.Store) *Service {
	return &Service{store: s, now: time.Now}
}

func (s *Service) leaseDuration(ctx context.Context, q repo.Queryer, override *time.Duration) (time.Duration, error) {
	if override != nil {
		return *override, nil
	}
	raw, ok, err := repo.GetOrchestratorState(ctx, q, "lease_duration_minutes")
	if err != nil {
		return 0, err
	}
	if !ok {
		return DefaultLeaseDuration, nil
	}
	minutes, err := time.ParseDuration(raw + "m")
	if err != nil {
		return DefaultLeaseDuration, nil
	}
	return minutes, nil
}

// Claim acquires an exclusive lease on a task for a worker. leaseMinutes,
// if non-nil, overrides the orchestrator's configured default.
func (s *Service) Claim(ctx context.Context, taskID, workerID string, leaseMinutes *time.Duration) (*types.Claim, error) {
	var created *types.Claim
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		if _, err := repo.GetTask(ctx, tx, taskID); err != nil {
			return err
		}
		if _, err := repo.ActiveClaimForTask(ctx, tx, taskID); err == nil {
			return &storeerr.AlreadyClaimedError{TaskID: taskID}
		} else if _, isNotFound := asNotFound(err); !isNotFound {
			return err
		}

		dur, err := s.leaseDuration(ctx, tx, leaseMinutes)
		if err != nil {
			return err
		}
		now := s.now()
		c := &types.Claim{
			TaskID:         taskID,
			WorkerID:       workerID,
			ClaimedAt:      now,
			LeaseExpiresAt: now.Add(dur),
			RenewedCount:   0,
			Status:         types.ClaimActive,
		}
		id, err := repo.InsertClaim(ctx, tx, c)
		if err != nil {
			return err
		}
		c.ID = id
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Release transitions the active claim on a task to released, verifying
// the caller is the owning worker.
func (s *Service) Release(ctx context.Context, taskID, workerID string) error {
	return s.store.WithTx(ctx, func(tx *store.Tx) error {
		c, err := repo.ActiveClaimForTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if c.WorkerID != workerID {
			return storeerr.Validation("claim on task %s is owned by worker %s, not %s", taskID, c.WorkerID, workerID)
		}
		return repo.UpdateClaimStatus(ctx, tx, c.ID, types.ClaimReleased)
	})
}

// Renew extends the lease on a task's active claim, rejecting a renewal
// past the lease deadline or the renewal ceiling.
func (s *Service) Renew(ctx context.Context, taskID, workerID string, leaseMinutes *time.Duration) (*types.Claim, error) {
	var renewed *types.Claim
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		c, err := repo.ActiveClaimForTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if c.WorkerID != workerID {
			return storeerr.Validation("claim on task %s is owned by worker %s, not %s", taskID, c.WorkerID, workerID)
		}
		now := s.now()
		if !now.Before(c.LeaseExpiresAt) {
			return &storeerr.LeaseExpiredError{ClaimID: c.ID}
		}
		if c.RenewedCount >= MaxRenewals {
			return &storeerr.MaxRenewalsExceededError{ClaimID: c.ID, Max: MaxRenewals}
		}

		dur, err := s.leaseDuration(ctx, tx, leaseMinutes)
		if err != nil {
			return err
		}
		if err := repo.RenewClaim(ctx, tx, c.ID, now.Add(dur)); err != nil {
			return err
		}
		c.LeaseExpiresAt = now.Add(dur)
		c.RenewedCount++
		renewed = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return renewed, nil
}

// Expire marks a single claim expired in its own statement, outside any
// transaction.
func (s *Service) Expire(ctx context.Context, claimID int64) error {
	return repo.UpdateClaimStatus(ctx, s.store.DB(), claimID, types.ClaimExpired)
}

// ExpireTx is Expire run against an already-open transaction.
func ExpireTx(ctx context.Context, tx *store.Tx, claimID int64) error {
	return repo.UpdateClaimStatus(ctx, tx, claimID, types.ClaimExpired)
}

// ReleaseByWorker bulk-releases every active claim held by a worker and
// returns the count released. Used on worker deregistration/crash.
func (s *Service) ReleaseByWorker(ctx context.Context, workerID string) (int, error) {
	var count int
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		claims, err := repo.ActiveClaimsForWorker(ctx, tx, workerID)
		if err != nil {
			return err
		}
		for _, c := range claims {
			if err := repo.UpdateClaimStatus(ctx, tx, c.ID, types.ClaimReleased); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetExpired returns every active claim whose lease has already elapsed;
// the canonical input to the reconciliation loop's expire() calls.
func (s *Service) GetExpired(ctx context.Context) ([]*types.Claim, error) {
	return repo.ExpiredActiveClaims(ctx, s.store.DB(), s.now())
}

// Complete marks the active claim on a task completed, called when the
// owning run finishes successfully.
func (s *Service) Complete(ctx context.Context, taskID, workerID string) error {
	return s.store.WithTx(ctx, func(tx *store.Tx) error {
		c, err := repo.ActiveClaimForTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if c.WorkerID != workerID {
			return storeerr.Validation("claim on task %s is owned by worker %s, not %s", taskID, c.WorkerID, workerID)
		}
		return repo.UpdateClaimStatus(ctx, tx, c.ID, types.ClaimCompleted)
	})
}

// History returns every claim ever held on a task, most recent first.
func (s *Service) History(ctx context.Context, taskID string) ([]*types.Claim, error) {
	return repo.ClaimHistoryForTask(ctx, s.store.DB(), taskID)
}

func asNotFound(err error) (*storeerr.NotFoundError, bool) {
	nf, ok := err.(*storeerr.NotFoundError)
	return nf, ok
}
