// Package workerservice manages worker registration, heartbeats, and
// deregistration, coordinating with claimservice to release a departing
// worker's leases. No direct teacher analogue; modeled on spec.md §3's
// workers table and grounded on the teacher's transactional mutation
// style (see DESIGN.md).
package workerservice

import (
	"context"
	"time"

	"github.com/jamesaphoenix/tx/internal/claimservice"
	"github.com/jamesaphoenix/tx/internal/repo"
	"github.com/jamesaphoenix/tx/internal/store"
	"github.com/jamesaphoenix/tx/internal/types"
)

type Service struct {
	store  *store.Store
	claims *claimservice.Service
	now    func() time.Time
}

func New(s *store.Store, claims *claimservice.Service) *Service {
	return &Service{store: s, claims: claims, now: time.Now}
}

// Register upserts a worker row under the given ID, starting it in the
// "starting" state.
func (s *Service) Register(ctx context.Context, id, name, hostname string, pid int, capabilities []string) (*types.Worker, error) {
	now := s.now()
	w := &types.Worker{
		ID:              id,
		Name:            name,
		Hostname:        hostname,
		PID:             pid,
		Status:          types.WorkerStarting,
		RegisteredAt:    now,
		LastHeartbeatAt: now,
		Capabilities:    capabilities,
		Metadata:        "{}",
	}
	if err := repo.UpsertWorker(ctx, s.store.DB(), w); err != nil {
		return nil, err
	}
	return w, nil
}

// Heartbeat bumps a worker's last_heartbeat_at, keeping it out of the set
// Stale returns.
func (s *Service) Heartbeat(ctx context.Context, id string) error {
	return repo.TouchWorkerHeartbeat(ctx, s.store.DB(), id, s.now())
}

// SetStatus updates a worker's status and current task assignment.
func (s *Service) SetStatus(ctx context.Context, id string, status types.WorkerStatus, currentTaskID *string) error {
	return repo.UpdateWorkerStatus(ctx, s.store.DB(), id, status, currentTaskID, s.now())
}

// Get fetches a worker by ID.
func (s *Service) Get(ctx context.Context, id string) (*types.Worker, error) {
	return repo.GetWorker(ctx, s.store.DB(), id)
}

// List returns every registered worker.
func (s *Service) List(ctx context.Context) ([]*types.Worker, error) {
	return repo.ListWorkers(ctx, s.store.DB())
}

// Deregister releases every active claim held by the worker, then removes
// its row. Returns the number of claims released.
func (s *Service) Deregister(ctx context.Context, id string) (int, error) {
	released, err := s.claims.ReleaseByWorker(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := repo.DeleteWorker(ctx, s.store.DB(), id); err != nil {
		return released, err
	}
	return released, nil
}

// Stale returns workers whose heartbeat is older than maxAge and are not
// already marked dead.
func (s *Service) Stale(ctx context.Context, maxAge time.Duration) ([]*types.Worker, error) {
	return repo.StaleWorkers(ctx, s.store.DB(), s.now().Add(-maxAge))
}

// MarkDead flags a worker dead without releasing its claims (the reaper
// handles claim/run cleanup separately, since a dead worker's runs may
// still need to be individually reasoned about for stall detection).
func (s *Service) MarkDead(ctx context.Context, id string) error {
	return repo.SetWorkerDead(ctx, s.store.DB(), id, s.now())
}
