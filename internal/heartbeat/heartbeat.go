// Package heartbeat tracks per-run liveness bookkeeping (stdout/stderr/
// transcript byte counters and last-activity timestamps) that
// internal/reaper uses to detect stalled runs. No direct teacher
// analogue; modeled on spec.md §3's "Run & heartbeat state" entity.
package heartbeat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jamesaphoenix/tx/internal/repo"
	"github.com/jamesaphoenix/tx/internal/store"
	"github.com/jamesaphoenix/tx/internal/types"
)

type Service struct {
	store *store.Store
	now   func() time.Time
}

func New(s *store.Store) *Service {
	return &Service{store: s, now: time.Now}
}

// StartRun records a new run for a worker, optionally tied to a task (no
// claim is taken), and seeds its heartbeat row.
func (s *Service) StartRun(ctx context.Context, workerID string, taskID *string) (*types.Run, error) {
	now := s.now()
	r := &types.Run{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		WorkerID:  workerID,
		Status:    types.RunRunning,
		StartedAt: now,
	}
	if err := repo.InsertRun(ctx, s.store.DB(), r); err != nil {
		return nil, err
	}
	h := &types.HeartbeatState{
		RunID:          r.ID,
		LastCheckAt:    now,
		LastActivityAt: now,
	}
	if err := repo.UpsertHeartbeat(ctx, s.store.DB(), h); err != nil {
		return nil, err
	}
	return r, nil
}

// Tick records new byte counts for a run's output streams, advancing
// last_activity_at only if any counter actually grew (silence is not
// activity).
func (s *Service) Tick(ctx context.Context, runID string, stdoutBytes, stderrBytes, transcriptBytes int64) error {
	h, err := repo.GetHeartbeat(ctx, s.store.DB(), runID)
	if err != nil {
		return err
	}
	now := s.now()
	delta := (stdoutBytes - h.StdoutBytes) + (stderrBytes - h.StderrBytes) + (transcriptBytes - h.TranscriptBytes)
	h.StdoutBytes = stdoutBytes
	h.StderrBytes = stderrBytes
	h.TranscriptBytes = transcriptBytes
	h.LastCheckAt = now
	h.LastDeltaBytes = delta
	if delta > 0 {
		h.LastActivityAt = now
	}
	return repo.UpsertHeartbeat(ctx, s.store.DB(), h)
}

// End transitions a run to a terminal status and stamps ended_at.
func (s *Service) End(ctx context.Context, runID string, status types.RunStatus) error {
	return repo.UpdateRunStatus(ctx, s.store.DB(), runID, status, s.now())
}
