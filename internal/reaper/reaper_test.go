package reaper

import (
	"context"
	"testing"
	"time"

	"github.com/jamesaphoenix/tx/internal/claimservice"
	"github.com/jamesaphoenix/tx/internal/repo"
	"github.com/jamesaphoenix/tx/internal/store"
	"github.com/jamesaphoenix/tx/internal/taskservice"
	"github.com/jamesaphoenix/tx/internal/types"
)

func setupTestDB(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type collectingNotifier struct {
	messages []string
}

func (c *collectingNotifier) Notify(msg string) { c.messages = append(c.messages, msg) }

func TestSweepStallsSilentRun(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)

	task, err := taskservice.New(s).Create(ctx, types.CreateTaskInput{Title: "t"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	claims := claimservice.New(s)
	if _, err := claims.Claim(ctx, task.ID, "worker-1", nil); err != nil {
		t.Fatalf("claim: %v", err)
	}
	active := types.StatusActive
	if _, err := taskservice.New(s).Update(ctx, task.ID, types.UpdateTaskInput{Status: &active}); err != nil {
		t.Fatalf("activate task: %v", err)
	}

	now := time.Now()
	run := &types.Run{ID: "run-1", TaskID: &task.ID, WorkerID: "worker-1", Status: types.RunRunning, StartedAt: now.Add(-time.Hour)}
	if err := repo.InsertRun(ctx, s.DB(), run); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}
	hb := &types.HeartbeatState{RunID: run.ID, LastCheckAt: now.Add(-time.Hour), LastActivityAt: now.Add(-time.Hour)}
	if err := repo.UpsertHeartbeat(ctx, s.DB(), hb); err != nil {
		t.Fatalf("UpsertHeartbeat: %v", err)
	}

	notifier := &collectingNotifier{}
	r := New(s, 5*time.Minute, notifier)
	r.now = func() time.Time { return now }

	result, err := r.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if result.StalledRuns != 1 {
		t.Errorf("StalledRuns = %d, want 1", result.StalledRuns)
	}
	if result.ResetTasks != 1 {
		t.Errorf("ResetTasks = %d, want 1", result.ResetTasks)
	}
	if result.ExpiredClaims != 1 {
		t.Errorf("ExpiredClaims = %d, want 1", result.ExpiredClaims)
	}
	if len(notifier.messages) != 1 {
		t.Errorf("notifier messages = %v, want 1 entry", notifier.messages)
	}

	gotRun, err := repo.GetRun(ctx, s.DB(), run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if gotRun.Status != types.RunStalled {
		t.Errorf("run status = %s, want stalled", gotRun.Status)
	}

	gotTask, err := taskservice.New(s).Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get task: %v", err)
	}
	if gotTask.Status != types.StatusReady {
		t.Errorf("task status = %s, want ready", gotTask.Status)
	}
}

func TestSweepSkipsFreshRun(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)

	task, err := taskservice.New(s).Create(ctx, types.CreateTaskInput{Title: "t"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	now := time.Now()
	run := &types.Run{ID: "run-1", TaskID: &task.ID, WorkerID: "worker-1", Status: types.RunRunning, StartedAt: now}
	if err := repo.InsertRun(ctx, s.DB(), run); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}
	hb := &types.HeartbeatState{RunID: run.ID, LastCheckAt: now, LastActivityAt: now}
	if err := repo.UpsertHeartbeat(ctx, s.DB(), hb); err != nil {
		t.Fatalf("UpsertHeartbeat: %v", err)
	}

	r := New(s, 5*time.Minute, nil)
	r.now = func() time.Time { return now }

	result, err := r.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if result.StalledRuns != 0 {
		t.Errorf("StalledRuns = %d, want 0 for fresh heartbeat", result.StalledRuns)
	}
}
