package workerservice

import (
	"context"
	"testing"
	"time"

	"github.com/jamesaphoenix/tx/internal/claimservice"
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

func TestRegisterAndGet(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	svc := New(s, claimservice.New(s))

	w, err := svc.Register(ctx, "w1", "worker one", "host-a", 1234, []string{"go", "sql"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if w.Status != types.WorkerStarting {
		t.Errorf("Status = %s, want starting", w.Status)
	}

	got, err := svc.Get(ctx, "w1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Hostname != "host-a" || got.PID != 1234 {
		t.Errorf("got = %+v", got)
	}
}

func TestHeartbeatUpdatesTimestamp(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	svc := New(s, claimservice.New(s))

	if _, err := svc.Register(ctx, "w1", "worker one", "host-a", 1, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	before, err := svc.Get(ctx, "w1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	svc.now = func() time.Time { return before.LastHeartbeatAt.Add(time.Hour) }
	if err := svc.Heartbeat(ctx, "w1"); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}

	after, err := svc.Get(ctx, "w1")
	if err != nil {
		t.Fatalf("Get after heartbeat: %v", err)
	}
	if !after.LastHeartbeatAt.After(before.LastHeartbeatAt) {
		t.Error("expected heartbeat to advance LastHeartbeatAt")
	}
}

func TestDeregisterReleasesClaims(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	claims := claimservice.New(s)
	svc := New(s, claims)

	task, err := taskservice.New(s).Create(ctx, types.CreateTaskInput{Title: "t"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := svc.Register(ctx, "w1", "worker one", "host-a", 1, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := claims.Claim(ctx, task.ID, "w1", nil); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	released, err := svc.Deregister(ctx, "w1")
	if err != nil {
		t.Fatalf("Deregister: %v", err)
	}
	if released != 1 {
		t.Errorf("released = %d, want 1", released)
	}
	if _, err := svc.Get(ctx, "w1"); err == nil {
		t.Fatal("expected worker to be gone after deregister")
	}
}

func TestStaleAndMarkDead(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	svc := New(s, claimservice.New(s))

	base := time.Now()
	svc.now = func() time.Time { return base }
	if _, err := svc.Register(ctx, "w1", "worker one", "host-a", 1, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}

	svc.now = func() time.Time { return base.Add(time.Hour) }
	stale, err := svc.Stale(ctx, 10*time.Minute)
	if err != nil {
		t.Fatalf("Stale: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != "w1" {
		t.Fatalf("Stale = %v, want [w1]", stale)
	}

	if err := svc.MarkDead(ctx, "w1"); err != nil {
		t.Fatalf("MarkDead: %v", err)
	}
	got, err := svc.Get(ctx, "w1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != types.WorkerDead {
		t.Errorf("Status = %s, want dead", got.Status)
	}
}
