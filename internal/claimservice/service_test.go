package claimservice

import (
	"context"
	"testing"
	"time"

	"github.com/jamesaphoenix/tx/internal/storeerr"
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

func createTask(t *testing.T, s *store.Store) string {
	t.Helper()
	ts, err := taskservice.New(s).Create(context.Background(), types.CreateTaskInput{Title: "t"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return ts.ID
}

func TestClaimThenDuplicateRejected(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	taskID := createTask(t, s)
	svc := New(s)

	c, err := svc.Claim(ctx, taskID, "worker-1", nil)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if c.Status != types.ClaimActive {
		t.Errorf("Status = %s, want active", c.Status)
	}

	_, err = svc.Claim(ctx, taskID, "worker-2", nil)
	if _, ok := err.(*storeerr.AlreadyClaimedError); !ok {
		t.Fatalf("expected AlreadyClaimedError, got %v", err)
	}
}

func TestReleaseByWrongWorkerRejected(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	taskID := createTask(t, s)
	svc := New(s)

	if _, err := svc.Claim(ctx, taskID, "worker-1", nil); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := svc.Release(ctx, taskID, "worker-2"); err == nil {
		t.Fatal("expected error releasing another worker's claim")
	}
	if err := svc.Release(ctx, taskID, "worker-1"); err != nil {
		t.Fatalf("Release by owner: %v", err)
	}
}

func TestRenewExtendsLeaseAndCountsRenewals(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	taskID := createTask(t, s)
	svc := New(s)

	c, err := svc.Claim(ctx, taskID, "worker-1", nil)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	original := c.LeaseExpiresAt

	renewed, err := svc.Renew(ctx, taskID, "worker-1", nil)
	if err != nil {
		t.Fatalf("Renew: %v", err)
	}
	if renewed.RenewedCount != 1 {
		t.Errorf("RenewedCount = %d, want 1", renewed.RenewedCount)
	}
	if !renewed.LeaseExpiresAt.After(original) {
		t.Error("expected lease to be extended")
	}
}

func TestRenewRejectsAfterMaxRenewals(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	taskID := createTask(t, s)
	svc := New(s)

	if _, err := svc.Claim(ctx, taskID, "worker-1", nil); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	for i := 0; i < MaxRenewals; i++ {
		if _, err := svc.Renew(ctx, taskID, "worker-1", nil); err != nil {
			t.Fatalf("Renew #%d: %v", i, err)
		}
	}
	_, err := svc.Renew(ctx, taskID, "worker-1", nil)
	if _, ok := err.(*storeerr.MaxRenewalsExceededError); !ok {
		t.Fatalf("expected MaxRenewalsExceededError, got %v", err)
	}
}

func TestRenewRejectsAfterLeaseExpired(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	taskID := createTask(t, s)
	svc := New(s)
	svc.now = func() time.Time { return time.Unix(0, 0) }

	if _, err := svc.Claim(ctx, taskID, "worker-1", nil); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	svc.now = func() time.Time { return time.Unix(0, 0).Add(2 * DefaultLeaseDuration) }
	_, err := svc.Renew(ctx, taskID, "worker-1", nil)
	if _, ok := err.(*storeerr.LeaseExpiredError); !ok {
		t.Fatalf("expected LeaseExpiredError, got %v", err)
	}
}

func TestReleaseByWorkerBulk(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	svc := New(s)

	task1 := createTask(t, s)
	task2 := createTask(t, s)
	if _, err := svc.Claim(ctx, task1, "worker-1", nil); err != nil {
		t.Fatalf("Claim task1: %v", err)
	}
	if _, err := svc.Claim(ctx, task2, "worker-1", nil); err != nil {
		t.Fatalf("Claim task2: %v", err)
	}

	count, err := svc.ReleaseByWorker(ctx, "worker-1")
	if err != nil {
		t.Fatalf("ReleaseByWorker: %v", err)
	}
	if count != 2 {
		t.Errorf("released count = %d, want 2", count)
	}

	if _, err := svc.Claim(ctx, task1, "worker-2", nil); err != nil {
		t.Fatalf("re-claim after bulk release: %v", err)
	}
}

func TestCompleteRequiresOwningWorker(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	taskID := createTask(t, s)
	svc := New(s)

	if _, err := svc.Claim(ctx, taskID, "worker-1", nil); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := svc.Complete(ctx, taskID, "worker-2"); err == nil {
		t.Fatal("expected error completing another worker's claim")
	}
	if err := svc.Complete(ctx, taskID, "worker-1"); err != nil {
		t.Fatalf("Complete by owner: %v", err)
	}
}

func TestHistoryReturnsEveryClaim(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	taskID := createTask(t, s)
	svc := New(s)

	if _, err := svc.Claim(ctx, taskID, "worker-1", nil); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := svc.Release(ctx, taskID, "worker-1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := svc.Claim(ctx, taskID, "worker-2", nil); err != nil {
		t.Fatalf("second Claim: %v", err)
	}

	history, err := svc.History(ctx, taskID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("History len = %d, want 2", len(history))
	}
}
