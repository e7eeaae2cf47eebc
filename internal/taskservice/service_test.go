package taskservice

import (
	"context"
	"math"
	"testing"

	"github.com/jamesaphoenix/tx/internal/store"
	"github.com/jamesaphoenix/tx/internal/storeerr"
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

func TestCreateRejectsEmptyTitle(t *testing.T) {
	svc := New(setupTestDB(t))
	_, err := svc.Create(context.Background(), types.CreateTaskInput{Title: "   "})
	if _, ok := err.(*storeerr.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreateRejectsNonFiniteScore(t *testing.T) {
	svc := New(setupTestDB(t))
	_, err := svc.Create(context.Background(), types.CreateTaskInput{Title: "t", Score: math.Inf(1)})
	if _, ok := err.(*storeerr.ValidationError); !ok {
		t.Fatalf("expected ValidationError for non-finite score, got %v", err)
	}
}

func TestCreateRejectsMissingParent(t *testing.T) {
	svc := New(setupTestDB(t))
	missing := "tx-does-not-exist"
	_, err := svc.Create(context.Background(), types.CreateTaskInput{Title: "child", ParentID: &missing})
	if _, ok := err.(*storeerr.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := New(setupTestDB(t))

	created, err := svc.Create(ctx, types.CreateTaskInput{Title: "root task", Description: "desc"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != types.StatusBacklog {
		t.Errorf("new task status = %s, want backlog", created.Status)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "root task" {
		t.Errorf("Title = %q, want %q", got.Title, "root task")
	}
}

func TestUpdateIllegalTransitionRejected(t *testing.T) {
	ctx := context.Background()
	svc := New(setupTestDB(t))

	task, err := svc.Create(ctx, types.CreateTaskInput{Title: "t"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	done := types.StatusDone
	if _, err := svc.Update(ctx, task.ID, types.UpdateTaskInput{Status: &done}); err != nil {
		t.Fatalf("transition to done: %v", err)
	}

	active := types.StatusActive
	_, err = svc.Update(ctx, task.ID, types.UpdateTaskInput{Status: &active})
	if _, ok := err.(*storeerr.ValidationError); !ok {
		t.Fatalf("expected ValidationError leaving done, got %v", err)
	}
}

func TestUpdateRejectsSelfParent(t *testing.T) {
	ctx := context.Background()
	svc := New(setupTestDB(t))

	task, err := svc.Create(ctx, types.CreateTaskInput{Title: "t"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	selfID := task.ID
	parentPtr := &selfID
	_, err = svc.Update(ctx, task.ID, types.UpdateTaskInput{ParentID: &parentPtr})
	if _, ok := err.(*storeerr.ValidationError); !ok {
		t.Fatalf("expected ValidationError for self-parent, got %v", err)
	}
}

func TestUpdateRejectsCycle(t *testing.T) {
	ctx := context.Background()
	svc := New(setupTestDB(t))

	parent, err := svc.Create(ctx, types.CreateTaskInput{Title: "parent"})
	if err != nil {
		t.Fatalf("Create parent: %v", err)
	}
	childID := parent.ID
	child, err := svc.Create(ctx, types.CreateTaskInput{Title: "child", ParentID: &childID})
	if err != nil {
		t.Fatalf("Create child: %v", err)
	}

	newParent := child.ID
	newParentPtr := &newParent
	_, err = svc.Update(ctx, parent.ID, types.UpdateTaskInput{ParentID: &newParentPtr})
	if _, ok := err.(*storeerr.ValidationError); !ok {
		t.Fatalf("expected ValidationError for cycle, got %v", err)
	}
}

func TestAutoCompleteAncestors(t *testing.T) {
	ctx := context.Background()
	svc := New(setupTestDB(t))

	parent, err := svc.Create(ctx, types.CreateTaskInput{Title: "parent"})
	if err != nil {
		t.Fatalf("Create parent: %v", err)
	}
	parentID := parent.ID
	child1, err := svc.Create(ctx, types.CreateTaskInput{Title: "child1", ParentID: &parentID})
	if err != nil {
		t.Fatalf("Create child1: %v", err)
	}
	child2, err := svc.Create(ctx, types.CreateTaskInput{Title: "child2", ParentID: &parentID})
	if err != nil {
		t.Fatalf("Create child2: %v", err)
	}

	done := types.StatusDone
	if _, err := svc.Update(ctx, child1.ID, types.UpdateTaskInput{Status: &done}); err != nil {
		t.Fatalf("complete child1: %v", err)
	}

	reloaded, err := svc.Get(ctx, parent.ID)
	if err != nil {
		t.Fatalf("Get parent: %v", err)
	}
	if reloaded.Status == types.StatusDone {
		t.Fatal("parent completed before all children done")
	}

	if _, err := svc.Update(ctx, child2.ID, types.UpdateTaskInput{Status: &done}); err != nil {
		t.Fatalf("complete child2: %v", err)
	}

	reloaded, err = svc.Get(ctx, parent.ID)
	if err != nil {
		t.Fatalf("Get parent: %v", err)
	}
	if reloaded.Status != types.StatusDone {
		t.Errorf("parent status = %s, want done after all children complete", reloaded.Status)
	}
}

func TestRemoveWithChildrenRequiresCascade(t *testing.T) {
	ctx := context.Background()
	svc := New(setupTestDB(t))

	parent, err := svc.Create(ctx, types.CreateTaskInput{Title: "parent"})
	if err != nil {
		t.Fatalf("Create parent: %v", err)
	}
	parentID := parent.ID
	if _, err := svc.Create(ctx, types.CreateTaskInput{Title: "child", ParentID: &parentID}); err != nil {
		t.Fatalf("Create child: %v", err)
	}

	if err := svc.Remove(ctx, parent.ID, false); err == nil {
		t.Fatal("expected error removing task with children without cascade")
	}
	if err := svc.Remove(ctx, parent.ID, true); err != nil {
		t.Fatalf("cascade remove: %v", err)
	}
	if _, err := svc.Get(ctx, parent.ID); err == nil {
		t.Fatal("expected parent to be gone after cascade remove")
	}
}

func TestDependencyReadyComputation(t *testing.T) {
	ctx := context.Background()
	svc := New(setupTestDB(t))

	blocker, err := svc.Create(ctx, types.CreateTaskInput{Title: "blocker"})
	if err != nil {
		t.Fatalf("Create blocker: %v", err)
	}
	blocked, err := svc.Create(ctx, types.CreateTaskInput{Title: "blocked"})
	if err != nil {
		t.Fatalf("Create blocked: %v", err)
	}

	if err := svc.AddDependency(ctx, blocker.ID, blocked.ID); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}

	enriched, err := svc.GetWithDeps(ctx, blocked.ID)
	if err != nil {
		t.Fatalf("GetWithDeps: %v", err)
	}
	if enriched.IsReady {
		t.Fatal("blocked task should not be ready while blocker is incomplete")
	}
	if len(enriched.BlockedBy) != 1 || enriched.BlockedBy[0] != blocker.ID {
		t.Errorf("BlockedBy = %v, want [%s]", enriched.BlockedBy, blocker.ID)
	}

	done := types.StatusDone
	if _, err := svc.Update(ctx, blocker.ID, types.UpdateTaskInput{Status: &done}); err != nil {
		t.Fatalf("complete blocker: %v", err)
	}

	enriched, err = svc.GetWithDeps(ctx, blocked.ID)
	if err != nil {
		t.Fatalf("GetWithDeps after blocker done: %v", err)
	}
	if !enriched.IsReady {
		t.Fatal("blocked task should be ready once blocker is done")
	}

	if err := svc.RemoveDependency(ctx, blocker.ID, blocked.ID); err != nil {
		t.Fatalf("RemoveDependency: %v", err)
	}
	enriched, err = svc.GetWithDeps(ctx, blocked.ID)
	if err != nil {
		t.Fatalf("GetWithDeps after dep removal: %v", err)
	}
	if len(enriched.BlockedBy) != 0 {
		t.Errorf("BlockedBy = %v, want empty after removal", enriched.BlockedBy)
	}
}

func TestAddDependencyRejectsSelf(t *testing.T) {
	ctx := context.Background()
	svc := New(setupTestDB(t))
	task, err := svc.Create(ctx, types.CreateTaskInput{Title: "t"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.AddDependency(ctx, task.ID, task.ID); err == nil {
		t.Fatal("expected error for self-dependency")
	}
}

func TestListFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	svc := New(setupTestDB(t))

	if _, err := svc.Create(ctx, types.CreateTaskInput{Title: "a"}); err != nil {
		t.Fatalf("Create a: %v", err)
	}
	b, err := svc.Create(ctx, types.CreateTaskInput{Title: "b"})
	if err != nil {
		t.Fatalf("Create b: %v", err)
	}
	done := types.StatusDone
	if _, err := svc.Update(ctx, b.ID, types.UpdateTaskInput{Status: &done}); err != nil {
		t.Fatalf("complete b: %v", err)
	}

	list, err := svc.List(ctx, types.TaskFilter{Statuses: []types.Status{types.StatusDone}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != b.ID {
		t.Errorf("List(done) = %v, want only %s", list, b.ID)
	}
}
