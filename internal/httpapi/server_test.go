package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jamesaphoenix/tx/internal/store"
	"github.com/jamesaphoenix/tx/internal/taskservice"
	"github.com/jamesaphoenix/tx/internal/types"
)

func setupTestServer(t *testing.T) (*httptest.Server, *taskservice.Service) {
	t.Helper()
	s, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	svc := taskservice.New(s)
	srv := httptest.NewServer(NewHandler(svc))
	t.Cleanup(srv.Close)
	return srv, svc
}

func TestHandleGetTaskNotFound(t *testing.T) {
	srv, _ := setupTestServer(t)
	resp, err := http.Get(srv.URL + "/api/tasks/does-not-exist")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleGetTask(t *testing.T) {
	srv, svc := setupTestServer(t)
	task, err := svc.Create(context.Background(), types.CreateTaskInput{Title: "hello"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/tasks/" + task.ID)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got types.TaskWithDeps
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Title != "hello" {
		t.Errorf("Title = %q, want %q", got.Title, "hello")
	}
	if !got.IsReady {
		t.Error("expected unblocked backlog task to be ready")
	}
}

func TestHandleListTasksFiltersByStatus(t *testing.T) {
	srv, svc := setupTestServer(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, types.CreateTaskInput{Title: "a"}); err != nil {
		t.Fatalf("Create a: %v", err)
	}
	b, err := svc.Create(ctx, types.CreateTaskInput{Title: "b"})
	if err != nil {
		t.Fatalf("Create b: %v", err)
	}
	done := types.StatusDone
	if _, err := svc.Update(ctx, b.ID, types.UpdateTaskInput{Status: &done}); err != nil {
		t.Fatalf("Update b: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/tasks?status=done")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var got []types.TaskWithDeps
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("filtered list = %v, want only %s", got, b.ID)
	}
}

func TestHandleReadyTasksExcludesBlocked(t *testing.T) {
	srv, svc := setupTestServer(t)
	ctx := context.Background()
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

	resp, err := http.Get(srv.URL + "/api/tasks/ready")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var got []*types.TaskWithDeps
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, task := range got {
		if task.ID == blocked.ID {
			t.Error("blocked task appeared in ready list")
		}
	}
	foundBlocker := false
	for _, task := range got {
		if task.ID == blocker.ID {
			foundBlocker = true
		}
	}
	if !foundBlocker {
		t.Error("unblocked task missing from ready list")
	}
}
