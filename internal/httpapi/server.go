// Package httpapi implements the read-only HTTP surface of spec.md §6:
// GET /api/tasks, /api/tasks/:id, /api/tasks/ready, each returning the
// same dependency-enriched task shape the CLI prints (blockedBy, blocks,
// children, isReady) — the interface-parity invariant spec.md §8 names.
//
// The teacher's only net/http usage retrieved in this pack is the
// out-of-scope examples/monitor-webui package, which pairs it with
// gorilla/websocket for a live dashboard this spec has no use for; three
// read-only GET routes don't warrant a router dependency, so this package
// is plain net/http (see DESIGN.md).
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jamesaphoenix/tx/internal/storeerr"
	"github.com/jamesaphoenix/tx/internal/taskservice"
	"github.com/jamesaphoenix/tx/internal/types"
)

// NewHandler builds the routed HTTP handler. svc must be non-nil.
func NewHandler(svc *taskservice.Service) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tasks", handleListTasks(svc))
	mux.HandleFunc("GET /api/tasks/ready", handleReadyTasks(svc))
	mux.HandleFunc("GET /api/tasks/{id}", handleGetTask(svc))
	return mux
}

func handleListTasks(svc *taskservice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := filterFromQuery(r)
		tasks, err := svc.ListWithDeps(r.Context(), filter)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tasks)
	}
}

func handleReadyTasks(svc *taskservice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tasks, err := svc.ListWithDeps(r.Context(), filterFromQuery(r))
		if err != nil {
			writeError(w, err)
			return
		}
		ready := make([]*types.TaskWithDeps, 0, len(tasks))
		for _, t := range tasks {
			if t.IsReady {
				ready = append(ready, t)
			}
		}
		writeJSON(w, http.StatusOK, ready)
	}
}

func handleGetTask(svc *taskservice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		t, err := svc.GetWithDeps(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func filterFromQuery(r *http.Request) types.TaskFilter {
	var filter types.TaskFilter
	if statuses := r.URL.Query()["status"]; len(statuses) > 0 {
		for _, s := range statuses {
			for _, part := range strings.Split(s, ",") {
				if part != "" {
					filter.Statuses = append(filter.Statuses, types.Status(part))
				}
			}
		}
	}
	if parent := r.URL.Query().Get("parent"); parent != "" {
		filter.ParentID = &parent
	}
	return filter
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a storeerr kind to the 4xx/5xx split spec.md §7 names:
// validation/not-found/conflict are caller mistakes (4xx), everything else
// (storage, external-service) is a server-side failure (5xx).
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch err.(type) {
	case *storeerr.NotFoundError:
		status = http.StatusNotFound
	case *storeerr.ValidationError:
		status = http.StatusBadRequest
	case *storeerr.ConflictError:
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
