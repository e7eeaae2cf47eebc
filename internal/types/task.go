// Package types holds the domain records shared by every service and
// repository in tx: tasks, dependencies, claims, workers, runs, learnings,
// candidates, and edges.
package types

import "time"

// Status is the fixed set of task lifecycle states, enforced by a CHECK
// constraint at the storage boundary (see
// internal/store/migrations/001_core_schema.go).
type Status string

const (
	StatusBacklog  Status = "backlog"
	StatusReady    Status = "ready"
	StatusPlanning Status = "planning"
	StatusActive   Status = "active"
	StatusDone     Status = "done"
)

// AllStatuses is the full enumeration, in the order new statuses were added.
var AllStatuses = []Status{StatusBacklog, StatusReady, StatusPlanning, StatusActive, StatusDone}

func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// workableStatuses is the set a task must be in for "ready" to apply.
var workableStatuses = map[Status]bool{
	StatusBacklog:  true,
	StatusReady:    true,
	StatusPlanning: true,
}

func IsWorkable(s Status) bool { return workableStatuses[s] }

// transitionTable enumerates every legal (from, to) status pair for
// Task.Update. ForceStatus bypasses this table entirely.
var transitionTable = map[Status]map[Status]bool{
	StatusBacklog:  {StatusReady: true, StatusPlanning: true, StatusActive: true, StatusDone: true},
	StatusReady:    {StatusPlanning: true, StatusActive: true, StatusBacklog: true, StatusDone: true},
	StatusPlanning: {StatusActive: true, StatusReady: true, StatusBacklog: true, StatusDone: true},
	StatusActive:   {StatusDone: true, StatusPlanning: true, StatusReady: true, StatusBacklog: true},
	StatusDone:     {},
}

// TransitionAllowed reports whether (from, to) appears in the static
// legality table. Equal from/to is always allowed (no-op update).
func TransitionAllowed(from, to Status) bool {
	if from == to {
		return true
	}
	next, ok := transitionTable[from]
	if !ok {
		return false
	}
	return next[to]
}

// AssigneeType enumerates who a task is assigned to.
type AssigneeType string

const (
	AssigneeAgent AssigneeType = "agent"
	AssigneeHuman AssigneeType = "human"
)

// Task is a single node in the task graph.
type Task struct {
	ID           string
	Title        string
	Description  string
	Status       Status
	ParentID     *string
	Score        float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
	Metadata     string // opaque JSON
	AssigneeType AssigneeType
	AssigneeID   *string
	AssignedAt   *time.Time
	AssignedBy   *string
}

// TaskWithDeps enriches a Task with the derived relations the dashboard and
// CLI surfaces both require verbatim (spec.md §8 interface-parity
// invariant).
type TaskWithDeps struct {
	Task
	BlockedBy []string
	Blocks    []string
	Children  []string
	IsReady   bool
}

// TaskDependency is a blocker -> blocked edge.
type TaskDependency struct {
	BlockerID string
	BlockedID string
	CreatedAt time.Time
}

// TaskFilter controls List/ListWithDeps/Count.
type TaskFilter struct {
	Statuses []Status
	ParentID *string
	Limit    int
}

// CreateTaskInput is the input to TaskService.Create.
type CreateTaskInput struct {
	Title    string
	Description string
	ParentID *string
	Score    float64
	Metadata string
}

// UpdateTaskInput is the input to TaskService.Update. Nil fields are left
// unchanged.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *Status
	ParentID     **string // double pointer: nil = unchanged, pointee nil = clear parent
	Score        *float64
	Metadata     *string
	AssigneeType *AssigneeType
	AssigneeID   **string
	AssignedBy   **string
}
