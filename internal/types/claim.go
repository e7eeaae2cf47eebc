package types

import "time"

// ClaimStatus is the fixed set of claim lifecycle states.
type ClaimStatus string

const (
	ClaimActive    ClaimStatus = "active"
	ClaimReleased  ClaimStatus = "released"
	ClaimExpired   ClaimStatus = "expired"
	ClaimCompleted ClaimStatus = "completed"
)

// Claim is a leased hold by one worker on one task.
type Claim struct {
	ID             int64
	TaskID         string
	WorkerID       string
	ClaimedAt      time.Time
	LeaseExpiresAt time.Time
	RenewedCount   int
	Status         ClaimStatus
}

// WorkerStatus is the fixed set of worker lifecycle states.
type WorkerStatus string

const (
	WorkerStarting WorkerStatus = "starting"
	WorkerIdle     WorkerStatus = "idle"
	WorkerBusy     WorkerStatus = "busy"
	WorkerStopping WorkerStatus = "stopping"
	WorkerDead     WorkerStatus = "dead"
)

// Worker is a registered task-execution agent.
type Worker struct {
	ID              string
	Name            string
	Hostname        string
	PID             int
	Status          WorkerStatus
	RegisteredAt    time.Time
	LastHeartbeatAt time.Time
	CurrentTaskID   *string
	Capabilities    []string
	Metadata        string
}

// RunStatus is the lifecycle of an agent execution.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunStalled   RunStatus = "stalled"
	RunCancelled RunStatus = "cancelled"
	RunCompleted RunStatus = "completed"
)

// Run represents one agent execution, owning zero or one task claim.
type Run struct {
	ID        string
	TaskID    *string
	WorkerID  string
	Status    RunStatus
	StartedAt time.Time
	EndedAt   *time.Time
}

// HeartbeatState carries stall-detection bookkeeping for a Run.
type HeartbeatState struct {
	RunID            string
	StdoutBytes      int64
	StderrBytes      int64
	TranscriptBytes  int64
	LastCheckAt      time.Time
	LastActivityAt   time.Time
	LastDeltaBytes   int64
}
