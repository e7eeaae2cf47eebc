// Package storeerr defines the error kinds shared across services and
// repositories. Kinds are distinguished by type, not by string matching, so
// callers can use errors.As at the outermost adapter (CLI/HTTP/MCP) per
// spec.md §7's propagation policy.
package storeerr

import "fmt"

// ValidationError reports malformed input or a violated domain rule.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

func Validation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing entity. Entity is a short noun ("task",
// "claim", "worker", ...); ID is the key that was looked up.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found: %s", e.Entity, e.ID) }

func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError reports a state conflict the caller can retry or override.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Reason }

func Conflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// HasChildrenError reports that Task.Remove was called without cascade on a
// task that still has children.
type HasChildrenError struct {
	TaskID string
}

func (e *HasChildrenError) Error() string {
	return fmt.Sprintf("task %s has children; pass cascade to delete them too", e.TaskID)
}

// StaleDataError reports a concurrent-modification conflict (optimistic
// update or import TOCTOU race).
type StaleDataError struct {
	Reason string
}

func (e *StaleDataError) Error() string { return "stale data: " + e.Reason }

func StaleData(format string, args ...interface{}) *StaleDataError {
	return &StaleDataError{Reason: fmt.Sprintf(format, args...)}
}

// DatabaseError wraps any underlying storage failure.
type DatabaseError struct {
	Op    string
	Cause error
}

func (e *DatabaseError) Error() string { return fmt.Sprintf("database error during %s: %v", e.Op, e.Cause) }
func (e *DatabaseError) Unwrap() error  { return e.Cause }

func Database(op string, cause error) *DatabaseError {
	return &DatabaseError{Op: op, Cause: cause}
}

// AlreadyClaimedError reports that claim() was called on a task that
// already has an active claim.
type AlreadyClaimedError struct {
	TaskID string
}

func (e *AlreadyClaimedError) Error() string { return fmt.Sprintf("task %s is already claimed", e.TaskID) }

// LeaseExpiredError reports that renew() was called past the lease deadline.
type LeaseExpiredError struct {
	ClaimID int64
}

func (e *LeaseExpiredError) Error() string { return fmt.Sprintf("claim %d's lease has expired", e.ClaimID) }

// MaxRenewalsExceededError reports that renew() would exceed the renewal
// ceiling.
type MaxRenewalsExceededError struct {
	ClaimID int64
	Max     int
}

func (e *MaxRenewalsExceededError) Error() string {
	return fmt.Sprintf("claim %d has reached the maximum of %d renewals", e.ClaimID, e.Max)
}

// ExternalServiceUnavailableError reports that a required (non-optional)
// external service (LLM, embedding, reranker, graph expander) is absent,
// unconfigured, or failing. Retrieval's optional stages never surface this;
// only a caller that explicitly required the service sees it.
type ExternalServiceUnavailableError struct {
	Service string
	Cause   error
}

func (e *ExternalServiceUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s unavailable: %v", e.Service, e.Cause)
	}
	return fmt.Sprintf("%s unavailable", e.Service)
}
func (e *ExternalServiceUnavailableError) Unwrap() error { return e.Cause }

// RetrievalError wraps a failure in a mandatory retrieval stage (BM25).
type RetrievalError struct {
	Stage string
	Cause error
}

func (e *RetrievalError) Error() string { return fmt.Sprintf("retrieval failed at %s: %v", e.Stage, e.Cause) }
func (e *RetrievalError) Unwrap() error  { return e.Cause }

func RetrievalErr(stage string, cause error) *RetrievalError {
	return &RetrievalError{Stage: stage, Cause: cause}
}

func ExternalServiceUnavailable(service string, cause error) *ExternalServiceUnavailableError {
	return &ExternalServiceUnavailableError{Service: service, Cause: cause}
}
