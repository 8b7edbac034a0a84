package engine

import "time"

// Status is the lifecycle state of a task within one run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusRetrying  Status = "retrying"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// TaskResult is the outcome of one task. Output is set only on success, Err
// only on failure.
type TaskResult struct {
	Status    Status
	Attempts  int
	Output    string
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
}
