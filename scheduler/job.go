package scheduler

import (
	"context"
	"time"
)

type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusTimedOut  JobStatus = "timed_out"
)

// Terminal reports whether the status can no longer change.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusTimedOut
}

// Job tracks one submitted unit of document-processing work. Once the status
// is terminal the scheduler never touches the record again; GetStatus hands
// out copies, so terminal reads are stable.
type Job struct {
	ID          string        `json:"id"`
	SubjectID   string        `json:"subject_id"`
	Label       string        `json:"label"`
	Status      JobStatus     `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Timeout     time.Duration `json:"-"`
	Result      any           `json:"result,omitempty"`
	Error       *string       `json:"error,omitempty"`
}

// Work is the unit of work supplied by the caller at submission time. The
// context carries the per-job timeout; work that honors it stops early,
// work that does not is abandoned and its result discarded.
type Work func(ctx context.Context) (any, error)
