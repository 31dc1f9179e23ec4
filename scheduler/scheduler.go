package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrCapacityExceeded is returned by Submit when queued+running jobs
	// already sit at the configured maximum. No job is created.
	ErrCapacityExceeded = errors.New("job queue capacity exceeded")

	// ErrJobNotFound is returned by GetStatus for unknown job ids.
	ErrJobNotFound = errors.New("job not found")
)

// QueueSnapshot is a point-in-time view of the scheduler's admission state.
type QueueSnapshot struct {
	QueueLength   int      `json:"queue_length"`
	RunningCount  int      `json:"running_count"`
	MaxConcurrent int      `json:"max_concurrent"`
	MaxQueueSize  int      `json:"max_queue_size"`
	PendingIDs    []string `json:"pending_ids"`
	RunningIDs    []string `json:"running_ids"`
}

// Scheduler admits submitted jobs in FIFO order, bounds how many execute
// concurrently, and races each running job against its timeout. The job
// table and the pending queue are the only shared state; every mutation
// goes through one mutex, and work itself always runs outside of it.
type Scheduler struct {
	mu            sync.Mutex
	jobs          map[string]*Job
	pendingWork   map[string]Work
	queue         []string
	running       int
	maxConcurrent int
	maxQueueSize  int
	logger        *zap.Logger
}

// New creates a scheduler with the given concurrency and queue bounds.
func New(maxConcurrent, maxQueueSize int, logger *zap.Logger) *Scheduler {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if maxQueueSize < maxConcurrent {
		maxQueueSize = maxConcurrent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		jobs:          make(map[string]*Job),
		pendingWork:   make(map[string]Work),
		maxConcurrent: maxConcurrent,
		maxQueueSize:  maxQueueSize,
		logger:        logger,
	}
}

type admission struct {
	id      string
	work    Work
	timeout time.Duration
}

// Submit enqueues a job; if a running slot is free it starts immediately,
// otherwise it waits its turn in FIFO order.
func (s *Scheduler) Submit(subjectID, label string, work Work, timeout time.Duration) (string, error) {
	s.mu.Lock()
	if len(s.queue)+s.running >= s.maxQueueSize {
		s.mu.Unlock()
		return "", ErrCapacityExceeded
	}

	id := uuid.NewString()
	s.jobs[id] = &Job{
		ID:        id,
		SubjectID: subjectID,
		Label:     label,
		Status:    StatusPending,
		CreatedAt: time.Now(),
		Timeout:   timeout,
	}
	s.pendingWork[id] = work
	s.queue = append(s.queue, id)
	admitted := s.admitLocked()
	s.mu.Unlock()

	s.logger.Info("job submitted",
		zap.String("job_id", id),
		zap.String("subject_id", subjectID),
		zap.String("label", label))

	s.start(admitted)
	return id, nil
}

// GetStatus returns a copy of the job record.
func (s *Scheduler) GetStatus(jobID string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return *job, nil
}

// GetQueueSnapshot reports queue depth, running count and the configured
// limits, plus the pending ids in admission order and the running ids.
func (s *Scheduler) GetQueueSnapshot() QueueSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := QueueSnapshot{
		QueueLength:   len(s.queue),
		RunningCount:  s.running,
		MaxConcurrent: s.maxConcurrent,
		MaxQueueSize:  s.maxQueueSize,
		PendingIDs:    append([]string(nil), s.queue...),
	}
	for id, job := range s.jobs {
		if job.Status == StatusRunning {
			snap.RunningIDs = append(snap.RunningIDs, id)
		}
	}
	sort.Strings(snap.RunningIDs)
	return snap
}

// Cleanup drops terminal jobs whose completion is older than maxAge and
// returns how many were removed. Pending and running jobs are untouched.
func (s *Scheduler) Cleanup(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if job.Status.Terminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// admitLocked moves pending jobs into running slots until the queue is empty
// or maxConcurrent is reached. Caller holds the mutex; the returned jobs are
// started by the caller after releasing it.
func (s *Scheduler) admitLocked() []admission {
	var admitted []admission
	now := time.Now()
	for len(s.queue) > 0 && s.running < s.maxConcurrent {
		id := s.queue[0]
		s.queue = s.queue[1:]

		job := s.jobs[id]
		work := s.pendingWork[id]
		delete(s.pendingWork, id)

		started := now
		job.Status = StatusRunning
		job.StartedAt = &started
		s.running++
		admitted = append(admitted, admission{id: id, work: work, timeout: job.Timeout})
	}
	return admitted
}

func (s *Scheduler) start(admitted []admission) {
	for _, a := range admitted {
		go s.run(a.id, a.work, a.timeout)
	}
}

type outcome struct {
	result any
	err    error
}

// run executes one job's work against its timeout. Late results from
// abandoned work lose the race and are discarded by finish's terminal check.
func (s *Scheduler) run(id string, work Work, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		result, err := work(ctx)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			s.finish(id, StatusFailed, nil, out.err.Error())
		} else {
			s.finish(id, StatusCompleted, out.result, "")
		}
	case <-ctx.Done():
		s.finish(id, StatusTimedOut, nil,
			fmt.Sprintf("timed out after %g seconds", timeout.Seconds()))
	}
}

// finish records a terminal transition exactly once, frees the running slot
// and admits the next pending job(s).
func (s *Scheduler) finish(id string, status JobStatus, result any, errText string) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		s.mu.Unlock()
		return
	}

	now := time.Now()
	job.Status = status
	job.CompletedAt = &now
	if status == StatusCompleted {
		job.Result = result
	} else {
		job.Error = &errText
	}
	s.running--
	admitted := s.admitLocked()
	s.mu.Unlock()

	if status == StatusCompleted {
		s.logger.Info("job completed", zap.String("job_id", id))
	} else {
		s.logger.Warn("job ended with error",
			zap.String("job_id", id),
			zap.String("status", string(status)),
			zap.String("error", errText))
	}

	s.start(admitted)
}
