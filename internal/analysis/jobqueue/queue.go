package jobqueue

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tphakala/callguard/internal/errors"
	"github.com/tphakala/callguard/internal/logger"
)

// defaultExecTimeout bounds one attempt of an action
const defaultExecTimeout = 30 * time.Second

// JobQueue manages a queue of jobs that can be retried
type JobQueue struct {
	jobs               []*Job
	mu                 sync.Mutex
	stats              JobStats
	jobCounter         int
	runningJobs        sync.WaitGroup // Track running jobs for graceful shutdown
	processDone        chan struct{}
	isRunning          bool
	maxJobs            int // Maximum number of pending jobs in the queue
	processCancel      context.CancelFunc
	processingInterval time.Duration
	execTimeout        time.Duration
}

// NewJobQueue creates a new job queue with default settings
func NewJobQueue() *JobQueue {
	return NewJobQueueWithOptions(1000)
}

// NewJobQueueWithOptions creates a new job queue holding at most maxJobs
// unfinished jobs.
func NewJobQueueWithOptions(maxJobs int) *JobQueue {
	return &JobQueue{
		jobs:               make([]*Job, 0),
		maxJobs:            maxJobs,
		processingInterval: 100 * time.Millisecond,
		execTimeout:        defaultExecTimeout,
	}
}

// SetProcessingInterval sets how often due jobs are picked up
func (q *JobQueue) SetProcessingInterval(interval time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processingInterval = interval
}

// Start starts the job queue processing with a context
func (q *JobQueue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.isRunning {
		return
	}
	q.isRunning = true

	processCtx, cancel := context.WithCancel(ctx)
	q.processCancel = cancel
	q.processDone = make(chan struct{})
	interval := q.processingInterval

	go q.processJobs(processCtx, interval, q.processDone)
}

// Stop stops accepting jobs and waits up to timeout for running jobs to
// finish. Jobs still waiting for a retry are abandoned.
func (q *JobQueue) Stop(timeout time.Duration) error {
	q.mu.Lock()
	if !q.isRunning {
		q.mu.Unlock()
		return nil
	}
	q.isRunning = false
	q.processCancel()
	done := q.processDone
	q.mu.Unlock()

	<-done

	c := make(chan struct{})
	go func() {
		q.runningJobs.Wait()
		close(c)
	}()

	select {
	case <-c:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timed out waiting for jobs to complete after %v", timeout)
	}
}

// Enqueue adds a job to the queue
func (q *JobQueue) Enqueue(action Action, data any, config RetryConfig) (*Job, error) {
	if action == nil {
		return nil, ErrNilAction
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.isRunning {
		return nil, ErrQueueStopped
	}
	if len(q.jobs) >= q.maxJobs {
		q.stats.DroppedJobs++
		return nil, fmt.Errorf("%w: maximum queue size (%d) reached", ErrQueueFull, q.maxJobs)
	}

	maxAttempts := 1
	if config.Enabled {
		maxAttempts += config.MaxRetries
	}

	q.jobCounter++
	now := time.Now()
	job := &Job{
		ID:          fmt.Sprintf("job-%d", q.jobCounter),
		Action:      action,
		Data:        data,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		NextRetryAt: now,
		Status:      JobStatusPending,
		Config:      config,
	}
	q.jobs = append(q.jobs, job)
	q.stats.TotalJobs++

	return job, nil
}

// processJobs runs due jobs on every tick until ctx is canceled
func (q *JobQueue) processJobs(ctx context.Context, interval time.Duration, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.processDueJobs(ctx)
		}
	}
}

// processDueJobs starts every job whose retry time has passed
func (q *JobQueue) processDueJobs(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	for _, job := range q.jobs {
		if job.Status != JobStatusPending && job.Status != JobStatusRetrying {
			continue
		}
		if job.NextRetryAt.After(now) {
			continue
		}
		job.Status = JobStatusRunning
		q.runningJobs.Go(func() {
			q.executeJob(ctx, job)
		})
	}
}

// executeJob executes a job and handles retries if needed
func (q *JobQueue) executeJob(ctx context.Context, job *Job) {
	q.mu.Lock()
	job.Attempts++
	if job.Attempts > 1 {
		q.stats.RetryAttempts++
	}
	timeout := q.execTimeout
	q.mu.Unlock()

	// running jobs finish even when the queue stops
	execCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	err := runAction(execCtx, job)

	q.mu.Lock()
	defer q.mu.Unlock()

	log := GetLogger().With(
		logger.String("job_id", job.ID),
		logger.String("action", job.Action.GetDescription()),
		logger.Int("attempt", job.Attempts),
		logger.Int("max_attempts", job.MaxAttempts))

	switch {
	case err == nil:
		job.Status = JobStatusCompleted
		q.stats.SuccessfulJobs++
		if job.Attempts > 1 {
			log.Info("job succeeded after retry")
		}
		q.removeJob(job)
	case job.Attempts >= job.MaxAttempts || !errors.IsRetryable(err):
		job.Status = JobStatusFailed
		job.LastError = err
		q.stats.FailedJobs++
		log.Warn("job permanently failed",
			logger.Bool("retryable", errors.IsRetryable(err)),
			logger.Error(err))
		q.removeJob(job)
	default:
		job.Status = JobStatusRetrying
		job.LastError = err
		delay := calculateBackoffDelay(job.Config, job.Attempts)
		job.NextRetryAt = time.Now().Add(delay)
		log.Debug("job failed, will retry",
			logger.Duration("delay", delay),
			logger.Time("next_retry_at", job.NextRetryAt),
			logger.Error(err))
	}
}

// runAction executes the action, converting panics into errors
func runAction(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job execution panicked: %v", r)
		}
	}()
	return job.Action.Execute(ctx, job.Data)
}

// removeJob drops a finished job. Must be called with q.mu held.
func (q *JobQueue) removeJob(job *Job) {
	for i, j := range q.jobs {
		if j == job {
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			return
		}
	}
}

// calculateBackoffDelay calculates the delay before the next retry attempt
func calculateBackoffDelay(config RetryConfig, attemptNum int) time.Duration {
	multiplier := config.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	backoff := float64(config.InitialDelay) * math.Pow(multiplier, float64(attemptNum-1))

	// ±10% jitter
	backoff *= 0.9 + 0.2*rand.Float64()

	if config.MaxDelay > 0 && backoff > float64(config.MaxDelay) {
		backoff = float64(config.MaxDelay)
	}
	return time.Duration(backoff)
}

// GetStats returns a snapshot of the current job statistics
func (q *JobQueue) GetStats() JobStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	stats := q.stats
	stats.PendingJobs = len(q.jobs)
	return stats
}
