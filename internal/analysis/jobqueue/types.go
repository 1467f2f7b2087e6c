// Package jobqueue runs asynchronous follow-up actions with retry and
// exponential backoff.
package jobqueue

import (
	"context"
	"time"

	"github.com/tphakala/callguard/internal/errors"
)

// Common errors that can be returned by job queue operations
var (
	ErrNilAction    = errors.NewStd("cannot enqueue nil action")
	ErrQueueStopped = errors.NewStd("job queue has been stopped")
	ErrQueueFull    = errors.NewStd("job queue is full")
)

// RetryConfig holds the configuration for retry behavior of an action
type RetryConfig struct {
	Enabled      bool          // Whether retry is enabled for this action
	MaxRetries   int           // Maximum number of retry attempts
	InitialDelay time.Duration // Initial delay before first retry
	MaxDelay     time.Duration // Maximum delay between retries
	Multiplier   float64       // Backoff multiplier for each subsequent retry
}

// Action defines the interface that must be implemented by any action
// that can be executed by the job queue.
type Action interface {
	Execute(ctx context.Context, data any) error
	GetDescription() string
}

// JobStatus represents the current status of a job in the queue
type JobStatus int

const (
	// JobStatusPending indicates the job is waiting to be executed
	JobStatusPending JobStatus = iota
	// JobStatusRunning indicates the job is currently being executed
	JobStatusRunning
	// JobStatusCompleted indicates the job has completed successfully
	JobStatusCompleted
	// JobStatusFailed indicates the job has failed and will not be retried
	JobStatusFailed
	// JobStatusRetrying indicates the job has failed but will be retried
	JobStatusRetrying
)

// String returns a string representation of the job status
func (s JobStatus) String() string {
	switch s {
	case JobStatusPending:
		return "Pending"
	case JobStatusRunning:
		return "Running"
	case JobStatusCompleted:
		return "Completed"
	case JobStatusFailed:
		return "Failed"
	case JobStatusRetrying:
		return "Retrying"
	default:
		return "Unknown"
	}
}

// Job represents a unit of work in the job queue
type Job struct {
	ID          string      // Unique ID for this job
	Action      Action      // The action to execute
	Data        any         // Data for the action
	Attempts    int         // Number of attempts made so far
	MaxAttempts int         // Maximum number of attempts allowed
	CreatedAt   time.Time   // When the job was created
	NextRetryAt time.Time   // When to next attempt the job
	Status      JobStatus   // Current status of the job
	LastError   error       // Last error encountered
	Config      RetryConfig // Retry configuration for this job
}

// JobStats is a point-in-time snapshot of queue statistics
type JobStats struct {
	TotalJobs      int
	SuccessfulJobs int
	FailedJobs     int
	DroppedJobs    int
	RetryAttempts  int
	PendingJobs    int
}

// GetDefaultRetryConfig returns the retry policy used for integrations.
func GetDefaultRetryConfig(enabled bool) RetryConfig {
	return RetryConfig{
		Enabled:      enabled,
		MaxRetries:   3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}
