package jobqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/callguard/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	)
}

// countingAction fails until it has been called failUntil times.
type countingAction struct {
	calls     atomic.Int32
	failUntil int32
	panics    bool
	permanent bool

	mu       sync.Mutex
	lastData any
}

func (a *countingAction) Execute(_ context.Context, data any) error {
	n := a.calls.Add(1)
	a.mu.Lock()
	a.lastData = data
	a.mu.Unlock()
	if a.panics {
		panic("boom")
	}
	if a.permanent {
		return errors.ValidationError("malformed payload")
	}
	if n <= a.failUntil {
		return errors.NewStd("transient failure")
	}
	return nil
}

func (a *countingAction) GetDescription() string { return "counting action" }

func (a *countingAction) data() any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastData
}

func fastRetry() RetryConfig {
	return RetryConfig{
		Enabled:      true,
		MaxRetries:   2,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		Multiplier:   2,
	}
}

func startQueue(t *testing.T, maxJobs int) *JobQueue {
	t.Helper()
	q := NewJobQueueWithOptions(maxJobs)
	q.SetProcessingInterval(5 * time.Millisecond)
	q.Start(context.Background())
	t.Cleanup(func() { _ = q.Stop(time.Second) })
	return q
}

func TestJobQueue_RunsJob(t *testing.T) {
	t.Parallel()
	q := startQueue(t, 10)
	action := &countingAction{}

	_, err := q.Enqueue(action, "payload", RetryConfig{})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return q.GetStats().SuccessfulJobs == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), action.calls.Load())
	assert.Equal(t, "payload", action.data())
	assert.Zero(t, q.GetStats().PendingJobs)
}

func TestJobQueue_RetriesUntilSuccess(t *testing.T) {
	t.Parallel()
	q := startQueue(t, 10)
	action := &countingAction{failUntil: 2}

	_, err := q.Enqueue(action, nil, fastRetry())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return q.GetStats().SuccessfulJobs == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), action.calls.Load())
	assert.Equal(t, 2, q.GetStats().RetryAttempts)
	assert.Nil(t, action.data())
}

func TestJobQueue_GivesUp(t *testing.T) {
	t.Parallel()
	q := startQueue(t, 10)
	action := &countingAction{failUntil: 100}

	_, err := q.Enqueue(action, nil, fastRetry())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return q.GetStats().FailedJobs == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), action.calls.Load())
	assert.Zero(t, q.GetStats().PendingJobs)
}

func TestJobQueue_PermanentErrorSkipsRetry(t *testing.T) {
	t.Parallel()
	q := startQueue(t, 10)
	action := &countingAction{permanent: true}

	_, err := q.Enqueue(action, nil, fastRetry())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return q.GetStats().FailedJobs == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), action.calls.Load())
	assert.Zero(t, q.GetStats().RetryAttempts)
	assert.Zero(t, q.GetStats().SuccessfulJobs)
}

func TestJobQueue_NoRetryWhenDisabled(t *testing.T) {
	t.Parallel()
	q := startQueue(t, 10)
	action := &countingAction{failUntil: 100}

	_, err := q.Enqueue(action, nil, RetryConfig{MaxRetries: 5})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return q.GetStats().FailedJobs == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), action.calls.Load())
}

func TestJobQueue_PanicIsFailure(t *testing.T) {
	t.Parallel()
	q := startQueue(t, 10)

	_, err := q.Enqueue(&countingAction{panics: true}, nil, RetryConfig{})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return q.GetStats().FailedJobs == 1 }, time.Second, 5*time.Millisecond)
}

func TestJobQueue_EnqueueErrors(t *testing.T) {
	t.Parallel()

	t.Run("nil action", func(t *testing.T) {
		t.Parallel()
		q := startQueue(t, 10)
		_, err := q.Enqueue(nil, nil, RetryConfig{})
		assert.ErrorIs(t, err, ErrNilAction)
	})

	t.Run("not started", func(t *testing.T) {
		t.Parallel()
		_, err := NewJobQueue().Enqueue(&countingAction{}, nil, RetryConfig{})
		assert.ErrorIs(t, err, ErrQueueStopped)
	})

	t.Run("full", func(t *testing.T) {
		t.Parallel()
		q := NewJobQueueWithOptions(1)
		q.SetProcessingInterval(time.Hour)
		q.Start(context.Background())
		t.Cleanup(func() { _ = q.Stop(time.Second) })

		_, err := q.Enqueue(&countingAction{}, nil, RetryConfig{})
		require.NoError(t, err)
		_, err = q.Enqueue(&countingAction{}, nil, RetryConfig{})
		assert.ErrorIs(t, err, ErrQueueFull)
		assert.Equal(t, 1, q.GetStats().DroppedJobs)
	})
}

func TestJobQueue_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	q := NewJobQueue()
	q.Start(context.Background())
	require.NoError(t, q.Stop(time.Second))
	require.NoError(t, q.Stop(time.Second))

	_, err := q.Enqueue(&countingAction{}, nil, RetryConfig{})
	assert.ErrorIs(t, err, ErrQueueStopped)
}

func TestCalculateBackoffDelay(t *testing.T) {
	t.Parallel()

	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	tests := []struct {
		attempt int
		lo, hi  time.Duration
	}{
		{1, 90 * time.Millisecond, 110 * time.Millisecond},
		{2, 180 * time.Millisecond, 220 * time.Millisecond},
		{3, 360 * time.Millisecond, 440 * time.Millisecond},
		{10, time.Second, time.Second},
	}

	for _, tt := range tests {
		d := calculateBackoffDelay(cfg, tt.attempt)
		assert.GreaterOrEqual(t, d, tt.lo, "attempt %d", tt.attempt)
		assert.LessOrEqual(t, d, tt.hi, "attempt %d", tt.attempt)
	}
}

func TestJobStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Pending", JobStatusPending.String())
	assert.Equal(t, "Retrying", JobStatusRetrying.String())
	assert.Equal(t, "Unknown", JobStatus(42).String())
}
