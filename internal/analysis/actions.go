package analysis

import (
	"context"
	"time"

	"github.com/tphakala/callguard/internal/analysis/jobqueue"
	"github.com/tphakala/callguard/internal/datastore"
	"github.com/tphakala/callguard/internal/errors"
	"github.com/tphakala/callguard/internal/logger"
	"github.com/tphakala/callguard/internal/mqtt"
)

// IntegrationRecorder counts failures of post-analysis actions.
type IntegrationRecorder interface {
	RecordPublishError()
	RecordHistorySaveError()
}

// HistoryAction saves an analysis summary to the history store.
type HistoryAction struct {
	Store       datastore.Store
	Record      datastore.Analysis
	Metrics     IntegrationRecorder
	Description string
}

// PublishAction publishes a verdict over MQTT.
type PublishAction struct {
	Publisher   *mqtt.Publisher
	Message     mqtt.VerdictMessage
	Metrics     IntegrationRecorder
	Description string
}

// GetDescription returns a human-readable description of the HistoryAction
func (a *HistoryAction) GetDescription() string {
	if a.Description != "" {
		return a.Description
	}
	return "Save analysis to history"
}

// Execute saves the record. The data argument is unused.
func (a *HistoryAction) Execute(ctx context.Context, _ any) error {
	record := a.Record
	if err := a.Store.Save(ctx, &record); err != nil {
		if a.Metrics != nil {
			a.Metrics.RecordHistorySaveError()
		}
		return err
	}
	return nil
}

// GetDescription returns a human-readable description of the PublishAction
func (a *PublishAction) GetDescription() string {
	if a.Description != "" {
		return a.Description
	}
	return "Publish verdict to MQTT"
}

// Execute publishes the message, failing fast while the broker is unreachable
// so the queue can back off.
func (a *PublishAction) Execute(ctx context.Context, _ any) error {
	if err := a.Publisher.EnsureConnected(ctx); err != nil {
		if a.Metrics != nil {
			a.Metrics.RecordPublishError()
		}
		return errors.New(err).
			Component("analysis").
			Category(errors.CategoryMQTTConnection).
			Context("request_id", a.Message.RequestID).
			Build()
	}
	if err := a.Publisher.Publish(ctx, a.Message); err != nil {
		if a.Metrics != nil {
			a.Metrics.RecordPublishError()
		}
		return err
	}
	return nil
}

// HistoryRecord converts a report into its persisted form.
func HistoryRecord(r *Report) datastore.Analysis {
	return datastore.Analysis{
		ID:             r.RequestID,
		CreatedAt:      r.Timestamp,
		AudioHash:      r.AudioHash,
		Status:         string(r.Status),
		RiskLevel:      string(r.RiskLevel),
		Confidence:     r.Confidence,
		Classification: string(r.Classification),
		Duration:       r.Duration,
		Robustness:     r.RobustnessApplied,
		Degraded:       r.Degraded(),
		Language:       r.Language.PrimaryLanguage,
	}
}

// VerdictMessage converts a report into the published summary.
func VerdictMessage(r *Report) mqtt.VerdictMessage {
	return mqtt.VerdictMessage{
		RequestID:      r.RequestID,
		Status:         string(r.Status),
		RiskLevel:      string(r.RiskLevel),
		Confidence:     r.Confidence,
		Classification: string(r.Classification),
		Duration:       r.Duration,
		Language:       r.Language.PrimaryLanguage,
		Robustness:     r.RobustnessApplied,
		Explanation:    r.Explanation,
		Timestamp:      r.Timestamp,
	}
}

// Dispatcher hands finished reports to the history store and the verdict
// publisher without delaying the response.
type Dispatcher struct {
	queue     *jobqueue.JobQueue
	store     datastore.Store     // nil disables history
	publisher *mqtt.Publisher     // nil disables publishing
	metrics   IntegrationRecorder // may be nil
	retry     jobqueue.RetryConfig
	log       logger.Logger
}

// NewDispatcher returns a dispatcher that runs actions on queue.
func NewDispatcher(queue *jobqueue.JobQueue, store datastore.Store, publisher *mqtt.Publisher, m IntegrationRecorder) *Dispatcher {
	return &Dispatcher{
		queue:     queue,
		store:     store,
		publisher: publisher,
		metrics:   m,
		retry:     jobqueue.GetDefaultRetryConfig(true),
		log:       GetLogger(),
	}
}

// Dispatch enqueues the follow-up actions for r. Enqueue failures are logged;
// they never surface to the caller.
func (d *Dispatcher) Dispatch(r *Report) {
	if r == nil {
		return
	}
	if d.store != nil {
		d.enqueue(&HistoryAction{Store: d.store, Record: HistoryRecord(r), Metrics: d.metrics}, r.RequestID)
	}
	if d.publisher != nil && d.publisher.ShouldPublish(string(r.Status)) {
		d.enqueue(&PublishAction{Publisher: d.publisher, Message: VerdictMessage(r), Metrics: d.metrics}, r.RequestID)
	}
}

func (d *Dispatcher) enqueue(action jobqueue.Action, requestID string) {
	if _, err := d.queue.Enqueue(action, nil, d.retry); err != nil {
		d.log.Warn("dropping post-analysis action",
			logger.String("action", action.GetDescription()),
			logger.String("request_id", requestID),
			logger.Error(err))
	}
}

// Stats returns the queue statistics.
func (d *Dispatcher) Stats() jobqueue.JobStats {
	return d.queue.GetStats()
}

// Close waits up to timeout for in-flight actions.
func (d *Dispatcher) Close(timeout time.Duration) error {
	return d.queue.Stop(timeout)
}
