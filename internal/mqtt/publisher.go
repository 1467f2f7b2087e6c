package mqtt

import (
	"context"
	"encoding/json"

	"github.com/tphakala/callguard/internal/errors"
)

// StatusFraud is the only status published unless PublishAll is set.
const StatusFraud = "fraud"

// Publisher sends verdict messages through a Client.
type Publisher struct {
	client     Client
	topic      string
	publishAll bool
}

// NewPublisher returns a publisher writing to topic. With publishAll false
// only fraud verdicts are sent.
func NewPublisher(c Client, topic string, publishAll bool) *Publisher {
	return &Publisher{client: c, topic: topic, publishAll: publishAll}
}

// ShouldPublish reports whether a verdict with status is sent.
func (p *Publisher) ShouldPublish(status string) bool {
	return p.publishAll || status == StatusFraud
}

// Publish marshals msg and sends it. Verdicts filtered out by ShouldPublish
// are skipped without error.
func (p *Publisher) Publish(ctx context.Context, msg VerdictMessage) error {
	if !p.ShouldPublish(msg.Status) {
		return nil
	}
	if msg.Explanation == nil {
		msg.Explanation = []string{}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("operation", "marshal").
			Build()
	}

	return p.client.Publish(ctx, p.topic, payload)
}

// EnsureConnected connects the client if no connection attempt has
// succeeded yet.
func (p *Publisher) EnsureConnected(ctx context.Context) error {
	if p.client.IsConnected() {
		return nil
	}
	return p.client.Connect(ctx)
}

// Connected reports whether the underlying client is connected.
func (p *Publisher) Connected() bool {
	return p.client.IsConnected()
}

// Close disconnects the underlying client.
func (p *Publisher) Close() {
	p.client.Disconnect()
}
