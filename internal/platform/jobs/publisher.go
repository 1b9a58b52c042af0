// Package jobs publishes order lifecycle events for downstream consumers
// (notification sender, bookkeeping export).
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
)

// Event names carried in the "event" message attribute.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status.changed"
)

// OrderEvent is the published payload.
type OrderEvent struct {
	Event       string    `json:"event"`
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Status      string    `json:"status"`
	PrevStatus  string    `json:"prevStatus,omitempty"`
	Total       int64     `json:"total"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Publisher emits order events.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// PubSubPublisher publishes to a Pub/Sub topic.
type PubSubPublisher struct {
	topic *pubsub.Topic
}

// NewPubSubPublisher wraps an existing topic handle.
func NewPubSubPublisher(topic *pubsub.Topic) (*PubSubPublisher, error) {
	if topic == nil {
		return nil, errors.New("jobs: topic is nil")
	}
	return &PubSubPublisher{topic: topic}, nil
}

// Publish sends the event and waits for the server ack.
func (p *PubSubPublisher) Publish(ctx context.Context, event OrderEvent) error {
	if event.Event == "" {
		return errors.New("jobs: event name is empty")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("jobs: marshal event: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event":       event.Event,
			"orderNumber": event.OrderNumber,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("jobs: publish %s: %w", event.Event, err)
	}
	return nil
}

// NopPublisher drops events; used when no topic is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }
