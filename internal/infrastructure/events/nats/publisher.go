package nats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/skolahq/skola/pkg/interfaces"
)

// Publisher publishes integration events to JetStream. It implements
// interfaces.IntegrationPublisher.
type Publisher struct {
	client *Client
	logger interfaces.Logger
}

// NewPublisher creates a new JetStream publisher.
func NewPublisher(client *Client, logger interfaces.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// Publish publishes a payload under a topic. The event type doubles as the
// NATS subject, so consumers filter with subject wildcards (course.>,
// enrollment.>).
func (p *Publisher) Publish(ctx context.Context, topic string, data []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ack, err := p.client.JetStream().Publish(pubCtx, topic, data)
	if err != nil {
		p.logger.Error("failed to publish integration event",
			interfaces.String("subject", topic),
			interfaces.Error(err))
		return err
	}

	p.logger.Debug("integration event published",
		interfaces.String("subject", topic),
		interfaces.String("stream", ack.Stream))
	return nil
}

// Close tears down the broker connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}

// Relay forwards events from the in-process bus to the broker. Subscribe one
// relay per event type that should leave the service.
type Relay struct {
	eventType string
	publisher interfaces.IntegrationPublisher
	logger    interfaces.Logger
}

// NewRelay creates a relay for the given event type.
func NewRelay(eventType string, publisher interfaces.IntegrationPublisher, logger interfaces.Logger) *Relay {
	return &Relay{eventType: eventType, publisher: publisher, logger: logger}
}

// EventType implements interfaces.EventHandler.
func (r *Relay) EventType() string {
	return r.eventType
}

// Handle serializes the event and hands it to the broker.
func (r *Relay) Handle(ctx context.Context, event interfaces.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.publisher.Publish(ctx, event.EventType(), data)
}

// AttachRelays wires relays for the given event types onto the bus.
func AttachRelays(bus interfaces.EventBus, publisher interfaces.IntegrationPublisher, logger interfaces.Logger, eventTypes ...string) error {
	for _, et := range eventTypes {
		if err := bus.Subscribe(et, NewRelay(et, publisher, logger)); err != nil {
			return err
		}
	}
	return nil
}

var (
	_ interfaces.IntegrationPublisher = (*Publisher)(nil)
	_ interfaces.EventHandler         = (*Relay)(nil)
)
