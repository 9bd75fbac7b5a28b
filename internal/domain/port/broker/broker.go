package broker

import (
	"context"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

// Message represents one dispatch event obtained from the broker.
// It encapsulates the event data and offset/DLQ lifecycle management.
type Message interface {
	// Data returns the unmarshalled dispatch event.
	Data() domain.DispatchEvent
	// Ack acknowledges the event once its dispatch has settled. Channel
	// failures are recorded by the dispatcher, so a consumed event is always
	// acked; there is no redelivery path.
	Ack(ctx context.Context) error
	// MoveToDLQ parks an event that could not be handed to the dispatcher
	// (poison payloads, invalid enums).
	MoveToDLQ(ctx context.Context, processingError error) error
	// Headers returns the message headers (e.g., for trace propagation).
	Headers() []kafka.Header
}

// MessageBroker is the transport between the business services and the
// dispatch engine.
type MessageBroker interface {
	// Publish enqueues one dispatch event for asynchronous processing.
	Publish(ctx context.Context, event domain.DispatchEvent) error

	// Consume runs the consumption loop, wrapping each fetched event in a
	// Message and passing it to consumeFunc. consumeFunc owns the Ack/DLQ
	// decision; Consume only handles fetch errors and shutdown.
	Consume(ctx context.Context, consumeFunc func(ctx context.Context, msg Message) error) error

	// Close terminates the broker connection and cleans up resources.
	Close() error
}
