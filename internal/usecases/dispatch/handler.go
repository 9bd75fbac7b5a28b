package dispatch

import (
	"context"
	"fmt"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/domain/port/broker"
	"github.com/cargolink/notification-service/internal/observability/metrics"
	"github.com/cargolink/notification-service/internal/observability/tracing"
	"github.com/cargolink/notification-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// otelHeaderCarrier adapts kafka-go headers to OpenTelemetry's TextMapCarrier
type otelHeaderCarrier struct {
	headers *[]kafka.Header
}

func (c otelHeaderCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c otelHeaderCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c otelHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

// EventHandler sits between the broker and the dispatch use case. It owns the
// Ack/DLQ decision for every consumed message: structurally invalid events go
// to the DLQ, everything else is dispatched and acked.
type EventHandler struct {
	dispatcher UseCaseInterface
}

func NewEventHandler(dispatcher UseCaseInterface) *EventHandler {
	return &EventHandler{dispatcher: dispatcher}
}

// Handle processes one consumed dispatch event to completion. It always
// settles the message (ack or DLQ) before returning; the returned error only
// reports broker-side settlement failures.
func (h *EventHandler) Handle(ctx context.Context, msg broker.Message) error {
	headers := msg.Headers()
	carrier := otelHeaderCarrier{headers: &headers}
	propagator := propagation.TraceContext{}
	parentCtx := propagator.Extract(ctx, carrier)

	consumerCtx, span := tracing.Tracer.Start(parentCtx, "DispatchEventHandler.Handle", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	event := msg.Data()
	metrics.DispatchesReceived.WithLabelValues("kafka").Inc()

	if err := validateEvent(event); err != nil {
		logger.L().Error("Invalid dispatch event, moving to DLQ",
			zap.String("eventID", event.ID),
			zap.Int64("recipientID", event.RecipientID),
			zap.String("traceID", logger.TraceIDFromContext(consumerCtx)),
			zap.Error(err),
		)
		return msg.MoveToDLQ(consumerCtx, err)
	}

	h.dispatcher.Execute(consumerCtx, Input{
		EventID:       event.ID,
		RecipientID:   event.RecipientID,
		RecipientType: event.RecipientType,
		Type:          event.Type,
		Message:       event.Message,
		ReferenceID:   event.ReferenceID,
		ReferenceType: event.ReferenceType,
		Metadata:      event.Metadata,
	})

	return msg.Ack(consumerCtx)
}

// validateEvent rejects events the dispatcher cannot act on. Unknown
// notification types are not rejected here: the composer degrades them to a
// generic message.
func validateEvent(event domain.DispatchEvent) error {
	if event.RecipientID <= 0 {
		return fmt.Errorf("invalid recipient id: %d", event.RecipientID)
	}
	if !event.RecipientType.IsValid() {
		return fmt.Errorf("invalid recipient type: %q", event.RecipientType)
	}
	if event.Type == "" {
		return fmt.Errorf("missing notification type")
	}
	return nil
}
