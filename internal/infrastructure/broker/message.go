package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/observability/metrics"
	"github.com/cargolink/notification-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// dlqReasonHeader carries the processing error onto the DLQ copy.
const dlqReasonHeader = "x-dlq-reason"

// KafkaMessage wraps a kafka-go message and implements the broker.Message
// interface. There is deliberately no retry path: a consumed event is always
// settled exactly once, by Ack or by MoveToDLQ.
type KafkaMessage struct {
	broker       *KafkaBroker
	kafkaMsg     kafka.Message
	unmarshalled domain.DispatchEvent
}

// Data returns the unmarshalled dispatch event.
func (m *KafkaMessage) Data() domain.DispatchEvent {
	return m.unmarshalled
}

// Headers returns the raw Kafka headers.
func (m *KafkaMessage) Headers() []kafka.Header {
	return m.kafkaMsg.Headers
}

// Ack commits the offset for the current message.
func (m *KafkaMessage) Ack(ctx context.Context) error {
	traceID := logger.TraceIDFromContext(ctx)
	logger.L().Debug("Acknowledging Kafka message (committing offset)",
		zap.Int64("offset", m.kafkaMsg.Offset),
		zap.String("topic", m.kafkaMsg.Topic),
		zap.String("eventID", m.Data().ID),
		zap.String("traceID", traceID),
	)
	err := m.broker.reader.CommitMessages(ctx, m.kafkaMsg)
	if err != nil {
		logger.L().Error("Failed to commit Kafka message offset",
			zap.Int64("offset", m.kafkaMsg.Offset),
			zap.String("topic", m.kafkaMsg.Topic),
			zap.String("eventID", m.Data().ID),
			zap.String("traceID", traceID),
			zap.Error(err),
		)
	}
	return err
}

// MoveToDLQ publishes the message to the configured DLQ topic.
func (m *KafkaMessage) MoveToDLQ(ctx context.Context, processingError error) error {
	traceID := logger.TraceIDFromContext(ctx)

	if m.broker.dlqTopic == "" {
		logger.L().Warn("DLQ topic not configured. Discarding event.",
			zap.String("eventID", m.Data().ID),
			zap.Error(processingError),
			zap.String("traceID", traceID),
		)
		metrics.EventsDLQ.Inc()
		return m.Ack(ctx) // Ack to remove from original topic
	}

	logger.L().Warn("Moving event to DLQ",
		zap.String("eventID", m.Data().ID),
		zap.String("dlqTopic", m.broker.dlqTopic),
		zap.String("traceID", traceID),
		zap.Error(processingError),
	)

	dlqHeaders := make([]kafka.Header, 0, len(m.kafkaMsg.Headers)+1)
	dlqHeaders = append(dlqHeaders, m.kafkaMsg.Headers...)
	dlqHeaders = append(dlqHeaders, kafka.Header{Key: dlqReasonHeader, Value: []byte(processingError.Error())})

	propagator := propagation.TraceContext{}
	propagator.Inject(ctx, otelHeaderCarrier{headers: &dlqHeaders})

	dlqMsg := kafka.Message{
		Topic:   m.broker.dlqTopic,
		Key:     m.kafkaMsg.Key,
		Value:   m.kafkaMsg.Value,
		Headers: dlqHeaders,
		Time:    time.Now(),
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := m.broker.writer.WriteMessages(ctxTimeout, dlqMsg); err != nil {
		logger.L().Error("Failed to publish event to DLQ",
			zap.String("eventID", m.Data().ID),
			zap.String("dlqTopic", m.broker.dlqTopic),
			zap.String("traceID", traceID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish message to DLQ: %w", err)
	}

	metrics.EventsDLQ.Inc()

	if ackErr := m.Ack(ctx); ackErr != nil {
		logger.L().Error("Failed to Ack original message after publishing to DLQ",
			zap.Int64("originalOffset", m.kafkaMsg.Offset),
			zap.String("eventID", m.Data().ID),
			zap.String("traceID", traceID),
			zap.Error(ackErr),
		)
		return fmt.Errorf("failed to ack original message after DLQ: %w", ackErr)
	}

	logger.L().Info("Event published to DLQ and original message acknowledged",
		zap.String("eventID", m.Data().ID),
		zap.String("dlqTopic", m.broker.dlqTopic),
		zap.String("traceID", traceID),
	)
	return nil
}
