package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cargolink/notification-service/configs"
	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/domain/port/broker"
	"github.com/cargolink/notification-service/pkg/backoff"
	"github.com/cargolink/notification-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const fetchErrorBaseDelay = time.Second

// KafkaBroker implements the broker.MessageBroker interface using Kafka. The
// same instance serves both sides: business services publish dispatch events
// through it, and the engine consumes them from it.
type KafkaBroker struct {
	writer   *kafka.Writer
	reader   *kafka.Reader
	brokers  []string
	topic    string
	groupID  string
	dlqTopic string
	mu       sync.Mutex
}

// Config holds configuration for the KafkaBroker.
type Config struct {
	Brokers []string
}

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

// NewKafkaBroker creates a new KafkaBroker instance.
func NewKafkaBroker(cfg Config) (*KafkaBroker, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers cannot be empty")
	}

	appConfig := configs.GetConfig()
	topic := appConfig.KafkaTopic
	groupID := appConfig.KafkaGroupID
	dlqTopic := appConfig.KafkaDLQTopic

	if topic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC must be set")
	}
	if groupID == "" {
		return nil, fmt.Errorf("KAFKA_GROUP_ID must be set")
	}
	if dlqTopic == "" {
		logger.L().Warn("KAFKA_DLQ_TOPIC is not set. Poison events will be discarded.")
	}

	// Topic is set per message so the same writer serves both the primary
	// topic and the DLQ.
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: 0,    // Disable auto-commit, we'll commit manually
	})

	logger.L().Info("Kafka Broker initialized",
		zap.String("topic", topic),
		zap.String("groupID", groupID),
		zap.String("dlqTopic", dlqTopic),
		zap.Strings("brokers", cfg.Brokers),
	)

	return &KafkaBroker{
		writer:   w,
		reader:   r,
		brokers:  cfg.Brokers,
		topic:    topic,
		groupID:  groupID,
		dlqTopic: dlqTopic,
	}, nil
}

// Publish enqueues one dispatch event, keyed by recipient so a recipient's
// events stay in one partition.
func (kb *KafkaBroker) Publish(ctx context.Context, event domain.DispatchEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch event: %w", err)
	}

	headers := []kafka.Header{}
	propagator := propagation.TraceContext{}
	propagator.Inject(ctx, otelHeaderCarrier{headers: &headers})

	msg := kafka.Message{
		Topic:   kb.topic,
		Key:     []byte(strconv.FormatInt(event.RecipientID, 10)),
		Value:   payload,
		Headers: headers,
		Time:    time.Now(),
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := kb.writer.WriteMessages(ctxTimeout, msg); err != nil {
		return fmt.Errorf("failed to publish dispatch event: %w", err)
	}

	logger.L().Debug("Published dispatch event",
		zap.String("eventID", event.ID),
		zap.Int64("recipientID", event.RecipientID),
		zap.String("topic", kb.topic),
		zap.String("traceID", logger.TraceIDFromContext(ctx)),
	)
	return nil
}

// Consume fetches messages from Kafka and passes them to the consumeFunc.
// Consecutive fetch errors back off exponentially instead of spinning.
func (kb *KafkaBroker) Consume(
	ctx context.Context,
	consumeFunc func(ctx context.Context, msg broker.Message) error,
) error {
	logger.L().Info("Starting Kafka consumer loop",
		zap.String("topic", kb.topic),
		zap.String("groupID", kb.groupID),
	)

	consecutiveFetchErrors := 0
	for {
		message, err := kb.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || err == context.Canceled || err == context.DeadlineExceeded {
				logger.L().Info("Context cancelled or deadline exceeded, stopping consumer loop",
					zap.String("topic", kb.topic),
					zap.String("groupID", kb.groupID),
					zap.Error(err),
				)
				return nil
			}
			consecutiveFetchErrors++
			delay := backoff.Calculate(consecutiveFetchErrors+1, fetchErrorBaseDelay)
			logger.L().Error("Error fetching message from Kafka, backing off",
				zap.String("topic", kb.topic),
				zap.String("groupID", kb.groupID),
				zap.Int("consecutiveErrors", consecutiveFetchErrors),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
			time.Sleep(delay)
			continue
		}
		consecutiveFetchErrors = 0

		logger.L().Debug("Fetched Kafka message",
			zap.String("topic", message.Topic),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
			zap.ByteString("key", message.Key),
		)

		var event domain.DispatchEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			logger.L().Error("Error unmarshalling dispatch event, attempting to move to DLQ",
				zap.String("topic", message.Topic),
				zap.Int64("offset", message.Offset),
				zap.Error(err),
			)
			poisonPillMsg := &KafkaMessage{
				broker:   kb,
				kafkaMsg: message,
			}
			if dlqErr := poisonPillMsg.MoveToDLQ(ctx, fmt.Errorf("unmarshalling error: %w", err)); dlqErr != nil {
				logger.L().Error("Failed to move unmarshallable event to DLQ. Event may be reprocessed.",
					zap.Int64("offset", message.Offset),
					zap.String("topic", message.Topic),
					zap.Error(dlqErr),
				)
				// Offset was not committed, Kafka will redeliver.
			}
			continue
		}

		appMsg := &KafkaMessage{
			broker:       kb,
			kafkaMsg:     message,
			unmarshalled: event,
		}

		// The consumeFunc owns the Ack/DLQ decision; an error here means the
		// settlement itself failed and the event will be redelivered.
		if processingErr := consumeFunc(ctx, appMsg); processingErr != nil {
			logger.L().Error("Error returned by consumeFunc. Ack/DLQ might have failed.",
				zap.Int64("offset", message.Offset),
				zap.String("topic", message.Topic),
				zap.String("eventID", event.ID),
				zap.Error(processingErr),
			)
		}

		if ctx.Err() != nil {
			logger.L().Info("Context cancelled during processing, stopping consumer loop",
				zap.String("topic", kb.topic),
				zap.String("groupID", kb.groupID),
			)
			return nil
		}
	}
}

// Close cleans up the Kafka reader and writer.
func (kb *KafkaBroker) Close() error {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	var readerErr, writerErr error

	logger.L().Info("Closing Kafka reader...")
	if kb.reader != nil {
		readerErr = kb.reader.Close()
		if readerErr != nil {
			logger.L().Error("Error closing Kafka reader", zap.Error(readerErr))
		}
	}

	logger.L().Info("Closing Kafka writer...")
	if kb.writer != nil {
		writerErr = kb.writer.Close()
		if writerErr != nil {
			logger.L().Error("Error closing Kafka writer", zap.Error(writerErr))
		}
	}

	if readerErr != nil || writerErr != nil {
		return fmt.Errorf("error closing Kafka resources (Reader: %v, Writer: %v)", readerErr, writerErr)
	}
	logger.L().Info("Kafka resources closed successfully.")
	return nil
}
