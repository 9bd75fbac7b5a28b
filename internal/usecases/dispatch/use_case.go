package dispatch

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/domain/port/channel"
	"github.com/cargolink/notification-service/internal/domain/port/store"
	"github.com/cargolink/notification-service/internal/observability/metrics"
	"github.com/cargolink/notification-service/internal/observability/tracing"
	"github.com/cargolink/notification-service/internal/usecases/composer"
	"github.com/cargolink/notification-service/pkg/logger"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultSendTimeout = 10 * time.Second
	noSenderError      = "no sender registered for channel"
)

// Input carries one dispatch request into the engine.
type Input struct {
	EventID       string
	RecipientID   int64
	RecipientType domain.RecipientType
	Type          domain.NotificationType
	Message       string
	ReferenceID   *int64
	ReferenceType *domain.ReferenceType
	Metadata      *string
}

// PreferenceReader is the slice of the preference use case the dispatcher
// depends on.
type PreferenceReader interface {
	GetEnabledChannels(ctx context.Context, userID int64) ([]domain.Channel, error)
}

// UseCaseInterface is the dispatch contract. Execute returns once every
// channel attempt has settled; it never returns an error because the
// dispatcher is a terminal boundary: all failures end up in the audit log.
type UseCaseInterface interface {
	Execute(ctx context.Context, input Input)
}

// UseCase fans one dispatch event out over the recipient's enabled channels,
// attempting each independently and persisting every settled outcome.
type UseCase struct {
	preferences   PreferenceReader
	contacts      store.ContactResolver
	notifications store.NotificationStore
	senders       map[domain.Channel]channel.Sender
	semaphore     chan struct{}
	sendTimeout   time.Duration
}

func NewUseCase(
	preferences PreferenceReader,
	contacts store.ContactResolver,
	notifications store.NotificationStore,
	senders map[domain.Channel]channel.Sender,
	semaphore chan struct{},
	sendTimeout time.Duration,
) *UseCase {
	if sendTimeout <= 0 {
		logger.L().Warn("Invalid send timeout provided, defaulting",
			zap.Duration("providedTimeout", sendTimeout),
			zap.Duration("defaultTimeout", DefaultSendTimeout),
		)
		sendTimeout = DefaultSendTimeout
	}
	return &UseCase{
		preferences:   preferences,
		contacts:      contacts,
		notifications: notifications,
		senders:       senders,
		semaphore:     semaphore,
		sendTimeout:   sendTimeout,
	}
}

// Execute runs the fan-out. Channel attempts run concurrently on the shared
// worker pool with no ordering guarantee between them; one channel's failure
// never cancels or affects the others.
func (u *UseCase) Execute(ctx context.Context, input Input) {
	ctx, span := tracing.Tracer.Start(ctx, "DispatchUseCase.Execute", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	traceID := logger.TraceIDFromContext(ctx)

	channels, err := u.preferences.GetEnabledChannels(ctx, input.RecipientID)
	if err != nil {
		// Preferences being unreachable must not swallow the event; the
		// safe default still reaches the inbox.
		logger.L().Error("Failed to load enabled channels, falling back to IN_APP",
			zap.String("eventID", input.EventID),
			zap.Int64("recipientID", input.RecipientID),
			zap.String("traceID", traceID),
			zap.Error(err),
		)
		channels = []domain.Channel{domain.ChannelInApp}
	}

	contact, err := u.contacts.Resolve(ctx, input.RecipientID)
	if err != nil {
		logger.L().Error("Failed to resolve recipient contact, treating all destinations as absent",
			zap.String("eventID", input.EventID),
			zap.Int64("recipientID", input.RecipientID),
			zap.String("traceID", traceID),
			zap.Error(err),
		)
		contact = domain.RecipientContact{}
	}

	logger.L().Info("Dispatching notification",
		zap.String("eventID", input.EventID),
		zap.Int64("recipientID", input.RecipientID),
		zap.String("type", string(input.Type)),
		zap.Int("channels", len(channels)),
		zap.String("traceID", traceID),
	)

	var wg sync.WaitGroup
	for _, ch := range channels {
		wg.Add(1)
		go func(ch domain.Channel) {
			defer wg.Done()

			u.semaphore <- struct{}{}
			defer func() { <-u.semaphore }()

			defer func() {
				if r := recover(); r != nil {
					logger.L().Error("CRITICAL: Panic recovered in channel attempt",
						zap.Any("panicValue", r),
						zap.String("stacktrace", string(debug.Stack())),
						zap.String("eventID", input.EventID),
						zap.String("channel", string(ch)),
						zap.String("traceID", traceID),
					)
				}
			}()

			u.attemptChannel(ctx, input, ch, contact)
		}(ch)
	}
	wg.Wait()
}

// attemptChannel runs one channel's attempt to completion and persists the
// outcome. It is the only place a NotificationRecord is written.
func (u *UseCase) attemptChannel(ctx context.Context, input Input, ch domain.Channel, contact domain.RecipientContact) {
	traceID := logger.TraceIDFromContext(ctx)

	// IN_APP delivery is the audit-log write itself.
	if ch == domain.ChannelInApp {
		u.persist(ctx, input, ch, domain.StatusDelivered, false, nil)
		metrics.AttemptsTotal.WithLabelValues(string(ch), string(domain.StatusDelivered)).Inc()
		return
	}

	destination := contact.ForChannel(ch)
	if destination == "" {
		// Normal, non-error outcome: no record, no sender call.
		logger.L().Debug("Skipping channel, destination absent",
			zap.String("eventID", input.EventID),
			zap.Int64("recipientID", input.RecipientID),
			zap.String("channel", string(ch)),
			zap.String("traceID", traceID),
		)
		metrics.AttemptsSkipped.WithLabelValues(string(ch), "missing_destination").Inc()
		return
	}

	title, body := composer.Compose(input.Type, ch, input.Message)

	sender, ok := u.senders[ch]
	if !ok {
		logger.L().Error("No sender registered for enabled channel",
			zap.String("eventID", input.EventID),
			zap.String("channel", string(ch)),
			zap.String("traceID", traceID),
		)
		errMsg := noSenderError
		u.persist(ctx, input, ch, domain.StatusFailed, false, &errMsg)
		metrics.AttemptsTotal.WithLabelValues(string(ch), string(domain.StatusFailed)).Inc()
		return
	}

	attemptCtx, cancel := context.WithTimeout(ctx, u.sendTimeout)
	defer cancel()

	start := time.Now()
	outcome := sender.Attempt(attemptCtx, destination, title, body)
	metrics.ObserveAttemptDuration(string(ch), outcome.OK, start)

	if outcome.OK {
		u.persist(ctx, input, ch, domain.StatusSent, true, nil)
		metrics.AttemptsTotal.WithLabelValues(string(ch), string(domain.StatusSent)).Inc()
		return
	}

	errMsg := outcome.Err
	if errMsg == "" {
		errMsg = "sender returned false"
	}
	logger.L().Error("Channel attempt failed",
		zap.String("eventID", input.EventID),
		zap.Int64("recipientID", input.RecipientID),
		zap.String("channel", string(ch)),
		zap.String("error", errMsg),
		zap.String("traceID", traceID),
	)
	u.persist(ctx, input, ch, domain.StatusFailed, false, &errMsg)
	metrics.AttemptsTotal.WithLabelValues(string(ch), string(domain.StatusFailed)).Inc()
}

// persist writes one settled attempt to the audit log. Write failures are
// logged and counted, never raised: losing an audit row must not take the
// other channels down with it.
func (u *UseCase) persist(ctx context.Context, input Input, ch domain.Channel, status domain.DeliveryStatus, isRead bool, errorMessage *string) {
	record := &domain.Notification{
		RecipientID:    input.RecipientID,
		RecipientType:  input.RecipientType,
		Type:           input.Type,
		Channel:        ch,
		Message:        input.Message,
		ReferenceID:    input.ReferenceID,
		ReferenceType:  input.ReferenceType,
		Metadata:       input.Metadata,
		IsRead:         isRead,
		DeliveryStatus: status,
		ErrorMessage:   errorMessage,
	}

	if _, err := u.notifications.Create(ctx, record); err != nil {
		logger.L().Error("Failed to persist notification record",
			zap.String("eventID", input.EventID),
			zap.Int64("recipientID", input.RecipientID),
			zap.String("channel", string(ch)),
			zap.String("status", string(status)),
			zap.String("traceID", logger.TraceIDFromContext(ctx)),
			zap.Error(err),
		)
		metrics.PersistFailures.WithLabelValues(string(ch)).Inc()
	}
}
