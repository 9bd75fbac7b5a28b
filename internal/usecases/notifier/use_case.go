package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/domain/port/broker"
	"github.com/cargolink/notification-service/internal/observability/metrics"
	"github.com/cargolink/notification-service/internal/usecases/composer"
	"github.com/cargolink/notification-service/internal/usecases/dispatch"
	"github.com/cargolink/notification-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// inlineDispatchTimeout bounds a fire-and-forget dispatch when the broker is
// unavailable and the engine runs in the caller's process.
const inlineDispatchTimeout = time.Minute

// Request is one dispatch submission entering the engine through the facade.
type Request struct {
	RecipientID   int64
	RecipientType domain.RecipientType
	Type          domain.NotificationType
	Message       string
	ReferenceID   *int64
	ReferenceType *domain.ReferenceType
	Metadata      *string
}

// UseCaseInterface is the notification facade the business services call.
// Submission is asynchronous: a returned event id means the event was
// accepted, not that any channel has delivered yet.
type UseCaseInterface interface {
	Submit(ctx context.Context, req Request) (string, error)
	NotifyBookingCreated(ctx context.Context, providerID, bookingID int64)
	NotifyBookingConfirmed(ctx context.Context, clientID, bookingID int64)
	NotifyBookingCancelled(ctx context.Context, recipientID int64, recipientType domain.RecipientType, bookingID int64)
	NotifyOfferReceived(ctx context.Context, clientID, offerID, bookingID int64)
	NotifyOfferAccepted(ctx context.Context, providerID, offerID, bookingID int64)
	NotifyOfferRejected(ctx context.Context, providerID, offerID, bookingID int64)
	NotifyTripStarted(ctx context.Context, clientID, bookingID int64)
	NotifyTripCompleted(ctx context.Context, clientID, bookingID int64)
	NotifyPaymentSuccessful(ctx context.Context, clientID, paymentID int64, amount float64, currency string)
	NotifyPaymentFailed(ctx context.Context, clientID, paymentID int64, amount float64, currency string)
	NotifyReceiptGenerated(ctx context.Context, clientID, paymentID int64)
}

// UseCase routes accepted events to the dispatch engine, preferring the
// broker and falling back to an in-process fire-and-forget dispatch when no
// broker is configured or a publish fails.
type UseCase struct {
	messageBroker broker.MessageBroker
	dispatcher    dispatch.UseCaseInterface
	texts         *composer.TextBuilder
}

func NewUseCase(messageBroker broker.MessageBroker, dispatcher dispatch.UseCaseInterface, texts *composer.TextBuilder) *UseCase {
	return &UseCase{
		messageBroker: messageBroker,
		dispatcher:    dispatcher,
		texts:         texts,
	}
}

// Submit validates and accepts one dispatch request. The only errors it
// returns are validation errors; delivery failures are absorbed downstream
// and surface in the audit log.
func (u *UseCase) Submit(ctx context.Context, req Request) (string, error) {
	if req.RecipientID <= 0 {
		return "", fmt.Errorf("invalid recipient id: %d", req.RecipientID)
	}
	if !req.RecipientType.IsValid() {
		return "", fmt.Errorf("invalid recipient type: %q", req.RecipientType)
	}
	if req.Type == "" {
		return "", fmt.Errorf("missing notification type")
	}

	event := domain.DispatchEvent{
		ID:            uuid.NewString(),
		RecipientID:   req.RecipientID,
		RecipientType: req.RecipientType,
		Type:          req.Type,
		Message:       req.Message,
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
		Metadata:      req.Metadata,
		CreatedAt:     time.Now().UTC(),
	}

	if u.messageBroker != nil {
		err := u.messageBroker.Publish(ctx, event)
		if err == nil {
			metrics.KafkaPublishTotal.WithLabelValues("success").Inc()
			return event.ID, nil
		}
		metrics.KafkaPublishTotal.WithLabelValues("failure").Inc()
		logger.L().Error("Failed to publish dispatch event, falling back to inline dispatch",
			zap.String("eventID", event.ID),
			zap.Int64("recipientID", event.RecipientID),
			zap.String("traceID", logger.TraceIDFromContext(ctx)),
			zap.Error(err),
		)
	}

	u.dispatchInline(ctx, event)
	return event.ID, nil
}

// dispatchInline runs the engine in-process. The goroutine is detached from
// the caller's cancellation so an aborted HTTP request does not abandon a
// half-dispatched event.
func (u *UseCase) dispatchInline(ctx context.Context, event domain.DispatchEvent) {
	metrics.DispatchesReceived.WithLabelValues("inline").Inc()
	go func() {
		dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), inlineDispatchTimeout)
		defer cancel()
		u.dispatcher.Execute(dispatchCtx, dispatch.Input{
			EventID:       event.ID,
			RecipientID:   event.RecipientID,
			RecipientType: event.RecipientType,
			Type:          event.Type,
			Message:       event.Message,
			ReferenceID:   event.ReferenceID,
			ReferenceType: event.ReferenceType,
			Metadata:      event.Metadata,
		})
	}()
}

// submitOrLog is the facade-method tail: facade notifications never report
// errors to the business caller, they only log.
func (u *UseCase) submitOrLog(ctx context.Context, req Request) {
	if _, err := u.Submit(ctx, req); err != nil {
		logger.L().Error("Facade notification rejected",
			zap.Int64("recipientID", req.RecipientID),
			zap.String("type", string(req.Type)),
			zap.String("traceID", logger.TraceIDFromContext(ctx)),
			zap.Error(err),
		)
	}
}

func ref(id int64, t domain.ReferenceType) (*int64, *domain.ReferenceType) {
	return &id, &t
}

func (u *UseCase) NotifyBookingCreated(ctx context.Context, providerID, bookingID int64) {
	refID, refType := ref(bookingID, domain.ReferenceBooking)
	u.submitOrLog(ctx, Request{
		RecipientID:   providerID,
		RecipientType: domain.RecipientProvider,
		Type:          domain.TypeBookingCreated,
		Message:       "A new booking request is waiting for your offer.",
		ReferenceID:   refID,
		ReferenceType: refType,
	})
}

func (u *UseCase) NotifyBookingConfirmed(ctx context.Context, clientID, bookingID int64) {
	refID, refType := ref(bookingID, domain.ReferenceBooking)
	u.submitOrLog(ctx, Request{
		RecipientID:   clientID,
		RecipientType: domain.RecipientClient,
		Type:          domain.TypeBookingConfirmed,
		Message:       u.texts.BookingConfirmed(ctx, bookingID),
		ReferenceID:   refID,
		ReferenceType: refType,
	})
}

func (u *UseCase) NotifyBookingCancelled(ctx context.Context, recipientID int64, recipientType domain.RecipientType, bookingID int64) {
	refID, refType := ref(bookingID, domain.ReferenceBooking)
	u.submitOrLog(ctx, Request{
		RecipientID:   recipientID,
		RecipientType: recipientType,
		Type:          domain.TypeBookingCancelled,
		Message:       u.texts.BookingCancelled(ctx, bookingID),
		ReferenceID:   refID,
		ReferenceType: refType,
	})
}

func (u *UseCase) NotifyOfferReceived(ctx context.Context, clientID, offerID, bookingID int64) {
	refID, refType := ref(bookingID, domain.ReferenceBooking)
	u.submitOrLog(ctx, Request{
		RecipientID:   clientID,
		RecipientType: domain.RecipientClient,
		Type:          domain.TypeOfferReceived,
		Message:       u.texts.OfferReceived(ctx, offerID),
		ReferenceID:   refID,
		ReferenceType: refType,
	})
}

func (u *UseCase) NotifyOfferAccepted(ctx context.Context, providerID, offerID, bookingID int64) {
	refID, refType := ref(bookingID, domain.ReferenceBooking)
	u.submitOrLog(ctx, Request{
		RecipientID:   providerID,
		RecipientType: domain.RecipientProvider,
		Type:          domain.TypeOfferAccepted,
		Message:       u.texts.OfferAccepted(ctx, offerID),
		ReferenceID:   refID,
		ReferenceType: refType,
	})
}

func (u *UseCase) NotifyOfferRejected(ctx context.Context, providerID, offerID, bookingID int64) {
	refID, refType := ref(bookingID, domain.ReferenceBooking)
	u.submitOrLog(ctx, Request{
		RecipientID:   providerID,
		RecipientType: domain.RecipientProvider,
		Type:          domain.TypeOfferRejected,
		Message:       u.texts.OfferRejected(ctx, offerID),
		ReferenceID:   refID,
		ReferenceType: refType,
	})
}

func (u *UseCase) NotifyTripStarted(ctx context.Context, clientID, bookingID int64) {
	refID, refType := ref(bookingID, domain.ReferenceTrip)
	u.submitOrLog(ctx, Request{
		RecipientID:   clientID,
		RecipientType: domain.RecipientClient,
		Type:          domain.TypeTripStarted,
		Message:       u.texts.TripStarted(ctx, bookingID),
		ReferenceID:   refID,
		ReferenceType: refType,
	})
}

func (u *UseCase) NotifyTripCompleted(ctx context.Context, clientID, bookingID int64) {
	refID, refType := ref(bookingID, domain.ReferenceTrip)
	u.submitOrLog(ctx, Request{
		RecipientID:   clientID,
		RecipientType: domain.RecipientClient,
		Type:          domain.TypeTripCompleted,
		Message:       u.texts.TripCompleted(ctx, bookingID),
		ReferenceID:   refID,
		ReferenceType: refType,
	})
}

func (u *UseCase) NotifyPaymentSuccessful(ctx context.Context, clientID, paymentID int64, amount float64, currency string) {
	refID, refType := ref(paymentID, domain.ReferencePayment)
	u.submitOrLog(ctx, Request{
		RecipientID:   clientID,
		RecipientType: domain.RecipientClient,
		Type:          domain.TypePaymentSuccessful,
		Message:       u.texts.PaymentSuccessful(amount, currency),
		ReferenceID:   refID,
		ReferenceType: refType,
	})
}

func (u *UseCase) NotifyPaymentFailed(ctx context.Context, clientID, paymentID int64, amount float64, currency string) {
	refID, refType := ref(paymentID, domain.ReferencePayment)
	u.submitOrLog(ctx, Request{
		RecipientID:   clientID,
		RecipientType: domain.RecipientClient,
		Type:          domain.TypePaymentFailed,
		Message:       u.texts.PaymentFailed(amount, currency),
		ReferenceID:   refID,
		ReferenceType: refType,
	})
}

func (u *UseCase) NotifyReceiptGenerated(ctx context.Context, clientID, paymentID int64) {
	refID, refType := ref(paymentID, domain.ReferencePayment)
	u.submitOrLog(ctx, Request{
		RecipientID:   clientID,
		RecipientType: domain.RecipientClient,
		Type:          domain.TypeReceiptGenerated,
		Message:       "Your receipt is ready.",
		ReferenceID:   refID,
		ReferenceType: refType,
	})
}
