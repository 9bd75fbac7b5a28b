package composer

import (
	"context"
	"fmt"

	"github.com/cargolink/notification-service/pkg/logger"
	"go.uber.org/zap"
)

// OfferSummary is the slice of an offer the text builder needs.
type OfferSummary struct {
	ID           int64
	ProviderName string
	Price        float64
	Currency     string
}

// BookingSummary is the slice of a booking the text builder needs.
type BookingSummary struct {
	ID             int64
	PickupAddress  string
	DropoffAddress string
	TransportKind  string
}

// OfferReader looks up offers owned by the marketplace service.
type OfferReader interface {
	GetOfferSummary(ctx context.Context, offerID int64) (*OfferSummary, error)
}

// BookingReader looks up bookings owned by the marketplace service.
type BookingReader interface {
	GetBookingSummary(ctx context.Context, bookingID int64) (*BookingSummary, error)
}

// TextBuilder produces enriched message bodies that reference domain
// entities. Every builder degrades to a generic, still-valid message when
// the entity lookup fails; enrichment must never abort a dispatch.
type TextBuilder struct {
	offers   OfferReader
	bookings BookingReader
}

func NewTextBuilder(offers OfferReader, bookings BookingReader) *TextBuilder {
	return &TextBuilder{offers: offers, bookings: bookings}
}

// OfferReceived builds the client-facing text for a new offer.
func (b *TextBuilder) OfferReceived(ctx context.Context, offerID int64) string {
	offer, err := b.offers.GetOfferSummary(ctx, offerID)
	if err != nil || offer == nil {
		b.logDegraded("offer", offerID, err)
		return "You have received a new transport offer."
	}
	return fmt.Sprintf("%s sent you an offer of %.2f %s.", offer.ProviderName, offer.Price, offer.Currency)
}

// OfferAccepted builds the provider-facing text for an accepted offer.
func (b *TextBuilder) OfferAccepted(ctx context.Context, offerID int64) string {
	offer, err := b.offers.GetOfferSummary(ctx, offerID)
	if err != nil || offer == nil {
		b.logDegraded("offer", offerID, err)
		return "Your offer has been accepted."
	}
	return fmt.Sprintf("Your offer of %.2f %s has been accepted.", offer.Price, offer.Currency)
}

// OfferRejected builds the provider-facing text for a rejected offer.
func (b *TextBuilder) OfferRejected(ctx context.Context, offerID int64) string {
	offer, err := b.offers.GetOfferSummary(ctx, offerID)
	if err != nil || offer == nil {
		b.logDegraded("offer", offerID, err)
		return "Your offer has been rejected."
	}
	return fmt.Sprintf("Your offer of %.2f %s has been rejected.", offer.Price, offer.Currency)
}

// BookingConfirmed builds the client-facing text for a confirmed booking.
func (b *TextBuilder) BookingConfirmed(ctx context.Context, bookingID int64) string {
	booking, err := b.bookings.GetBookingSummary(ctx, bookingID)
	if err != nil || booking == nil {
		b.logDegraded("booking", bookingID, err)
		return "Your booking has been confirmed."
	}
	return fmt.Sprintf("Your %s booking from %s to %s has been confirmed.",
		booking.TransportKind, booking.PickupAddress, booking.DropoffAddress)
}

// BookingCancelled builds the client-facing text for a cancelled booking.
func (b *TextBuilder) BookingCancelled(ctx context.Context, bookingID int64) string {
	booking, err := b.bookings.GetBookingSummary(ctx, bookingID)
	if err != nil || booking == nil {
		b.logDegraded("booking", bookingID, err)
		return "Your booking has been cancelled."
	}
	return fmt.Sprintf("Your %s booking from %s to %s has been cancelled.",
		booking.TransportKind, booking.PickupAddress, booking.DropoffAddress)
}

// TripStarted builds the client-facing text at trip start.
func (b *TextBuilder) TripStarted(ctx context.Context, bookingID int64) string {
	booking, err := b.bookings.GetBookingSummary(ctx, bookingID)
	if err != nil || booking == nil {
		b.logDegraded("booking", bookingID, err)
		return "Your trip has started."
	}
	return fmt.Sprintf("Your trip from %s to %s has started.",
		booking.PickupAddress, booking.DropoffAddress)
}

// TripCompleted builds the client-facing text at trip completion.
func (b *TextBuilder) TripCompleted(ctx context.Context, bookingID int64) string {
	booking, err := b.bookings.GetBookingSummary(ctx, bookingID)
	if err != nil || booking == nil {
		b.logDegraded("booking", bookingID, err)
		return "Your trip has been completed."
	}
	return fmt.Sprintf("Your trip from %s to %s has been completed.",
		booking.PickupAddress, booking.DropoffAddress)
}

// PaymentSuccessful builds the text for a settled payment.
func (b *TextBuilder) PaymentSuccessful(amount float64, currency string) string {
	if amount <= 0 || currency == "" {
		return "Your payment has been processed."
	}
	return fmt.Sprintf("Your payment of %.2f %s has been processed.", amount, currency)
}

// PaymentFailed builds the text for a failed payment.
func (b *TextBuilder) PaymentFailed(amount float64, currency string) string {
	if amount <= 0 || currency == "" {
		return "Your payment could not be processed."
	}
	return fmt.Sprintf("Your payment of %.2f %s could not be processed.", amount, currency)
}

func (b *TextBuilder) logDegraded(entity string, id int64, err error) {
	logger.L().Warn("Entity lookup failed during message enrichment, degrading to generic text",
		zap.String("entity", entity),
		zap.Int64("entityID", id),
		zap.Error(err),
	)
}
