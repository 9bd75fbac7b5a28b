package composer

import (
	"github.com/cargolink/notification-service/internal/domain"
)

// entry is the fixed human-readable text for one notification type.
type entry struct {
	Title string
	Body  string
}

var catalog = map[domain.NotificationType]entry{
	domain.TypeBookingCreated:    {Title: "Booking Created", Body: "Your booking request has been created."},
	domain.TypeBookingConfirmed:  {Title: "Booking Confirmed", Body: "Your booking has been confirmed."},
	domain.TypeBookingCancelled:  {Title: "Booking Cancelled", Body: "Your booking has been cancelled."},
	domain.TypeOfferReceived:     {Title: "Offer Received", Body: "You have received a new transport offer."},
	domain.TypeOfferAccepted:     {Title: "Offer Accepted", Body: "Your offer has been accepted."},
	domain.TypeOfferRejected:     {Title: "Offer Rejected", Body: "Your offer has been rejected."},
	domain.TypeTripStarted:       {Title: "Trip Started", Body: "Your trip has started."},
	domain.TypeTripCompleted:     {Title: "Trip Completed", Body: "Your trip has been completed."},
	domain.TypePaymentSuccessful: {Title: "Payment Successful", Body: "Your payment has been processed."},
	domain.TypePaymentFailed:     {Title: "Payment Failed", Body: "Your payment could not be processed."},
	domain.TypeReceiptGenerated:  {Title: "Receipt Ready", Body: "Your receipt is ready for download."},
}

const genericTitle = "Notification"

// Compose maps a (type, channel) pair to a deliverable (title, body). The
// caller-supplied message takes precedence over the catalog body; unmapped
// types fall back to a generic title so dispatch never aborts on text.
func Compose(t domain.NotificationType, ch domain.Channel, message string) (title, body string) {
	e, ok := catalog[t]
	if !ok {
		e = entry{Title: genericTitle}
	}
	title = e.Title
	body = message
	if body == "" {
		body = e.Body
	}
	if body == "" {
		body = "You have a new notification."
	}
	return title, body
}
