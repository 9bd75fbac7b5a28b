package domain

import "time"

// Channel identifies a delivery medium.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
	ChannelPush  Channel = "PUSH"
	ChannelInApp Channel = "IN_APP"
)

// AllChannels lists every supported channel in a stable order.
func AllChannels() []Channel {
	return []Channel{ChannelEmail, ChannelSMS, ChannelPush, ChannelInApp}
}

// IsValid reports whether c is one of the supported channels.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush, ChannelInApp:
		return true
	}
	return false
}

// DeliveryStatus is the per-channel outcome of one dispatch attempt.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "SENT"
	StatusDelivered DeliveryStatus = "DELIVERED"
	StatusFailed    DeliveryStatus = "FAILED"
)

// RecipientType is the role of the notification target.
type RecipientType string

const (
	RecipientClient   RecipientType = "CLIENT"
	RecipientProvider RecipientType = "PROVIDER"
	RecipientDriver   RecipientType = "DRIVER"
	RecipientAdmin    RecipientType = "ADMIN"
)

func (r RecipientType) IsValid() bool {
	switch r {
	case RecipientClient, RecipientProvider, RecipientDriver, RecipientAdmin:
		return true
	}
	return false
}

// ReferenceType points a notification at the business entity that caused it.
type ReferenceType string

const (
	ReferenceBooking ReferenceType = "BOOKING"
	ReferenceTrip    ReferenceType = "TRIP"
	ReferencePayment ReferenceType = "PAYMENT"
)

// NotificationType classifies the business event behind a notification.
type NotificationType string

const (
	TypeBookingCreated    NotificationType = "BOOKING_CREATED"
	TypeBookingConfirmed  NotificationType = "BOOKING_CONFIRMED"
	TypeBookingCancelled  NotificationType = "BOOKING_CANCELLED"
	TypeOfferReceived     NotificationType = "OFFER_RECEIVED"
	TypeOfferAccepted     NotificationType = "OFFER_ACCEPTED"
	TypeOfferRejected     NotificationType = "OFFER_REJECTED"
	TypeTripStarted       NotificationType = "TRIP_STARTED"
	TypeTripCompleted     NotificationType = "TRIP_COMPLETED"
	TypePaymentSuccessful NotificationType = "PAYMENT_SUCCESSFUL"
	TypePaymentFailed     NotificationType = "PAYMENT_FAILED"
	TypeReceiptGenerated  NotificationType = "RECEIPT_GENERATED"
	TypeGeneral           NotificationType = "GENERAL"
)

// Notification is one durable delivery-attempt record. It doubles as the
// user-facing inbox entry when the channel is IN_APP.
type Notification struct {
	ID             int64            `json:"id"`
	RecipientID    int64            `json:"recipient_id"`
	RecipientType  RecipientType    `json:"recipient_type"`
	Type           NotificationType `json:"type"`
	Channel        Channel          `json:"channel"`
	Message        string           `json:"message"`
	ReferenceID    *int64           `json:"reference_id,omitempty"`
	ReferenceType  *ReferenceType   `json:"reference_type,omitempty"`
	Metadata       *string          `json:"metadata,omitempty"`
	IsRead         bool             `json:"is_read"`
	ReadAt         *time.Time       `json:"read_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	DeliveryStatus DeliveryStatus   `json:"delivery_status"`
	ErrorMessage   *string          `json:"error_message,omitempty"`
}

// Preference is a persisted per-user, per-channel enable/disable setting.
type Preference struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Channel   Channel   `json:"channel"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecipientContact holds the delivery endpoints resolved for a recipient.
// Any field may be empty; an empty field makes the matching channel unusable.
type RecipientContact struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DeviceToken string `json:"device_token"`
}

// ForChannel returns the destination endpoint for the given channel, or ""
// when the channel needs no destination (IN_APP) or the endpoint is absent.
func (c RecipientContact) ForChannel(ch Channel) string {
	switch ch {
	case ChannelEmail:
		return c.Email
	case ChannelSMS:
		return c.Phone
	case ChannelPush:
		return c.DeviceToken
	}
	return ""
}

// DispatchEvent is the wire form of one dispatch request as it travels over
// the broker between the business services and the dispatch engine.
type DispatchEvent struct {
	ID            string           `json:"id"`
	RecipientID   int64            `json:"recipient_id"`
	RecipientType RecipientType    `json:"recipient_type"`
	Type          NotificationType `json:"type"`
	Message       string           `json:"message"`
	ReferenceID   *int64           `json:"reference_id,omitempty"`
	ReferenceType *ReferenceType   `json:"reference_type,omitempty"`
	Metadata      *string          `json:"metadata,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}
