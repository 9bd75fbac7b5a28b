package store

import (
	"context"

	"github.com/cargolink/notification-service/internal/domain"
)

// NotificationStore persists per-channel delivery attempt records and serves
// the user-facing inbox built on top of them.
type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	ListByRecipient(ctx context.Context, recipientID int64, limit, offset int) ([]*domain.Notification, error)
	CountUnread(ctx context.Context, recipientID int64) (int, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, recipientID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// PreferenceStore persists per-user, per-channel enable/disable flags.
type PreferenceStore interface {
	ListByUser(ctx context.Context, userID int64) ([]*domain.Preference, error)
	Upsert(ctx context.Context, userID int64, ch domain.Channel, enabled bool) error
	DeleteByUser(ctx context.Context, userID int64) error
}

// ContactResolver maps a recipient id to its delivery endpoints. Unknown
// recipients resolve to a zero-value contact, not an error.
type ContactResolver interface {
	Resolve(ctx context.Context, userID int64) (domain.RecipientContact, error)
}
