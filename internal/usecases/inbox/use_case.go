package inbox

import (
	"context"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/domain/port/store"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// UseCaseInterface is the inbox read-side contract.
type UseCaseInterface interface {
	List(ctx context.Context, userID int64, page, size int) ([]*domain.Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, notificationID int64) error
}

type UseCase struct {
	notifications store.NotificationStore
}

func NewUseCase(notifications store.NotificationStore) *UseCase {
	return &UseCase{notifications: notifications}
}

// List returns one page of the user's notifications, newest first. Pages are
// 1-based; out-of-range arguments are clamped to sane values.
func (u *UseCase) List(ctx context.Context, userID int64, page, size int) ([]*domain.Notification, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	offset := (page - 1) * size
	return u.notifications.ListByRecipient(ctx, userID, size, offset)
}

// UnreadCount returns how many of the user's records are unread.
func (u *UseCase) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return u.notifications.CountUnread(ctx, userID)
}

// MarkRead flags one notification as read.
func (u *UseCase) MarkRead(ctx context.Context, notificationID int64) error {
	return u.notifications.MarkRead(ctx, notificationID)
}

// MarkAllRead flags every unread notification of the user and returns the
// number of rows changed. Idempotent: a second call changes nothing.
func (u *UseCase) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return u.notifications.MarkAllRead(ctx, userID)
}

// Delete removes one notification.
func (u *UseCase) Delete(ctx context.Context, notificationID int64) error {
	return u.notifications.Delete(ctx, notificationID)
}
