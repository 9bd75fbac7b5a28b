package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cargolink/notification-service/internal/domain"
)

// NotificationRepo persists delivery attempt records and serves the inbox.
type NotificationRepo struct {
	db *pgxpool.Pool
}

func NewNotificationRepo(db *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{db: db}
}

const notificationColumns = `
	id, recipient_id, recipient_type, type, channel, message,
	reference_id, reference_type, metadata, is_read, read_at,
	created_at, delivery_status, error_message`

// Create inserts one delivery attempt record and returns it with the
// generated id and timestamp filled in.
func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	query := `
		INSERT INTO notifications (
			recipient_id, recipient_type, type, channel, message,
			reference_id, reference_type, metadata, is_read, read_at,
			delivery_status, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		n.RecipientID, n.RecipientType, n.Type, n.Channel, n.Message,
		n.ReferenceID, n.ReferenceType, n.Metadata, n.IsRead, n.ReadAt,
		n.DeliveryStatus, n.ErrorMessage,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting notification: %w", err)
	}
	return n, nil
}

// ListByRecipient returns the recipient's records newest first.
func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipientID int64, limit, offset int) ([]*domain.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, recipientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// CountUnread counts the recipient's unread records.
func (r *NotificationRepo) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE recipient_id = $1
		  AND is_read = false
	`

	var count int
	if err := r.db.QueryRow(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags one record as read, setting read_at once.
func (r *NotificationRepo) MarkRead(ctx context.Context, id int64) error {
	query := `
		UPDATE notifications
		SET is_read = true,
		    read_at = COALESCE(read_at, NOW())
		WHERE id = $1
	`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead flags every currently-unread record of the recipient and
// returns how many rows changed. Calling it again changes nothing.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	query := `
		UPDATE notifications
		SET is_read = true,
		    read_at = NOW()
		WHERE recipient_id = $1
		  AND is_read = false
	`

	ct, err := r.db.Exec(ctx, query, recipientID)
	if err != nil {
		return 0, fmt.Errorf("marking all notifications read: %w", err)
	}
	return ct.RowsAffected(), nil
}

// Delete removes one record by id.
func (r *NotificationRepo) Delete(ctx context.Context, id int64) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(
		&n.ID, &n.RecipientID, &n.RecipientType, &n.Type, &n.Channel, &n.Message,
		&n.ReferenceID, &n.ReferenceType, &n.Metadata, &n.IsRead, &n.ReadAt,
		&n.CreatedAt, &n.DeliveryStatus, &n.ErrorMessage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning notification: %w", err)
	}
	return &n, nil
}
