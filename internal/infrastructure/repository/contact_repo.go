package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/pkg/logger"
	"go.uber.org/zap"
)

// ContactRepo resolves recipient ids to delivery endpoints from the shared
// users table. The table is owned by the account service; this repo only
// reads it.
type ContactRepo struct {
	db *pgxpool.Pool
}

func NewContactRepo(db *pgxpool.Pool) *ContactRepo {
	return &ContactRepo{db: db}
}

// Resolve returns the user's contact endpoints. An unknown user resolves to
// a zero-value contact: downstream treats absent fields as "channel
// unusable", never as a hard error.
func (r *ContactRepo) Resolve(ctx context.Context, userID int64) (domain.RecipientContact, error) {
	query := `
		SELECT COALESCE(email, ''), COALESCE(phone, ''), COALESCE(device_token, '')
		FROM users
		WHERE id = $1
	`

	var contact domain.RecipientContact
	err := r.db.QueryRow(ctx, query, userID).Scan(&contact.Email, &contact.Phone, &contact.DeviceToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.L().Debug("No contact found for recipient",
				zap.Int64("userID", userID),
			)
			return domain.RecipientContact{}, nil
		}
		return domain.RecipientContact{}, fmt.Errorf("resolving contact: %w", err)
	}
	return contact, nil
}
