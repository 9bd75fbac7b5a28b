package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cargolink/notification-service/internal/domain"
)

// PreferenceRepo persists per-user, per-channel enable/disable flags.
type PreferenceRepo struct {
	db *pgxpool.Pool
}

func NewPreferenceRepo(db *pgxpool.Pool) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

// ListByUser returns every preference row of the user.
func (r *PreferenceRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.Preference, error) {
	query := `
		SELECT id, user_id, channel, enabled, created_at, updated_at
		FROM notification_preferences
		WHERE user_id = $1
		ORDER BY channel
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing preferences: %w", err)
	}
	defer rows.Close()

	var prefs []*domain.Preference
	for rows.Next() {
		var p domain.Preference
		if err := rows.Scan(&p.ID, &p.UserID, &p.Channel, &p.Enabled, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning preference: %w", err)
		}
		prefs = append(prefs, &p)
	}
	return prefs, rows.Err()
}

// Upsert creates or updates the (user, channel) row. Repeated calls with the
// same arguments leave exactly one row in the final state.
func (r *PreferenceRepo) Upsert(ctx context.Context, userID int64, ch domain.Channel, enabled bool) error {
	query := `
		INSERT INTO notification_preferences (user_id, channel, enabled)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, channel)
		DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = NOW()
	`

	if _, err := r.db.Exec(ctx, query, userID, ch, enabled); err != nil {
		return fmt.Errorf("upserting preference: %w", err)
	}
	return nil
}

// DeleteByUser removes every preference row of the user (account deletion).
func (r *PreferenceRepo) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM notification_preferences WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("deleting preferences: %w", err)
	}
	return nil
}
