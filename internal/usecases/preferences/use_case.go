package preferences

import (
	"context"
	"errors"
	"fmt"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/domain/port/store"
	"github.com/cargolink/notification-service/internal/infrastructure/cache"
	"github.com/cargolink/notification-service/pkg/logger"
	"go.uber.org/zap"
)

// ErrInvalidChannel flags preference writes against unknown channels.
var ErrInvalidChannel = errors.New("invalid channel")

// UseCaseInterface is the preference management contract consumed by the
// HTTP handler and the dispatcher.
type UseCaseInterface interface {
	GetAll(ctx context.Context, userID int64) ([]*domain.Preference, error)
	GetEnabledChannels(ctx context.Context, userID int64) ([]domain.Channel, error)
	GetAsMap(ctx context.Context, userID int64) (map[domain.Channel]bool, error)
	Update(ctx context.Context, userID int64, ch domain.Channel, enabled bool) error
	BulkUpdate(ctx context.Context, userID int64, updates map[domain.Channel]bool) error
	Enable(ctx context.Context, userID int64, ch domain.Channel) error
	Disable(ctx context.Context, userID int64, ch domain.Channel) error
	DisableAll(ctx context.Context, userID int64) error
	InitializeDefaults(ctx context.Context, userID int64) error
	IsChannelEnabled(ctx context.Context, userID int64, ch domain.Channel) (bool, error)
	DeleteAll(ctx context.Context, userID int64) error
}

type UseCase struct {
	repo  store.PreferenceStore
	cache *cache.PreferenceCache
}

// NewUseCase wires the preference store with an optional Redis cache; pass a
// nil cache to run without one.
func NewUseCase(repo store.PreferenceStore, prefCache *cache.PreferenceCache) *UseCase {
	return &UseCase{repo: repo, cache: prefCache}
}

// GetAll returns every persisted preference row of the user.
func (u *UseCase) GetAll(ctx context.Context, userID int64) ([]*domain.Preference, error) {
	return u.repo.ListByUser(ctx, userID)
}

// GetEnabledChannels returns the user's enabled channels. A user with zero
// preference rows gets exactly {IN_APP}: the safe default is never empty.
func (u *UseCase) GetEnabledChannels(ctx context.Context, userID int64) ([]domain.Channel, error) {
	if channels, ok := u.cache.GetEnabledChannels(ctx, userID); ok {
		return channels, nil
	}

	prefs, err := u.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}

	var channels []domain.Channel
	if len(prefs) == 0 {
		channels = []domain.Channel{domain.ChannelInApp}
	} else {
		for _, p := range prefs {
			if p.Enabled {
				channels = append(channels, p.Channel)
			}
		}
	}

	u.cache.SetEnabledChannels(ctx, userID, channels)
	return channels, nil
}

// GetAsMap returns channel -> enabled for every persisted row.
func (u *UseCase) GetAsMap(ctx context.Context, userID int64) (map[domain.Channel]bool, error) {
	prefs, err := u.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	m := make(map[domain.Channel]bool, len(prefs))
	for _, p := range prefs {
		m[p.Channel] = p.Enabled
	}
	return m, nil
}

// Update upserts one (user, channel) flag. Idempotent.
func (u *UseCase) Update(ctx context.Context, userID int64, ch domain.Channel, enabled bool) error {
	if !ch.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidChannel, ch)
	}
	if err := u.repo.Upsert(ctx, userID, ch, enabled); err != nil {
		return err
	}
	u.cache.Invalidate(ctx, userID)
	return nil
}

// BulkUpdate applies Update per entry. A failure on one channel must not
// prevent the others from being written; the combined error is returned
// after all entries were attempted.
func (u *UseCase) BulkUpdate(ctx context.Context, userID int64, updates map[domain.Channel]bool) error {
	var errs []error
	for ch, enabled := range updates {
		if err := u.Update(ctx, userID, ch, enabled); err != nil {
			logger.L().Error("Bulk preference update failed for channel, continuing",
				zap.Int64("userID", userID),
				zap.String("channel", string(ch)),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("channel %s: %w", ch, err))
		}
	}
	return errors.Join(errs...)
}

// Enable turns one channel on.
func (u *UseCase) Enable(ctx context.Context, userID int64, ch domain.Channel) error {
	return u.Update(ctx, userID, ch, true)
}

// Disable turns one channel off.
func (u *UseCase) Disable(ctx context.Context, userID int64, ch domain.Channel) error {
	return u.Update(ctx, userID, ch, false)
}

// DisableAll turns every channel off.
func (u *UseCase) DisableAll(ctx context.Context, userID int64) error {
	updates := make(map[domain.Channel]bool, len(domain.AllChannels()))
	for _, ch := range domain.AllChannels() {
		updates[ch] = false
	}
	return u.BulkUpdate(ctx, userID, updates)
}

// InitializeDefaults creates the four preference rows for a new user:
// IN_APP and EMAIL enabled, SMS and PUSH disabled.
func (u *UseCase) InitializeDefaults(ctx context.Context, userID int64) error {
	return u.BulkUpdate(ctx, userID, map[domain.Channel]bool{
		domain.ChannelInApp: true,
		domain.ChannelEmail: true,
		domain.ChannelSMS:   false,
		domain.ChannelPush:  false,
	})
}

// IsChannelEnabled reports whether the channel is in the user's enabled set.
func (u *UseCase) IsChannelEnabled(ctx context.Context, userID int64, ch domain.Channel) (bool, error) {
	channels, err := u.GetEnabledChannels(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, c := range channels {
		if c == ch {
			return true, nil
		}
	}
	return false, nil
}

// DeleteAll removes every preference row of the user (account deletion).
func (u *UseCase) DeleteAll(ctx context.Context, userID int64) error {
	if err := u.repo.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	u.cache.Invalidate(ctx, userID)
	return nil
}
