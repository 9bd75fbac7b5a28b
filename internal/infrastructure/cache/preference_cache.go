package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/pkg/logger"
	"go.uber.org/zap"
)

// PreferenceCache fronts the enabled-channel lookup with Redis. A nil cache
// is valid and degrades to a passthrough, so the preference use case never
// needs to know whether Redis is configured.
type PreferenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPreferenceCache(client *redis.Client, ttl time.Duration) *PreferenceCache {
	return &PreferenceCache{client: client, ttl: ttl}
}

func key(userID int64) string {
	return fmt.Sprintf("notif:prefs:%d", userID)
}

// GetEnabledChannels returns the cached channel set, or (nil, false) on a
// miss. Cache errors count as misses; the database remains authoritative.
func (c *PreferenceCache) GetEnabledChannels(ctx context.Context, userID int64) ([]domain.Channel, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.L().Warn("Preference cache read failed",
				zap.Int64("userID", userID),
				zap.Error(err),
			)
		}
		return nil, false
	}

	var channels []domain.Channel
	if err := json.Unmarshal(raw, &channels); err != nil {
		logger.L().Warn("Corrupt preference cache entry, treating as miss",
			zap.Int64("userID", userID),
			zap.Error(err),
		)
		return nil, false
	}
	return channels, true
}

// SetEnabledChannels stores the channel set with the configured TTL.
func (c *PreferenceCache) SetEnabledChannels(ctx context.Context, userID int64, channels []domain.Channel) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(channels)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(userID), raw, c.ttl).Err(); err != nil {
		logger.L().Warn("Preference cache write failed",
			zap.Int64("userID", userID),
			zap.Error(err),
		)
	}
}

// Invalidate drops the user's cached channel set after a preference write.
func (c *PreferenceCache) Invalidate(ctx context.Context, userID int64) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, key(userID)).Err(); err != nil {
		logger.L().Warn("Preference cache invalidation failed",
			zap.Int64("userID", userID),
			zap.Error(err),
		)
	}
}
