package registry

import (
	"fmt"
	"sync"

	"github.com/cargolink/notification-service/configs"
	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/domain/port/channel"
	"github.com/cargolink/notification-service/pkg/logger"
	"go.uber.org/zap"
)

// SenderFactory defines the signature for functions that create channel.Sender instances.
type SenderFactory func(cfg *configs.Config) (channel.Sender, error)

var (
	senderRegistry = make(map[domain.Channel]SenderFactory)
	registryMutex  sync.RWMutex
)

// RegisterSenderFactory registers a new sender factory for a channel.
// It should be called during initialization (e.g., in an init() block).
func RegisterSenderFactory(ch domain.Channel, factory SenderFactory) error {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if _, exists := senderRegistry[ch]; exists {
		return fmt.Errorf("sender factory already registered for channel: %s", ch)
	}
	senderRegistry[ch] = factory
	return nil
}

// GetSenderFactory retrieves a sender factory by channel.
func GetSenderFactory(ch domain.Channel) (SenderFactory, error) {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	factory, exists := senderRegistry[ch]
	if !exists {
		return nil, fmt.Errorf("no sender factory registered for channel: %s", ch)
	}
	return factory, nil
}

// BuildSenders instantiates every registered sender. Factories that fail,
// usually because their transport is not configured, are skipped with a
// warning; attempts on those channels settle as failures. IN_APP never
// appears here; its delivery is the audit-log write itself.
func BuildSenders(cfg *configs.Config) map[domain.Channel]channel.Sender {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	senders := make(map[domain.Channel]channel.Sender, len(senderRegistry))
	for ch, factory := range senderRegistry {
		sender, err := factory(cfg)
		if err != nil {
			logger.L().Warn("Failed to create channel sender, skipping.",
				zap.String("channel", string(ch)),
				zap.Error(err),
			)
			continue
		}
		senders[ch] = sender
	}
	return senders
}
