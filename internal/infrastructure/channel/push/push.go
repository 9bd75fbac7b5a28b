package push

import (
	"context"
	"fmt"

	"github.com/cargolink/notification-service/configs"
	"github.com/cargolink/notification-service/internal/app/registry"
	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/domain/port/channel"
	"github.com/cargolink/notification-service/pkg/logger"
	"go.uber.org/zap"
)

const minTokenLength = 16

// Gateway abstracts the push provider. Vendor wire formats live behind it.
type Gateway interface {
	Send(ctx context.Context, deviceToken, title, body string) error
}

// Sender implements channel.Sender for push notifications. When disabled by
// configuration it short-circuits every attempt without any network I/O.
type Sender struct {
	gateway Gateway
	enabled bool
}

func NewSender(gateway Gateway, enabled bool) *Sender {
	return &Sender{gateway: gateway, enabled: enabled}
}

// NewSenderFactory creates the push sender from the service configuration.
func NewSenderFactory(cfg *configs.Config) (channel.Sender, error) {
	var gw Gateway
	if cfg.PushEnabled {
		gw = newHTTPGateway(cfg.PushGatewayURL, cfg.PushGatewayAPIKey)
	}
	logger.L().Info("Initializing push sender", zap.Bool("enabled", cfg.PushEnabled))
	return NewSender(gw, cfg.PushEnabled), nil
}

func init() {
	if err := registry.RegisterSenderFactory(domain.ChannelPush, NewSenderFactory); err != nil {
		panic(fmt.Sprintf("Failed to register sender factory for %s: %v", domain.ChannelPush, err))
	}
}

// Attempt delivers one push notification via the configured gateway.
func (s *Sender) Attempt(ctx context.Context, destination, title, body string) channel.Outcome {
	traceID := logger.TraceIDFromContext(ctx)

	if !s.enabled {
		logger.L().Info("Push sender disabled by configuration, would have sent",
			zap.String("title", title),
			zap.String("traceID", traceID),
		)
		return channel.Outcome{OK: false, Err: "push sender disabled by configuration"}
	}

	if len(destination) < minTokenLength {
		err := fmt.Errorf("device token too short (%d chars)", len(destination))
		logger.L().Warn("Rejecting malformed device token",
			zap.String("traceID", traceID),
			zap.Error(err),
		)
		return channel.Failure(err)
	}

	if err := s.gateway.Send(ctx, destination, title, body); err != nil {
		logger.L().Error("Error sending push via gateway",
			zap.String("traceID", traceID),
			zap.Error(err),
		)
		return channel.Failure(fmt.Errorf("failed to send push: %w", err))
	}

	logger.L().Info("Push notification sent successfully",
		zap.String("traceID", traceID),
	)
	return channel.Success()
}
