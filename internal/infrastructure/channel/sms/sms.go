package sms

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/cargolink/notification-service/configs"
	"github.com/cargolink/notification-service/internal/app/registry"
	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/domain/port/channel"
	"github.com/cargolink/notification-service/pkg/logger"
	"go.uber.org/zap"
)

const minPhoneDigits = 7

// Gateway abstracts the SMS provider. Vendor wire formats live behind it.
type Gateway interface {
	Send(ctx context.Context, senderID, phone, text string) error
}

// Sender implements channel.Sender for SMS. When disabled by configuration it
// short-circuits every attempt without any network I/O.
type Sender struct {
	gateway  Gateway
	senderID string
	enabled  bool
}

func NewSender(gateway Gateway, senderID string, enabled bool) *Sender {
	return &Sender{
		gateway:  gateway,
		senderID: senderID,
		enabled:  enabled,
	}
}

// NewSenderFactory creates the SMS sender from the service configuration.
func NewSenderFactory(cfg *configs.Config) (channel.Sender, error) {
	var gw Gateway
	if cfg.SMSEnabled {
		gw = newHTTPGateway(cfg.SMSGatewayURL, cfg.SMSGatewayAPIKey)
	}
	logger.L().Info("Initializing SMS sender",
		zap.Bool("enabled", cfg.SMSEnabled),
		zap.String("senderID", cfg.SMSSenderID),
	)
	return NewSender(gw, cfg.SMSSenderID, cfg.SMSEnabled), nil
}

func init() {
	if err := registry.RegisterSenderFactory(domain.ChannelSMS, NewSenderFactory); err != nil {
		panic(fmt.Sprintf("Failed to register sender factory for %s: %v", domain.ChannelSMS, err))
	}
}

// Attempt delivers one SMS via the configured gateway.
func (s *Sender) Attempt(ctx context.Context, destination, title, body string) channel.Outcome {
	traceID := logger.TraceIDFromContext(ctx)

	if !s.enabled {
		logger.L().Info("SMS sender disabled by configuration, would have sent",
			zap.String("recipient", destination), // Log PII carefully
			zap.String("title", title),
			zap.String("traceID", traceID),
		)
		return channel.Outcome{OK: false, Err: "sms sender disabled by configuration"}
	}

	if err := validatePhone(destination); err != nil {
		logger.L().Warn("Rejecting malformed phone number",
			zap.String("traceID", traceID),
			zap.Error(err),
		)
		return channel.Failure(err)
	}

	// SMS has no subject line; prepend the title to the text.
	text := body
	if title != "" {
		text = title + ": " + body
	}

	if err := s.gateway.Send(ctx, s.senderID, destination, text); err != nil {
		logger.L().Error("Error sending SMS via gateway",
			zap.String("recipient", destination), // Log PII carefully
			zap.String("traceID", traceID),
			zap.Error(err),
		)
		return channel.Failure(fmt.Errorf("failed to send sms to %s: %w", destination, err))
	}

	logger.L().Info("SMS sent successfully",
		zap.String("recipient", destination), // Log PII carefully
		zap.String("traceID", traceID),
	)
	return channel.Success()
}

// validatePhone enforces a minimal E.164-ish shape: optional leading +,
// digits only, at least minPhoneDigits of them.
func validatePhone(phone string) error {
	p := strings.TrimPrefix(phone, "+")
	if len(p) < minPhoneDigits {
		return fmt.Errorf("phone number %q too short", phone)
	}
	for _, r := range p {
		if !unicode.IsDigit(r) {
			return fmt.Errorf("phone number %q contains non-digit characters", phone)
		}
	}
	return nil
}
