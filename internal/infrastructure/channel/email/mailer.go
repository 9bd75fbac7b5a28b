package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cargolink/notification-service/configs"
	"github.com/cargolink/notification-service/internal/app/registry"
	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/domain/port/channel"
	"github.com/cargolink/notification-service/pkg/logger"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Mailer implements channel.Sender over SMTP using go-mail.
type Mailer struct {
	fromName    string
	fromAddress string
	host        string
	port        int
	username    string
	password    string
	tlsPolicy   mail.TLSPolicy
}

// NewMailerFactory creates Mailer instances from the service configuration.
func NewMailerFactory(cfg *configs.Config) (channel.Sender, error) {
	ec := configs.GetEmailConf(cfg)
	if ec.Host == "" || ec.Port == 0 || ec.FromAddress == "" {
		return nil, errors.New("SMTP configuration (host, port, from_address) cannot be empty")
	}

	logger.L().Info("Initializing SMTP email sender",
		zap.String("host", ec.Host),
		zap.Int("port", ec.Port),
		zap.String("fromAddress", ec.FromAddress), // Log PII carefully
		zap.Bool("authEnabled", ec.Username != ""),
	)
	return &Mailer{
		fromName:    ec.FromName,
		fromAddress: ec.FromAddress,
		host:        ec.Host,
		port:        ec.Port,
		username:    ec.Username,
		password:    ec.Password,
		tlsPolicy:   tlsPolicyFromEncryption(ec.Encryption),
	}, nil
}

// init registers the email sender factory.
func init() {
	if err := registry.RegisterSenderFactory(domain.ChannelEmail, NewMailerFactory); err != nil {
		panic(fmt.Sprintf("Failed to register sender factory for %s: %v", domain.ChannelEmail, err))
	}
}

// tlsPolicyFromEncryption converts the encryption string to a go-mail TLSPolicy.
func tlsPolicyFromEncryption(enc string) mail.TLSPolicy {
	switch enc {
	case "ssl_tls":
		return mail.TLSMandatory
	case "starttls":
		return mail.TLSOpportunistic
	default:
		return mail.NoTLS
	}
}

// Attempt sends one email. A destination that is not a plausible address is
// rejected locally without touching the SMTP server.
func (s *Mailer) Attempt(ctx context.Context, destination, title, body string) channel.Outcome {
	traceID := logger.TraceIDFromContext(ctx)

	if err := validateAddress(destination); err != nil {
		logger.L().Warn("Rejecting malformed email destination",
			zap.String("traceID", traceID),
			zap.Error(err),
		)
		return channel.Failure(err)
	}

	m := mail.NewMsg()
	fromDisplay := s.fromName
	if fromDisplay == "" {
		fromDisplay = "Notifications"
	}
	if err := m.FromFormat(fromDisplay, s.fromAddress); err != nil {
		return channel.Failure(fmt.Errorf("invalid from address: %w", err))
	}
	if err := m.To(destination); err != nil {
		return channel.Failure(fmt.Errorf("invalid recipient: %w", err))
	}
	m.Subject(title)
	m.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTLSPolicy(s.tlsPolicy),
	}
	if s.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.username),
			mail.WithPassword(s.password),
		)
	}

	c, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return channel.Failure(fmt.Errorf("failed to create mail client: %w", err))
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		logger.L().Error("Error sending email via SMTP",
			zap.String("recipient", destination), // Log PII carefully
			zap.String("smtpHost", s.host),
			zap.String("traceID", traceID),
			zap.Error(err),
		)
		return channel.Failure(fmt.Errorf("failed to send email to %s: %w", destination, err))
	}

	logger.L().Info("Email sent successfully via SMTP",
		zap.String("recipient", destination), // Log PII carefully
		zap.String("smtpHost", s.host),
		zap.String("traceID", traceID),
	)
	return channel.Success()
}

// validateAddress performs a cheap local shape check. Full RFC validation is
// the SMTP server's job.
func validateAddress(addr string) error {
	at := strings.Index(addr, "@")
	if at <= 0 || at == len(addr)-1 {
		return fmt.Errorf("malformed email address %q", addr)
	}
	if strings.ContainsAny(addr, " \t\r\n") {
		return fmt.Errorf("malformed email address %q", addr)
	}
	if !strings.Contains(addr[at+1:], ".") {
		return fmt.Errorf("malformed email address %q", addr)
	}
	return nil
}
