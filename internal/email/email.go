package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/legalinmo/config"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type mailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridSender struct {
	client    mailClient
	fromEmail string
	fromName  string
	logger    *zap.Logger
}

func NewSendGridSender(cfg config.EmailConfig, logger *zap.Logger) *SendGridSender {
	return newSendGridSender(sendgrid.NewSendClient(cfg.SendGridAPIKey), cfg, logger)
}

func newSendGridSender(client mailClient, cfg config.EmailConfig, logger *zap.Logger) *SendGridSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGridSender{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.fromEmail),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		msg.Body,
		html,
	)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", resp.Body),
			zap.String("to", msg.To),
		)
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	s.logger.Info("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// StubSender logs messages instead of sending them.
type StubSender struct {
	logger *zap.Logger
}

func NewStubSender(logger *zap.Logger) *StubSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubSender{logger: logger}
}

func (s *StubSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email not sent, no provider configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// NewSender picks SendGrid when an API key is configured.
func NewSender(cfg config.EmailConfig, logger *zap.Logger) Sender {
	if cfg.SendGridAPIKey == "" || cfg.FromEmail == "" {
		return NewStubSender(logger)
	}
	return NewSendGridSender(cfg, logger)
}

var (
	_ Sender = (*SendGridSender)(nil)
	_ Sender = (*StubSender)(nil)
)
