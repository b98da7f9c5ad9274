// Package email provides SMTP delivery for notification mail.
package email

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/crm/backend/internal/infrastructure/config"
)

// Message is a single outbound mail
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers notification mail
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender implements Sender using go-mail
type SMTPSender struct {
	cfg    config.EmailConfig
	logger *zap.Logger
}

// NewSMTPSender creates an SMTPSender
func NewSMTPSender(cfg config.EmailConfig, logger *zap.Logger) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SMTPSender{
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Send delivers one message over SMTP
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("recipient is required")
	}

	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(msg.Subject)
	if msg.TextBody != "" {
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	}
	if msg.HTMLBody != "" {
		if msg.TextBody != "" {
			m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
		} else {
			m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
		}
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	}
	if s.cfg.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	s.logger.Debug("Mail sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// Ensure SMTPSender implements Sender
var _ Sender = (*SMTPSender)(nil)

// RecordingSender captures messages instead of delivering them. Used in
// tests and in development when no SMTP server is configured.
type RecordingSender struct {
	mu       sync.Mutex
	messages []Message
}

// NewRecordingSender creates a RecordingSender
func NewRecordingSender() *RecordingSender {
	return &RecordingSender{}
}

// Send records the message
func (s *RecordingSender) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("recipient is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)

	return nil
}

// Messages returns the recorded messages
func (s *RecordingSender) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Ensure RecordingSender implements Sender
var _ Sender = (*RecordingSender)(nil)
