// Package notify delivers verification messages to users.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/dtroode/docchat-server/internal/model"
)

// sender is the part of *mail.Client the notifier uses.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPConfig contains outgoing mail server parameters.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

var _ model.Notifier = (*SMTPNotifier)(nil)

// SMTPNotifier sends plain text email through an SMTP relay.
type SMTPNotifier struct {
	client  sender
	from    string
	timeout time.Duration
}

// NewSMTPNotifier creates a notifier for the relay described by cfg.
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return newSMTPNotifier(client, cfg.From, cfg.Timeout), nil
}

func newSMTPNotifier(client sender, from string, timeout time.Duration) *SMTPNotifier {
	return &SMTPNotifier{client: client, from: from, timeout: timeout}
}

// Send delivers msg, giving up after the configured timeout.
func (n *SMTPNotifier) Send(ctx context.Context, msg model.Message) error {
	m := mail.NewMsg()
	if err := m.From(n.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	if err := n.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
