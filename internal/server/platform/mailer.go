package platform

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/wneessen/go-mail"
)

const smtpTimeout = 15 * time.Second

// Mailer delivers a plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through an SMTP relay. STARTTLS is used when the
// relay offers it, and credentials are sent only when a user is configured.
type SMTPMailer struct {
	from    string
	options []mail.Option
	host    string
	send    func(ctx context.Context, host string, opts []mail.Option, msg *mail.Msg) error
}

func NewSMTPMailer(addr, user, password, from string) *SMTPMailer {
	host := addr
	opts := []mail.Option{mail.WithTLSPolicy(mail.TLSOpportunistic), mail.WithTimeout(smtpTimeout)}
	if h, p, err := net.SplitHostPort(addr); err == nil {
		host = h
		if port, err := strconv.Atoi(p); err == nil {
			opts = append(opts, mail.WithPort(port))
		}
	}
	if user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
			mail.WithUsername(user),
			mail.WithPassword(password),
		)
	}
	return &SMTPMailer{from: from, options: opts, host: host, send: dialAndSend}
}

func dialAndSend(ctx context.Context, host string, opts []mail.Option, msg *mail.Msg) error {
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func (m *SMTPMailer) message(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg, err := m.message(to, subject, body)
	if err != nil {
		return err
	}
	if err := m.send(ctx, m.host, m.options, msg); err != nil {
		return fmt.Errorf("error sending mail: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used when no
// SMTP relay is configured.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Info(ctx, "mail not sent, no SMTP relay configured", "to", to, "subject", subject, "body", body)
	return nil
}
