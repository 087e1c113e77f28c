package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/zetsuserv/support-portal/internal/config"
)

// EmailMessage is a single outbound mail.
type EmailMessage struct {
	To      []string
	Subject string
	Body    string
	HTML    bool
}

// Mailer delivers email. Implementations open a fresh relay connection
// per message; there is no pooling or retry.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
	Enabled() bool
}

// SMTPMailer sends via a plain-auth SMTP relay.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// NewSMTPMailer builds a mailer; missing credentials leave it disabled
// and every send becomes a logged no-op.
func NewSMTPMailer(cfg config.SMTPConfig, logger *zap.Logger) *SMTPMailer {
	if !cfg.Enabled() {
		logger.Warn("smtp credentials not configured; email sending disabled")
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Enabled reports whether the relay has credentials.
func (m *SMTPMailer) Enabled() bool {
	return m.cfg.Enabled()
}

// Send composes MIME headers and relays the message.
func (m *SMTPMailer) Send(_ context.Context, msg EmailMessage) error {
	if !m.cfg.Enabled() {
		m.logger.Info("email send skipped; credentials not configured",
			zap.String("subject", msg.Subject))
		return nil
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.User
	}

	var headers []string
	headers = append(headers, fmt.Sprintf("From: %s", from))
	headers = append(headers, fmt.Sprintf("To: %s", strings.Join(msg.To, ", ")))
	headers = append(headers, fmt.Sprintf("Subject: %s", msg.Subject))
	if msg.HTML {
		headers = append(headers, "MIME-Version: 1.0")
		headers = append(headers, "Content-Type: text/html; charset=UTF-8")
	} else {
		headers = append(headers, "Content-Type: text/plain; charset=UTF-8")
	}
	payload := strings.Join(headers, "\r\n") + "\r\n\r\n" + msg.Body

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, from, msg.To, []byte(payload)); err != nil {
		m.logger.Error("smtp send failed",
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return err
	}
	return nil
}
