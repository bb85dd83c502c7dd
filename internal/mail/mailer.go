// Package mail sends assignment notifications. Delivery failures are logged
// and never surfaced to API callers.
package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/tracelight/tracelight/internal/config"
	"github.com/tracelight/tracelight/pkg/models"
)

// Mailer sends notification email to users.
type Mailer interface {
	NotifyAssignment(user *models.User, log *models.Log) error
}

// New returns an SMTP-backed mailer, or a noop mailer when SMTP is not
// configured.
func New(cfg config.MailConfig) Mailer {
	if cfg.Host == "" {
		return &noopMailer{}
	}
	return &smtpMailer{cfg: cfg}
}

type smtpMailer struct {
	cfg config.MailConfig
}

func (m *smtpMailer) NotifyAssignment(user *models.User, log *models.Log) error {
	if user.Email == "" {
		return fmt.Errorf("user %s has no email address", user.ID)
	}

	subject := fmt.Sprintf("[tracelight] assigned: %s", log.ErrorType)
	body := fmt.Sprintf(
		"You have been assigned an issue.\r\n\r\n"+
			"Error: %s\r\n"+
			"Message: %s\r\n"+
			"Location: %s:%s\r\n"+
			"Severity: %s\r\n"+
			"Status: %s\r\n",
		log.ErrorType, log.Message, log.Filename, log.Function, log.Severity, log.Status)

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + user.Email,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	return smtp.SendMail(addr, auth, m.cfg.From, []string{user.Email}, []byte(msg))
}

type noopMailer struct{}

func (n *noopMailer) NotifyAssignment(*models.User, *models.Log) error {
	return nil
}
