// Package mailer delivers outbound email through a configurable backend.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"yamdb/internal/config"
)

// Message is a plain-text email.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Sender delivers a message or reports why it could not.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender builds the backend selected by MAIL_BACKEND.
func NewSender(cfg *config.Config, logger *slog.Logger) (Sender, error) {
	switch cfg.MailBackend {
	case "console", "":
		return NewConsoleSender(logger), nil
	case "file":
		return NewFileSender(cfg.MailFilePath)
	case "smtp":
		return NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}), nil
	default:
		return nil, fmt.Errorf("unknown mail backend %q", cfg.MailBackend)
	}
}

// MaskEmail hides most of the local part: "alice@x.com" becomes "a***e@x.com".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return local[:1] + "***" + domain
	}
	return local[:1] + "***" + local[len(local)-1:] + domain
}
