package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/fieldcart/backoffice/internal/config"
	"github.com/fieldcart/backoffice/internal/logger"
)

// Sender delivers one-time login codes. Abstracted so the auth service can
// be tested without an SMTP server.
type Sender interface {
	SendLoginCode(to string, code string) error
}

// Mailer sends mail over SMTP.
type Mailer struct {
	cfg    config.SMTP
	dialer *gomail.Dialer
}

// NewMailer creates a Mailer from the SMTP section of the server config.
func NewMailer(cfg config.SMTP) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("missing SMTP host")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("missing SMTP sender address")
	}

	return &Mailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

// SendLoginCode delivers a one-time login code to the given address.
func (m *Mailer) SendLoginCode(to string, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your back office sign-in code")
	msg.SetBody("text/plain", fmt.Sprintf("Your one-time sign-in code is %s. It expires in 5 minutes.", code))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send login code: %w", err)
	}
	return nil
}

// LogSender writes codes to the log instead of mailing them. Used in
// development when no SMTP host is configured.
type LogSender struct {
	logger *logger.Logger
}

func NewLogSender(l *logger.Logger) *LogSender {
	return &LogSender{logger: l}
}

func (s *LogSender) SendLoginCode(to string, code string) error {
	s.logger.Info().Str("to", to).Str("code", code).Msg("login code (no SMTP host configured)")
	return nil
}
