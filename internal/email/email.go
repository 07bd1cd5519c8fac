package email

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/Domenick1991/cafebooking/config"
	"github.com/Domenick1991/cafebooking/internal/logger"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type Sender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSender returns a sender for cfg. Without an SMTP host messages are only logged.
func NewSender(cfg config.SMTPConfig) *Sender {
	s := &Sender{from: cfg.From}
	if cfg.Host == "" {
		return s
	}
	s.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	s.dialer.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return s
}

func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	entry := logger.Log.WithFields(logrus.Fields{"to": to, "subject": subject})
	if s.dialer == nil {
		entry.Info("smtp disabled, email not sent")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	entry.Debug("email sent")
	return nil
}
