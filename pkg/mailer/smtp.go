package mailer

import (
	"context"
	"crypto/tls"
	"errors"

	"gopkg.in/gomail.v2"
)

// SMTPConfig mirrors the sender-account style credentials (e.g. a Gmail app password).
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTP delivers mail through an authenticated SMTP relay.
type SMTP struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		return nil, errors.New("smtp host, port and sender must be configured")
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	return &SMTP{from: cfg.From, dialer: d}, nil
}

func (s *SMTP) Send(ctx context.Context, to, subject, text, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	switch {
	case html != "" && text != "":
		m.SetBody("text/plain", text)
		m.AddAlternative("text/html", html)
	case html != "":
		m.SetBody("text/html", html)
	default:
		m.SetBody("text/plain", text)
	}

	// gomail has no context support; run the dial in the background so the
	// caller is released when ctx ends.
	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Transport = (*SMTP)(nil)
