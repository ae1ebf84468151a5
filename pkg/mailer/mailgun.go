package mailer

import (
	"context"
	"errors"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const mailgunSendTimeout = 10 * time.Second

// MailgunConfig holds the sending-domain credentials. APIBase is optional and
// selects the region endpoint (mg.APIBaseEU for EU domains).
type MailgunConfig struct {
	Domain  string
	APIKey  string
	Sender  string
	APIBase string
}

// Mailgun delivers mail through the Mailgun HTTP API.
type Mailgun struct {
	client *mg.MailgunImpl
	sender string
}

func NewMailgun(cfg MailgunConfig) (*Mailgun, error) {
	if cfg.Domain == "" || cfg.APIKey == "" || cfg.Sender == "" {
		return nil, errors.New("mailgun domain, api key and sender must be configured")
	}
	client := mg.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.APIBase != "" {
		client.SetAPIBase(cfg.APIBase)
	}
	return &Mailgun{client: client, sender: cfg.Sender}, nil
}

func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	c, cancel := context.WithTimeout(ctx, mailgunSendTimeout)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}

var _ Transport = (*Mailgun)(nil)
