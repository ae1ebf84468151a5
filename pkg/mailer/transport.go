package mailer

import "context"

// Transport delivers one rendered message. html may be empty.
type Transport interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, to, subject, text, html string) error

func (f TransportFunc) Send(ctx context.Context, to, subject, text, html string) error {
	return f(ctx, to, subject, text, html)
}
