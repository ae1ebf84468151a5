package mailer

import "context"

// JSONPublisher is satisfied by helpers.RabbitPublisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Queue hands the rendered message to cmd/email_worker over RabbitMQ.
// A successful publish counts as a successful dispatch.
type Queue struct {
	pub JSONPublisher
}

func NewQueue(pub JSONPublisher) *Queue {
	return &Queue{pub: pub}
}

func (q *Queue) Send(ctx context.Context, to, subject, text, html string) error {
	return q.pub.PublishJSON(ctx, EmailJob{To: to, Subject: subject, Text: text, HTML: html})
}

var _ Transport = (*Queue)(nil)
