package mailer

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Log writes the message to the logger instead of sending it. Development only.
type Log struct {
	log logrus.FieldLogger
}

func NewLog(log logrus.FieldLogger) *Log {
	return &Log{log: log}
}

func (l *Log) Send(_ context.Context, to, subject, text, _ string) error {
	l.log.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info(text)
	return nil
}

var _ Transport = (*Log)(nil)
