package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/alumni-backend/config"
	"github.com/oksasatya/alumni-backend/pkg/helpers"
	"github.com/oksasatya/alumni-backend/pkg/mailer"
)

// email_worker drains the queue filled by MAIL_TRANSPORT=queue and delivers
// each job through Mailgun when configured, SMTP otherwise.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env, cfg.LogLevel)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}

	transport, err := deliveryTransport(cfg)
	if err != nil {
		logger.WithError(err).Fatal("no delivery transport")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.WithError(err).Fatal("amqp dial")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.WithError(err).Fatal("amqp channel")
	}
	defer func() { _ = ch.Close() }()

	// prefetch for fair dispatch across workers
	if err := ch.Qos(16, 0, false); err != nil {
		logger.WithError(err).Fatal("qos")
	}
	if err := helpers.DeclareQueue(ch, cfg.RabbitMQEmailQueue); err != nil {
		logger.WithError(err).Fatal("queue declare")
	}

	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.WithError(err).Fatal("consume")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			handle(ctx, logger, transport, msg)
		}
	}()

	logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker listening")
	<-ctx.Done()
	logger.Info("shutting down...")
	_ = ch.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
}

func handle(ctx context.Context, logger logrus.FieldLogger, t mailer.Transport, msg amqp.Delivery) {
	sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	job, err := mailer.DeliverJob(sendCtx, msg.Body, t)
	log := logger.WithFields(logrus.Fields{"to": job.To, "subject": job.Subject})
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.Is(err, mailer.ErrBadJob):
		log.WithError(err).Warn("dropping malformed email job")
		_ = msg.Nack(false, false)
	default:
		log.WithError(err).Warn("send failed, requeueing")
		_ = msg.Nack(false, true)
	}
}

func deliveryTransport(cfg *config.Config) (mailer.Transport, error) {
	if cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "" && cfg.MailgunSender != "" {
		return mailer.NewMailgun(cfg.MailgunConfig())
	}
	if cfg.SMTPUsername == "" || cfg.SMTPPassword == "" {
		return nil, errors.New("configure Mailgun or SMTP credentials")
	}
	return mailer.NewSMTP(cfg.SMTPConfig())
}
