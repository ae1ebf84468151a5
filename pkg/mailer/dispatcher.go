package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/alumni-backend/pkg/mailer/templates"
)

// ErrDispatchFailed is returned once every delivery attempt has failed.
var ErrDispatchFailed = errors.New("mail dispatch failed")

type Purpose string

const (
	PurposeVerify Purpose = templates.VerifyEmail
	PurposeReset  Purpose = templates.ForgotPassword
)

// Message is one OTP mail to render and deliver.
type Message struct {
	To      string
	Name    string
	Code    string
	Purpose Purpose
}

type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Brand       templates.Brand
	Logger      logrus.FieldLogger
	Metrics     *Metrics
}

// Dispatcher renders OTP mails and delivers them through a Transport,
// retrying with linear backoff (attempt * BaseDelay) between attempts.
type Dispatcher struct {
	transport Transport
	opts      Options
}

func NewDispatcher(t Transport, opts Options) *Dispatcher {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BaseDelay < 0 {
		opts.BaseDelay = 0
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		opts.Logger = l
	}
	return &Dispatcher{transport: t, opts: opts}
}

// SendOTP blocks until the message is delivered, every attempt has failed,
// or ctx ends. In the last case ctx.Err() is returned.
func (d *Dispatcher) SendOTP(ctx context.Context, m Message) error {
	subject, text, html, err := templates.Render(string(m.Purpose), templates.NewOTPData(d.opts.Brand, m.Name, m.To, m.Code))
	if err != nil {
		return fmt.Errorf("render %s: %w", m.Purpose, err)
	}

	log := d.opts.Logger.WithFields(logrus.Fields{"to": m.To, "purpose": m.Purpose})
	attempt := 0
	err = retry.Do(ctx, d.backoff(), func(ctx context.Context) error {
		attempt++
		if err := d.transport.Send(ctx, m.To, subject, text, html); err != nil {
			d.opts.Metrics.observe(m.Purpose, "failure")
			log.WithError(err).WithField("attempt", attempt).Warn("mail delivery attempt failed")
			return retry.RetryableError(err)
		}
		d.opts.Metrics.observe(m.Purpose, "success")
		return nil
	})
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	log.WithError(err).WithField("attempts", attempt).Error("mail delivery exhausted")
	return fmt.Errorf("%w after %d attempts: %w", ErrDispatchFailed, attempt, err)
}

func (d *Dispatcher) backoff() retry.Backoff {
	base := d.opts.BaseDelay
	n := 0
	linear := retry.BackoffFunc(func() (time.Duration, bool) {
		n++
		return time.Duration(n) * base, false
	})
	return retry.WithMaxRetries(uint64(d.opts.MaxAttempts-1), linear)
}
