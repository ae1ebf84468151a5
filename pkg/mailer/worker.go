package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrBadJob marks a queued payload that can never be delivered. Consumers
// should drop it instead of requeueing.
var ErrBadJob = errors.New("malformed email job")

// DeliverJob decodes one queued EmailJob and sends it through t.
func DeliverJob(ctx context.Context, body []byte, t Transport) (EmailJob, error) {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return job, fmt.Errorf("%w: %w", ErrBadJob, err)
	}
	if !job.Valid() {
		return job, ErrBadJob
	}
	if err := t.Send(ctx, job.To, job.Subject, job.Text, job.HTML); err != nil {
		return job, fmt.Errorf("deliver to %s: %w", job.To, err)
	}
	return job, nil
}
