package mailer

import (
	"context"
	"fmt"
)

// Publisher puts a JSON payload on a message queue.
type Publisher interface {
	PublishJSON(ctx context.Context, payload interface{}) error
}

// QueueSender hands emails to the mail worker through a queue.
// Send succeeds once the broker accepted the job, not when the mail is delivered.
type QueueSender struct {
	publisher Publisher
}

// NewQueueSender creates a QueueSender.
func NewQueueSender(p Publisher) *QueueSender {
	return &QueueSender{publisher: p}
}

// Send enqueues an EmailJob.
func (s *QueueSender) Send(ctx context.Context, to, subject, text, html string) error {
	job := EmailJob{To: to, Subject: subject, Text: text, HTML: html}
	if err := s.publisher.PublishJSON(ctx, job); err != nil {
		return fmt.Errorf("enqueue email to %s: %w", to, err)
	}
	return nil
}
