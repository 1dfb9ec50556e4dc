package mailer

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Sender delivers a single email. Implementations do not retry.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// EmailJob is the JSON payload put on the queue for the mail worker.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

// LogSender writes emails to the log instead of delivering them. Used in development.
type LogSender struct {
	Logger *logrus.Logger
}

// Send logs the message.
func (s *LogSender) Send(_ context.Context, to, subject, text, _ string) error {
	s.Logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info(text)
	return nil
}
