package repositories

import (
	"context"
	"time"

	"conexioncarga/internal/models"
)

// VerificationRepository stores pending email-verification codes and the
// last-send timestamps used for the resend cooldown. Emails are expected
// to be normalized by the caller.
type VerificationRepository interface {
	// Save stores code as the only pending code for its email, replacing any previous one.
	Save(ctx context.Context, code *models.VerificationCode) error
	Get(ctx context.Context, email string) (*models.VerificationCode, error)
	// IncrementAttempts bumps the failed-attempt counter and returns the new value.
	IncrementAttempts(ctx context.Context, email string) (int, error)
	// Delete removes the pending code. Deleting a missing code is not an error.
	Delete(ctx context.Context, email string) error
	// LastSent returns when a code was last sent to email, or ErrNotFound.
	LastSent(ctx context.Context, email string) (time.Time, error)
	// MarkSent records a send. Records older than cooldown may be discarded.
	MarkSent(ctx context.Context, email string, at time.Time, cooldown time.Duration) error
}
