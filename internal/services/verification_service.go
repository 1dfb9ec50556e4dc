package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"conexioncarga/internal/models"
	"conexioncarga/internal/repositories"
	"conexioncarga/pkg/mailer"

	"github.com/sirupsen/logrus"
)

// MaxVerifyAttempts is the number of wrong codes after which a pending code is discarded.
const MaxVerifyAttempts = 5

// VerificationConfig tunes code issuance.
type VerificationConfig struct {
	CodeLength int
	TTL        time.Duration
	Cooldown   time.Duration
}

// DefaultVerificationConfig issues 6-digit codes valid for 15 minutes, at most one every 45 seconds.
var DefaultVerificationConfig = VerificationConfig{
	CodeLength: 6,
	TTL:        15 * time.Minute,
	Cooldown:   45 * time.Second,
}

// AttemptError reports a wrong code together with the attempts left.
type AttemptError struct {
	Remaining int
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("%s, %d attempts remaining", ErrInvalidCode, e.Remaining)
}

// Unwrap lets errors.Is match ErrInvalidCode.
func (e *AttemptError) Unwrap() error { return ErrInvalidCode }

// VerificationService runs the email-verification code state machine:
// no code, pending, then verified, expired or locked.
type VerificationService struct {
	codes  repositories.VerificationRepository
	users  repositories.UserRepository
	sender mailer.Sender
	cfg    VerificationConfig
	now    Clock
	logger *logrus.Logger
	emails keyedMutex
}

// NewVerificationService creates a new VerificationService.
func NewVerificationService(codes repositories.VerificationRepository, users repositories.UserRepository, sender mailer.Sender, cfg VerificationConfig, now Clock, logger *logrus.Logger) *VerificationService {
	if now == nil {
		now = SystemClock
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = DefaultVerificationConfig.CodeLength
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultVerificationConfig.TTL
	}
	return &VerificationService{
		codes:  codes,
		users:  users,
		sender: sender,
		cfg:    cfg,
		now:    now,
		logger: logger,
	}
}

// Issue generates and emails a new code for email, replacing any pending one.
// It fails with ErrResendCooldown if a code was sent within the cooldown window,
// and with ErrDeliveryFailed if the email could not be sent; in that case no code is stored.
func (s *VerificationService) Issue(ctx context.Context, email string) (string, error) {
	key := normalizeEmail(email)
	unlock := s.emails.Lock(key)
	defer unlock()

	now := s.now()
	last, err := s.codes.LastSent(ctx, key)
	switch {
	case err == nil:
		if now.Sub(last) < s.cfg.Cooldown {
			return "", ErrResendCooldown
		}
	case !errors.Is(err, repositories.ErrNotFound):
		return "", fmt.Errorf("failed to read last send for %s: %w", key, err)
	}

	code, err := generateCode(s.cfg.CodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}

	subject, text, html, err := mailer.VerificationEmail(code, s.cfg.TTL)
	if err != nil {
		return "", err
	}
	if err := s.sender.Send(ctx, strings.TrimSpace(email), subject, text, html); err != nil {
		s.logger.WithError(err).WithField("email", key).Error("verification email delivery failed")
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	record := &models.VerificationCode{
		Email:     key,
		Code:      code,
		ExpiresAt: now.Add(s.cfg.TTL),
		Attempts:  0,
		CreatedAt: now,
	}
	if err := s.codes.Save(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}
	if err := s.codes.MarkSent(ctx, key, now, s.cfg.Cooldown); err != nil {
		return "", fmt.Errorf("failed to record verification send: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"email": key, "expires_at": record.ExpiresAt}).Info("verification code issued")
	return code, nil
}

// Resend issues a fresh code for a registered account that is not verified yet.
func (s *VerificationService) Resend(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to look up %s: %w", email, err)
	}
	if user.Active {
		return "", ErrAlreadyVerified
	}
	return s.Issue(ctx, email)
}

// Verify checks code against the pending code for email and activates the account on a match.
// A code is single use; expired codes and codes that reached MaxVerifyAttempts are discarded.
func (s *VerificationService) Verify(ctx context.Context, email, code string) (*models.User, error) {
	key := normalizeEmail(email)
	unlock := s.emails.Lock(key)
	defer unlock()

	record, err := s.codes.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoPendingVerification
		}
		return nil, fmt.Errorf("failed to read verification code: %w", err)
	}

	if s.now().After(record.ExpiresAt) {
		if err := s.codes.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("failed to discard expired code: %w", err)
		}
		return nil, ErrCodeExpired
	}

	if strings.TrimSpace(code) != record.Code {
		attempts, err := s.codes.IncrementAttempts(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to count verification attempt: %w", err)
		}
		if attempts >= MaxVerifyAttempts {
			if err := s.codes.Delete(ctx, key); err != nil {
				return nil, fmt.Errorf("failed to discard locked code: %w", err)
			}
			s.logger.WithField("email", key).Warn("verification code locked after too many attempts")
			return nil, ErrTooManyAttempts
		}
		return nil, &AttemptError{Remaining: MaxVerifyAttempts - attempts}
	}

	user, err := s.users.GetByEmail(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up %s: %w", key, err)
	}
	if err := s.users.Activate(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to activate user %s: %w", user.ID, err)
	}
	if err := s.codes.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to consume verification code: %w", err)
	}
	user.Active = true

	s.logger.WithFields(logrus.Fields{"user_id": user.ID}).Info("email verified")
	return user, nil
}

func generateCode(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
