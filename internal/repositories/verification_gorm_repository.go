package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"conexioncarga/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMVerificationRepository keeps verification state in the database so it
// survives restarts and is shared by every instance.
type GORMVerificationRepository struct {
	db *gorm.DB
}

// NewGORMVerificationRepository creates a new instance of GORMVerificationRepository.
func NewGORMVerificationRepository(db *gorm.DB) *GORMVerificationRepository {
	return &GORMVerificationRepository{db: db}
}

// Save upserts the pending code for the email.
func (r *GORMVerificationRepository) Save(ctx context.Context, code *models.VerificationCode) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			UpdateAll: true,
		}).
		Create(code).Error
	if err != nil {
		return fmt.Errorf("failed to save verification code: %w", err)
	}
	return nil
}

// Get retrieves the pending code for the email.
func (r *GORMVerificationRepository) Get(ctx context.Context, email string) (*models.VerificationCode, error) {
	var code models.VerificationCode
	if err := r.db.WithContext(ctx).First(&code, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("verification code for %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get verification code for %s: %w", email, err)
	}
	return &code, nil
}

// IncrementAttempts atomically bumps the attempt counter.
func (r *GORMVerificationRepository) IncrementAttempts(ctx context.Context, email string) (int, error) {
	var attempts int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.VerificationCode{}).
			Where("email = ?", email).
			Update("attempts", gorm.Expr("attempts + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("verification code for %s: %w", email, ErrNotFound)
		}
		var code models.VerificationCode
		if err := tx.Select("attempts").First(&code, "email = ?", email).Error; err != nil {
			return err
		}
		attempts = code.Attempts
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to increment verification attempts for %s: %w", email, err)
	}
	return attempts, nil
}

// Delete removes the pending code for the email.
func (r *GORMVerificationRepository) Delete(ctx context.Context, email string) error {
	if err := r.db.WithContext(ctx).Delete(&models.VerificationCode{}, "email = ?", email).Error; err != nil {
		return fmt.Errorf("failed to delete verification code for %s: %w", email, err)
	}
	return nil
}

// LastSent returns the last send instant for the email.
func (r *GORMVerificationRepository) LastSent(ctx context.Context, email string) (time.Time, error) {
	var send models.VerificationSend
	if err := r.db.WithContext(ctx).First(&send, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, fmt.Errorf("verification send for %s: %w", email, ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("failed to get verification send for %s: %w", email, err)
	}
	return send.LastSentAt, nil
}

// MarkSent upserts the last send instant. The row is kept regardless of cooldown.
func (r *GORMVerificationRepository) MarkSent(ctx context.Context, email string, at time.Time, _ time.Duration) error {
	send := models.VerificationSend{Email: email, LastSentAt: at}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_sent_at"}),
		}).
		Create(&send).Error
	if err != nil {
		return fmt.Errorf("failed to record verification send for %s: %w", email, err)
	}
	return nil
}
