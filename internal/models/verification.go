package models

import "time"

// VerificationCode is the pending email-verification code for an address.
// At most one exists per email; issuing a new one replaces it.
type VerificationCode struct {
	Email     string    `json:"email" gorm:"primaryKey;type:varchar(255)"`
	Code      string    `json:"-" gorm:"type:varchar(16);not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Attempts  int       `json:"attempts" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime:false"`
}

// VerificationSend records the last time a code was sent to an email, for the resend cooldown.
type VerificationSend struct {
	Email      string    `gorm:"primaryKey;type:varchar(255)"`
	LastSentAt time.Time `gorm:"not null"`
}
