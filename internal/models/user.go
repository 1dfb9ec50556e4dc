package models

import "time"

// User represents a registered account of the marketplace.
type User struct {
	ID               string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email            string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	PasswordHash     string    `json:"-" gorm:"type:varchar(255);not null"`
	FirstName        string    `json:"first_name" gorm:"type:varchar(120);not null"`
	LastName         string    `json:"last_name" gorm:"type:varchar(120);not null"`
	Phone            *string   `json:"phone,omitempty" gorm:"type:varchar(30)"`
	IsCompany        bool      `json:"is_company" gorm:"not null;default:false"`
	CompanyName      *string   `json:"company_name" gorm:"type:varchar(255)"`
	IsPremium        bool      `json:"is_premium" gorm:"not null;default:false"`
	Active           bool      `json:"active" gorm:"not null;default:false"`
	Points           int       `json:"points" gorm:"not null;default:0"`
	ReferredByID     *string   `json:"referred_by_id,omitempty" gorm:"type:varchar(36);index"`
	ReferralRewarded bool      `json:"referral_rewarded" gorm:"not null;default:false"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UserUpdate carries the optional fields of a profile update. Nil means unchanged.
type UserUpdate struct {
	Email       *string
	FirstName   *string
	LastName    *string
	Phone       *string
	IsCompany   *bool
	CompanyName *string
	Password    *string
}
