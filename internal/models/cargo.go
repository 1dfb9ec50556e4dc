package models

import (
	"math"
	"time"
)

// Publication states of a listing. The set is constrained at the database level,
// so expiration never writes to it.
const (
	CargoStatusPublished = "published"
	CargoStatusExpired   = "expired"
	CargoStatusDeleted   = "deleted"
)

// RoundWeight rounds w to the two decimals the weight column keeps.
func RoundWeight(w float64) float64 {
	return math.Round(w*100) / 100
}

// Cargo is a freight listing posted by a user.
type Cargo struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PosterID      string     `json:"poster_id" gorm:"type:varchar(36);not null;index:idx_cargo_poster_created,priority:1"`
	CompanyID     *string    `json:"company_id,omitempty" gorm:"type:varchar(36)"`
	Origin        string     `json:"origin" gorm:"not null"`
	Destination   string     `json:"destination" gorm:"not null"`
	CargoType     string     `json:"cargo_type" gorm:"not null"`
	Weight        float64    `json:"weight" gorm:"type:numeric(10,2);not null"`
	Value         int64      `json:"value" gorm:"column:declared_value;not null"`
	Commercial    *string    `json:"commercial,omitempty"`
	Contact       *string    `json:"contact,omitempty"`
	Observations  *string    `json:"observations,omitempty"`
	Driver        *string    `json:"driver,omitempty"`
	VehicleType   *string    `json:"vehicle_type,omitempty"`
	DepartureAt   time.Time  `json:"departure_at" gorm:"not null"`
	ArrivalAt     *time.Time `json:"arrival_at,omitempty"`
	Status        string     `json:"status" gorm:"type:varchar(20);not null;default:published;index"`
	Active        bool       `json:"active" gorm:"not null;default:true"`
	PremiumTrip   bool       `json:"premium_trip" gorm:"not null;default:false"`
	DurationHours int        `json:"duration_hours" gorm:"not null;default:24"`
	CreatedAt     time.Time  `json:"created_at" gorm:"autoCreateTime:false;index:idx_cargo_poster_created,priority:2"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"autoUpdateTime:false"`
}

// Duration returns the publication window of the listing.
func (c *Cargo) Duration() time.Duration {
	return time.Duration(c.DurationHours) * time.Hour
}

// ExpiresAt is the instant the publication window closes.
func (c *Cargo) ExpiresAt() time.Time {
	return c.CreatedAt.Add(c.Duration())
}

// IsActiveAt reports whether the listing is logically active at now.
// The window is closed at its exact end instant.
func (c *Cargo) IsActiveAt(now time.Time) bool {
	return c.Active && now.Before(c.ExpiresAt())
}

// CargoUpdate carries the optional fields applied when republishing a listing.
type CargoUpdate struct {
	CompanyID     *string
	Origin        *string
	Destination   *string
	CargoType     *string
	Weight        *float64
	Value         *int64
	Commercial    *string
	Contact       *string
	Observations  *string
	Driver        *string
	VehicleType   *string
	DepartureAt   *time.Time
	ArrivalAt     *time.Time
	PremiumTrip   *bool
	DurationHours *int
}
