package repositories

import (
	"context"

	"conexioncarga/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	// GetByEmail matches the email case-insensitively after trimming whitespace.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Activate(ctx context.Context, id string) error
}
