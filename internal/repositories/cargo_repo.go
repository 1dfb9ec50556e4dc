package repositories

import (
	"context"
	"time"

	"conexioncarga/internal/models"
)

// CargoRepository defines the interface for listing data access.
type CargoRepository interface {
	Create(ctx context.Context, cargo *models.Cargo) error
	GetByID(ctx context.Context, id string) (*models.Cargo, error)
	Update(ctx context.Context, cargo *models.Cargo) error
	// ListPublished returns listings in the published state, newest first.
	ListPublished(ctx context.Context, offset, limit int) ([]models.Cargo, error)
	// ListByPoster returns every listing of a poster, newest first.
	ListByPoster(ctx context.Context, posterID string) ([]models.Cargo, error)
	// FindActiveByPoster returns the poster's listings whose active flag is still set
	// and whose weight and value match exactly. Time windows are not evaluated here.
	FindActiveByPoster(ctx context.Context, posterID string, weight float64, value int64) ([]models.Cargo, error)
	// Deactivate clears the active flag of the given listings.
	Deactivate(ctx context.Context, ids []string, at time.Time) error
	// WithinTx runs fn against a repository bound to a single transaction.
	WithinTx(ctx context.Context, fn func(repo CargoRepository) error) error
}
