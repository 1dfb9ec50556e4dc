package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"conexioncarga/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCargoRepository is a GORM implementation of CargoRepository.
type GORMCargoRepository struct {
	db *gorm.DB
}

// NewGORMCargoRepository creates a new instance of GORMCargoRepository.
func NewGORMCargoRepository(db *gorm.DB) *GORMCargoRepository {
	return &GORMCargoRepository{
		db: db,
	}
}

// Create inserts a new listing.
func (r *GORMCargoRepository) Create(ctx context.Context, cargo *models.Cargo) error {
	if cargo.ID == "" {
		cargo.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(cargo).Error; err != nil {
		return fmt.Errorf("failed to create cargo: %w", err)
	}
	return nil
}

// GetByID retrieves a single listing by its ID.
func (r *GORMCargoRepository) GetByID(ctx context.Context, id string) (*models.Cargo, error) {
	var cargo models.Cargo
	if err := r.db.WithContext(ctx).First(&cargo, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cargo with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cargo by ID %s: %w", id, err)
	}
	return &cargo, nil
}

// Update writes every column of the listing, zero values included.
func (r *GORMCargoRepository) Update(ctx context.Context, cargo *models.Cargo) error {
	res := r.db.WithContext(ctx).Model(cargo).Select("*").Omit("id").Updates(cargo)
	if res.Error != nil {
		return fmt.Errorf("failed to update cargo: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cargo with ID %s: %w", cargo.ID, ErrNotFound)
	}
	return nil
}

// ListPublished retrieves a page of published listings, most recent first.
func (r *GORMCargoRepository) ListPublished(ctx context.Context, offset, limit int) ([]models.Cargo, error) {
	var cargos []models.Cargo
	err := r.db.WithContext(ctx).
		Where("status = ?", models.CargoStatusPublished).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&cargos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list published cargos: %w", err)
	}
	return cargos, nil
}

// ListByPoster retrieves all listings of a poster, most recent first.
func (r *GORMCargoRepository) ListByPoster(ctx context.Context, posterID string) ([]models.Cargo, error) {
	var cargos []models.Cargo
	err := r.db.WithContext(ctx).
		Where("poster_id = ?", posterID).
		Order("created_at DESC").
		Find(&cargos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cargos for poster %s: %w", posterID, err)
	}
	return cargos, nil
}

// FindActiveByPoster narrows duplicate candidates on the indexed, exactly-comparable columns.
func (r *GORMCargoRepository) FindActiveByPoster(ctx context.Context, posterID string, weight float64, value int64) ([]models.Cargo, error) {
	var cargos []models.Cargo
	err := r.db.WithContext(ctx).
		Where("poster_id = ? AND active = ? AND weight = ? AND declared_value = ?", posterID, true, weight, value).
		Find(&cargos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find active cargos for poster %s: %w", posterID, err)
	}
	return cargos, nil
}

// Deactivate clears the active flag. Repeating it is harmless.
func (r *GORMCargoRepository) Deactivate(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.Cargo{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"active": false, "updated_at": at}).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate cargos: %w", err)
	}
	return nil
}

// WithinTx runs fn inside a database transaction.
func (r *GORMCargoRepository) WithinTx(ctx context.Context, fn func(repo CargoRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GORMCargoRepository{db: tx})
	})
}
