package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"conexioncarga/internal/models"

	"github.com/google/uuid"
)

// MockCargoRepository is an in-memory implementation of CargoRepository.
type MockCargoRepository struct {
	cargos map[string]models.Cargo
	mu     sync.RWMutex
}

// NewMockCargoRepository creates a new instance of MockCargoRepository.
func NewMockCargoRepository() *MockCargoRepository {
	return &MockCargoRepository{
		cargos: make(map[string]models.Cargo),
	}
}

// Create adds a new listing.
func (r *MockCargoRepository) Create(_ context.Context, cargo *models.Cargo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cargo.ID == "" {
		cargo.ID = uuid.New().String()
	}
	r.cargos[cargo.ID] = *cargo
	return nil
}

// GetByID returns a listing by its ID.
func (r *MockCargoRepository) GetByID(_ context.Context, id string) (*models.Cargo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cargo, ok := r.cargos[id]
	if !ok {
		return nil, fmt.Errorf("cargo with ID %s: %w", id, ErrNotFound)
	}
	return &cargo, nil
}

// Update replaces a stored listing.
func (r *MockCargoRepository) Update(_ context.Context, cargo *models.Cargo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cargos[cargo.ID]; !ok {
		return fmt.Errorf("cargo with ID %s: %w", cargo.ID, ErrNotFound)
	}
	r.cargos[cargo.ID] = *cargo
	return nil
}

// ListPublished returns a page of published listings, newest first.
func (r *MockCargoRepository) ListPublished(_ context.Context, offset, limit int) ([]models.Cargo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Cargo
	for _, c := range r.cargos {
		if c.Status == models.CargoStatusPublished {
			out = append(out, c)
		}
	}
	return paginate(newestFirst(out), offset, limit), nil
}

// ListByPoster returns all listings of a poster, newest first.
func (r *MockCargoRepository) ListByPoster(_ context.Context, posterID string) ([]models.Cargo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Cargo
	for _, c := range r.cargos {
		if c.PosterID == posterID {
			out = append(out, c)
		}
	}
	return newestFirst(out), nil
}

// FindActiveByPoster returns flagged-active listings matching weight and value.
func (r *MockCargoRepository) FindActiveByPoster(_ context.Context, posterID string, weight float64, value int64) ([]models.Cargo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Cargo
	for _, c := range r.cargos {
		if c.PosterID == posterID && c.Active && c.Weight == weight && c.Value == value {
			out = append(out, c)
		}
	}
	return out, nil
}

// Deactivate clears the active flag of the given listings.
func (r *MockCargoRepository) Deactivate(_ context.Context, ids []string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		c, ok := r.cargos[id]
		if !ok {
			continue
		}
		c.Active = false
		c.UpdatedAt = at
		r.cargos[id] = c
	}
	return nil
}

// WithinTx calls fn with the repository itself; the map has no transactions.
func (r *MockCargoRepository) WithinTx(_ context.Context, fn func(repo CargoRepository) error) error {
	return fn(r)
}

func newestFirst(cargos []models.Cargo) []models.Cargo {
	sort.SliceStable(cargos, func(i, j int) bool {
		return cargos[i].CreatedAt.After(cargos[j].CreatedAt)
	})
	return cargos
}

func paginate(cargos []models.Cargo, offset, limit int) []models.Cargo {
	if offset >= len(cargos) {
		return []models.Cargo{}
	}
	end := len(cargos)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return cargos[offset:end]
}
