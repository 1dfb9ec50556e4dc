package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"conexioncarga/internal/models"
	"conexioncarga/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCargo(poster string, createdAt time.Time, weight float64) *models.Cargo {
	return &models.Cargo{
		PosterID:      poster,
		Origin:        "Bogotá",
		Destination:   "Medellín",
		CargoType:     "General",
		Weight:        weight,
		Value:         5000000,
		DepartureAt:   createdAt.Add(24 * time.Hour),
		Status:        models.CargoStatusPublished,
		Active:        true,
		DurationHours: 24,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func TestGORMCargoRepository(t *testing.T) {
	repo := repositories.NewGORMCargoRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2025, 10, 21, 15, 0, 0, 0, time.UTC)

	older := newCargo("poster-1", base, 1000)
	newer := newCargo("poster-1", base.Add(time.Hour), 1000)
	other := newCargo("poster-2", base.Add(2*time.Hour), 500)
	for _, c := range []*models.Cargo{older, newer, other} {
		require.NoError(t, repo.Create(ctx, c))
		assert.NotEmpty(t, c.ID)
	}

	got, err := repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "Medellín", got.Destination)
	assert.True(t, got.CreatedAt.Equal(base))

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	// Newest first
	page, err := repo.ListPublished(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, other.ID, page[0].ID)
	assert.Equal(t, newer.ID, page[1].ID)

	page, err = repo.ListPublished(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, older.ID, page[0].ID)

	mine, err := repo.ListByPoster(ctx, "poster-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newer.ID, mine[0].ID)

	candidates, err := repo.FindActiveByPoster(ctx, "poster-1", 1000, 5000000)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)

	// Deactivate persists the flag and the timestamp
	at := base.Add(48 * time.Hour)
	require.NoError(t, repo.Deactivate(ctx, []string{older.ID}, at))
	require.NoError(t, repo.Deactivate(ctx, nil, at))
	got, err = repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.True(t, got.UpdatedAt.Equal(at))
	assert.Equal(t, models.CargoStatusPublished, got.Status)

	candidates, err = repo.FindActiveByPoster(ctx, "poster-1", 1000, 5000000)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, newer.ID, candidates[0].ID)

	// Update writes back false
	newer.Active = false
	require.NoError(t, repo.Update(ctx, newer))
	got, err = repo.GetByID(ctx, newer.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	missing := newCargo("poster-1", base, 1)
	missing.ID = "missing"
	assert.ErrorIs(t, repo.Update(ctx, missing), repositories.ErrNotFound)
}

func TestGORMCargoRepository_WithinTxRollsBack(t *testing.T) {
	repo := repositories.NewGORMCargoRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2025, 10, 21, 15, 0, 0, 0, time.UTC)

	boom := errors.New("boom")
	var createdID string
	err := repo.WithinTx(ctx, func(tx repositories.CargoRepository) error {
		c := newCargo("poster-1", base, 1000)
		if err := tx.Create(ctx, c); err != nil {
			return err
		}
		createdID = c.ID
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.GetByID(ctx, createdID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	err = repo.WithinTx(ctx, func(tx repositories.CargoRepository) error {
		return tx.Create(ctx, newCargo("poster-1", base, 1000))
	})
	require.NoError(t, err)
	all, err := repo.ListByPoster(ctx, "poster-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
