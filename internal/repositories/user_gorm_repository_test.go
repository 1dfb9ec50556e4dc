package repositories_test

import (
	"context"
	"testing"

	"conexioncarga/internal/models"
	"conexioncarga/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGORMUserRepository(t *testing.T) {
	repo := repositories.NewGORMUserRepository(newTestDB(t))
	ctx := context.Background()

	user := &models.User{Email: "Ana@Example.com", PasswordHash: "hash", FirstName: "Ana", LastName: "Gómez"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)

	found, err := repo.GetByEmail(ctx, "  ana@example.COM ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.False(t, found.Active)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, repo.Activate(ctx, user.ID))
	found, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, found.Active)

	name := "Transportes Ana"
	found.IsCompany = true
	found.CompanyName = &name
	require.NoError(t, repo.Update(ctx, found))

	found.IsCompany = false
	found.CompanyName = nil
	require.NoError(t, repo.Update(ctx, found))
	reloaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsCompany)
	assert.Nil(t, reloaded.CompanyName, "zero values are written too")

	assert.ErrorIs(t, repo.Activate(ctx, "missing"), repositories.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &models.User{ID: "missing", Email: "x@example.com"}), repositories.ErrNotFound)
	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestGORMUserRepository_EmailUniqueIgnoringCase(t *testing.T) {
	repo := repositories.NewGORMUserRepository(newTestDB(t))
	ctx := context.Background()

	first := &models.User{Email: "a@x.com", PasswordHash: "hash", FirstName: "A", LastName: "X"}
	require.NoError(t, repo.Create(ctx, first))

	second := &models.User{Email: " A@X.com ", PasswordHash: "hash", FirstName: "B", LastName: "X"}
	assert.ErrorIs(t, repo.Create(ctx, second), repositories.ErrDuplicateKey)

	third := &models.User{Email: "Other@X.com", PasswordHash: "hash", FirstName: "C", LastName: "X"}
	require.NoError(t, repo.Create(ctx, third))
	assert.Equal(t, "other@x.com", third.Email)

	third.Email = "A@x.COM"
	assert.ErrorIs(t, repo.Update(ctx, third), repositories.ErrDuplicateKey)

	found, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}
