package repositories_test

import (
	"context"
	"testing"
	"time"

	"conexioncarga/internal/models"
	"conexioncarga/internal/repositories"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every backend must behave the same for the verification state machine.
func TestVerificationRepositories(t *testing.T) {
	backends := map[string]func(t *testing.T) repositories.VerificationRepository{
		"memory": func(t *testing.T) repositories.VerificationRepository {
			return repositories.NewMemoryVerificationRepository()
		},
		"gorm": func(t *testing.T) repositories.VerificationRepository {
			return repositories.NewGORMVerificationRepository(newTestDB(t))
		},
		"redis": func(t *testing.T) repositories.VerificationRepository {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { client.Close() })
			return repositories.NewRedisVerificationRepository(client, "test")
		},
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			repo := build(t)
			ctx := context.Background()
			now := time.Date(2025, 10, 21, 15, 0, 0, 0, time.UTC)

			_, err := repo.Get(ctx, "ana@example.com")
			assert.ErrorIs(t, err, repositories.ErrNotFound)
			_, err = repo.IncrementAttempts(ctx, "ana@example.com")
			assert.ErrorIs(t, err, repositories.ErrNotFound)
			_, err = repo.LastSent(ctx, "ana@example.com")
			assert.ErrorIs(t, err, repositories.ErrNotFound)

			code := &models.VerificationCode{
				Email:     "ana@example.com",
				Code:      "123456",
				ExpiresAt: now.Add(15 * time.Minute),
				CreatedAt: now,
			}
			require.NoError(t, repo.Save(ctx, code))

			got, err := repo.Get(ctx, "ana@example.com")
			require.NoError(t, err)
			assert.Equal(t, "123456", got.Code)
			assert.True(t, got.ExpiresAt.Equal(code.ExpiresAt))
			assert.Equal(t, 0, got.Attempts)

			for want := 1; want <= 3; want++ {
				n, err := repo.IncrementAttempts(ctx, "ana@example.com")
				require.NoError(t, err)
				assert.Equal(t, want, n)
			}

			// saving a new code resets the counter
			replacement := &models.VerificationCode{
				Email:     "ana@example.com",
				Code:      "654321",
				ExpiresAt: now.Add(20 * time.Minute),
				CreatedAt: now.Add(5 * time.Minute),
			}
			require.NoError(t, repo.Save(ctx, replacement))
			got, err = repo.Get(ctx, "ana@example.com")
			require.NoError(t, err)
			assert.Equal(t, "654321", got.Code)
			assert.Equal(t, 0, got.Attempts)

			require.NoError(t, repo.Delete(ctx, "ana@example.com"))
			require.NoError(t, repo.Delete(ctx, "ana@example.com"))
			_, err = repo.Get(ctx, "ana@example.com")
			assert.ErrorIs(t, err, repositories.ErrNotFound)

			require.NoError(t, repo.MarkSent(ctx, "ana@example.com", now, 45*time.Second))
			last, err := repo.LastSent(ctx, "ana@example.com")
			require.NoError(t, err)
			assert.True(t, last.Equal(now))

			require.NoError(t, repo.MarkSent(ctx, "ana@example.com", now.Add(time.Minute), 45*time.Second))
			last, err = repo.LastSent(ctx, "ana@example.com")
			require.NoError(t, err)
			assert.True(t, last.Equal(now.Add(time.Minute)))
		})
	}
}

func TestRedisVerificationRepository_KeysExpire(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	repo := repositories.NewRedisVerificationRepository(client, "")
	ctx := context.Background()
	now := time.Date(2025, 10, 21, 15, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, &models.VerificationCode{
		Email:     "ana@example.com",
		Code:      "123456",
		ExpiresAt: now.Add(15 * time.Minute),
		CreatedAt: now,
	}))
	require.NoError(t, repo.MarkSent(ctx, "ana@example.com", now, 45*time.Second))

	assert.True(t, mr.Exists("verification:code:ana@example.com"))
	assert.Equal(t, 15*time.Minute+24*time.Hour, mr.TTL("verification:code:ana@example.com"))
	assert.Equal(t, 45*time.Second, mr.TTL("verification:sent:ana@example.com"))

	// the cooldown marker disappears with the cooldown
	mr.FastForward(46 * time.Second)
	_, err := repo.LastSent(ctx, "ana@example.com")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	// an expired code is still readable until the retention ends
	mr.FastForward(time.Hour)
	_, err = repo.Get(ctx, "ana@example.com")
	assert.NoError(t, err)

	mr.FastForward(24 * time.Hour)
	_, err = repo.Get(ctx, "ana@example.com")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	// no cooldown means no marker
	require.NoError(t, repo.MarkSent(ctx, "bob@example.com", now, 0))
	assert.False(t, mr.Exists("verification:sent:bob@example.com"))
}
