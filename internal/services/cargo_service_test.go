package services_test

import (
	"context"
	"testing"
	"time"

	"conexioncarga/internal/logging"
	"conexioncarga/internal/models"
	"conexioncarga/internal/repositories"
	"conexioncarga/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCargoService() (*services.CargoService, *repositories.MockCargoRepository, *fakeClock) {
	repo := repositories.NewMockCargoRepository()
	clock := newFakeClock()
	return services.NewCargoService(repo, clock.Now, logging.Discard()), repo, clock
}

func sampleInput(departure time.Time) services.CreateCargoInput {
	return services.CreateCargoInput{
		Origin:        "Bogotá",
		Destination:   "Medellín",
		CargoType:     "General",
		Weight:        1000,
		Value:         5000000,
		DepartureAt:   departure,
		DurationHours: 1,
	}
}

func TestCargoService_CreateAndDuplicate(t *testing.T) {
	svc, _, clock := newTestCargoService()
	ctx := context.Background()
	departure := clock.Now().Add(48 * time.Hour)

	first, err := svc.Create(ctx, "poster-1", sampleInput(departure))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, models.CargoStatusPublished, first.Status)
	assert.True(t, first.Active)
	assert.Equal(t, 1, first.DurationHours)
	assert.Equal(t, clock.Now(), first.CreatedAt)

	// same fields, different case and padding, departure within the same minute
	dup := sampleInput(departure.Add(30 * time.Second))
	dup.Origin = "  bogotá "
	dup.CargoType = "GENERAL"
	_, err = svc.Create(ctx, "poster-1", dup)
	assert.ErrorIs(t, err, services.ErrDuplicateListing)

	// another poster may publish the same load
	_, err = svc.Create(ctx, "poster-2", sampleInput(departure))
	assert.NoError(t, err)

	// a different weight is a different load
	other := sampleInput(departure)
	other.Weight = 1001
	_, err = svc.Create(ctx, "poster-1", other)
	assert.NoError(t, err)
}

func TestCargoService_CreateDefaultsDuration(t *testing.T) {
	svc, _, clock := newTestCargoService()

	in := sampleInput(clock.Now())
	in.DurationHours = 0
	cargo, err := svc.Create(context.Background(), "poster-1", in)
	require.NoError(t, err)
	assert.Equal(t, 24, cargo.DurationHours)
	assert.Equal(t, clock.Now().Add(24*time.Hour), cargo.ExpiresAt())
}

func TestCargoService_ExpireThenRecreate(t *testing.T) {
	svc, repo, clock := newTestCargoService()
	ctx := context.Background()
	departure := clock.Now().Add(24 * time.Hour)

	first, err := svc.Create(ctx, "poster-1", sampleInput(departure))
	require.NoError(t, err)

	_, err = svc.Expire(ctx, first.ID, "poster-2")
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = svc.Expire(ctx, "missing", "poster-1")
	assert.ErrorIs(t, err, services.ErrListingNotFound)

	clock.Advance(time.Minute)
	expired, err := svc.Expire(ctx, first.ID, "poster-1")
	require.NoError(t, err)
	assert.False(t, expired.Active)
	assert.Equal(t, models.CargoStatusPublished, expired.Status, "expire leaves the status untouched")
	assert.Equal(t, clock.Now(), expired.UpdatedAt)

	stored, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	// expiring twice is allowed
	_, err = svc.Expire(ctx, first.ID, "poster-1")
	assert.NoError(t, err)

	second, err := svc.Create(ctx, "poster-1", sampleInput(departure))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCargoService_CreateAfterWindowClosed(t *testing.T) {
	svc, _, clock := newTestCargoService()
	ctx := context.Background()
	departure := clock.Now().Add(24 * time.Hour)

	_, err := svc.Create(ctx, "poster-1", sampleInput(departure))
	require.NoError(t, err)

	// the old listing still carries active=true but its window has closed
	clock.Advance(61 * time.Minute)
	_, err = svc.Create(ctx, "poster-1", sampleInput(departure))
	assert.NoError(t, err)
}

func TestCargoService_ListPublicSweeps(t *testing.T) {
	svc, repo, clock := newTestCargoService()
	ctx := context.Background()

	cargo, err := svc.Create(ctx, "poster-1", sampleInput(clock.Now().Add(24*time.Hour)))
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	list, err := svc.ListPublic(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, cargo.ID, list[0].ID)

	clock.Advance(2 * time.Minute)
	list, err = svc.ListPublic(ctx, 0, 100)
	require.NoError(t, err)
	assert.Empty(t, list)

	stored, err := repo.GetByID(ctx, cargo.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active, "sweep must persist the inactive flag")
	assert.Equal(t, clock.Now(), stored.UpdatedAt)
	assert.Equal(t, models.CargoStatusPublished, stored.Status)
}

func TestCargoService_ListPublicNewestFirst(t *testing.T) {
	svc, _, clock := newTestCargoService()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		in := sampleInput(clock.Now().Add(24 * time.Hour))
		in.Weight = float64(100 * (i + 1))
		in.DurationHours = 24
		c, err := svc.Create(ctx, "poster-1", in)
		require.NoError(t, err)
		ids = append(ids, c.ID)
		clock.Advance(time.Minute)
	}

	list, err := svc.ListPublic(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)

	list, err = svc.ListPublic(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ids[0], list[0].ID)
}

func TestCargoService_ListMine(t *testing.T) {
	svc, _, clock := newTestCargoService()
	ctx := context.Background()

	long := sampleInput(clock.Now().Add(24 * time.Hour))
	long.DurationHours = 24
	live, err := svc.Create(ctx, "poster-1", long)
	require.NoError(t, err)

	short := sampleInput(clock.Now().Add(24 * time.Hour))
	short.Weight = 50
	stale, err := svc.Create(ctx, "poster-1", short)
	require.NoError(t, err)

	manual := sampleInput(clock.Now().Add(24 * time.Hour))
	manual.Weight = 75
	manual.DurationHours = 24
	expired, err := svc.Create(ctx, "poster-1", manual)
	require.NoError(t, err)
	_, err = svc.Expire(ctx, expired.ID, "poster-1")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "poster-2", long)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)

	all, err := svc.ListMine(ctx, "poster-1", "", 0, 100)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	published, err := svc.ListMine(ctx, "poster-1", services.FilterPublished, 0, 100)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, live.ID, published[0].ID)

	expiredList, err := svc.ListMine(ctx, "poster-1", services.FilterExpired, 0, 100)
	require.NoError(t, err)
	require.Len(t, expiredList, 2)
	assert.ElementsMatch(t, []string{stale.ID, expired.ID}, []string{expiredList[0].ID, expiredList[1].ID})

	paged, err := svc.ListMine(ctx, "poster-1", services.FilterExpired, 1, 1)
	require.NoError(t, err)
	assert.Len(t, paged, 1)

	_, err = svc.ListMine(ctx, "poster-1", "archived", 0, 100)
	assert.ErrorIs(t, err, services.ErrInvalidFilter)
}

func TestCargoService_Get(t *testing.T) {
	svc, _, clock := newTestCargoService()
	ctx := context.Background()

	cargo, err := svc.Create(ctx, "poster-1", sampleInput(clock.Now().Add(time.Hour)))
	require.NoError(t, err)

	got, err := svc.Get(ctx, cargo.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)

	clock.Advance(2 * time.Hour)
	got, err = svc.Get(ctx, cargo.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrListingNotFound)
}

func TestCargoService_Reactivate(t *testing.T) {
	svc, _, clock := newTestCargoService()
	ctx := context.Background()
	departure := clock.Now().Add(24 * time.Hour)

	first, err := svc.Create(ctx, "poster-1", sampleInput(departure))
	require.NoError(t, err)
	_, err = svc.Expire(ctx, first.ID, "poster-1")
	require.NoError(t, err)

	second, err := svc.Create(ctx, "poster-1", sampleInput(departure))
	require.NoError(t, err)

	// reactivating would duplicate the live listing
	_, err = svc.Reactivate(ctx, first.ID, "poster-1", models.CargoUpdate{})
	assert.ErrorIs(t, err, services.ErrDuplicateListing)

	_, err = svc.Reactivate(ctx, first.ID, "poster-2", models.CargoUpdate{})
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = svc.Reactivate(ctx, "missing", "poster-1", models.CargoUpdate{})
	assert.ErrorIs(t, err, services.ErrListingNotFound)

	_, err = svc.Expire(ctx, second.ID, "poster-1")
	require.NoError(t, err)

	clock.Advance(3 * time.Hour)
	hours := 48
	dest := "Cali"
	again, err := svc.Reactivate(ctx, first.ID, "poster-1", models.CargoUpdate{Destination: &dest, DurationHours: &hours})
	require.NoError(t, err)
	assert.True(t, again.Active)
	assert.Equal(t, "Cali", again.Destination)
	assert.Equal(t, 48, again.DurationHours)
	assert.Equal(t, clock.Now(), again.CreatedAt)
	assert.True(t, again.IsActiveAt(clock.Now().Add(47*time.Hour)))
}

func TestCargoService_CreateAfterReactivateConflicts(t *testing.T) {
	svc, _, clock := newTestCargoService()
	ctx := context.Background()
	departure := clock.Now().Add(24 * time.Hour)

	first, err := svc.Create(ctx, "poster-1", sampleInput(departure))
	require.NoError(t, err)

	// let the one-hour window lapse
	clock.Advance(61 * time.Minute)
	got, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	require.False(t, got.Active)

	revived, err := svc.Reactivate(ctx, first.ID, "poster-1", models.CargoUpdate{})
	require.NoError(t, err)
	assert.True(t, revived.IsActiveAt(clock.Now()))

	_, err = svc.Create(ctx, "poster-1", sampleInput(departure))
	assert.ErrorIs(t, err, services.ErrDuplicateListing)
}

func TestCargoService_WeightRoundedBeforeDuplicateCheck(t *testing.T) {
	svc, repo, clock := newTestCargoService()
	ctx := context.Background()
	departure := clock.Now().Add(24 * time.Hour)

	in := sampleInput(departure)
	in.Weight = 12.3456
	first, err := svc.Create(ctx, "poster-1", in)
	require.NoError(t, err)
	assert.Equal(t, 12.35, first.Weight)

	stored, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.35, stored.Weight)

	// same submission again, and the value it was stored as
	_, err = svc.Create(ctx, "poster-1", in)
	assert.ErrorIs(t, err, services.ErrDuplicateListing)
	in.Weight = 12.35
	_, err = svc.Create(ctx, "poster-1", in)
	assert.ErrorIs(t, err, services.ErrDuplicateListing)

	_, err = svc.Expire(ctx, first.ID, "poster-1")
	require.NoError(t, err)
	weight := 7.891
	revived, err := svc.Reactivate(ctx, first.ID, "poster-1", models.CargoUpdate{Weight: &weight})
	require.NoError(t, err)
	assert.Equal(t, 7.89, revived.Weight)
}

func TestDurationPolicy_Hours(t *testing.T) {
	p := services.DefaultDurationPolicy
	ptr := func(v int) *int { return &v }

	tests := []struct {
		name     string
		in       *int
		expected int
	}{
		{"absent", nil, 24},
		{"zero", ptr(0), 24},
		{"negative", ptr(-5), 1},
		{"in range", ptr(72), 72},
		{"minimum", ptr(1), 1},
		{"too long", ptr(500), 168},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.Hours(tt.in))
		})
	}
}
