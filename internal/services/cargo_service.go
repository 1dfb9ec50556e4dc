package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"conexioncarga/internal/models"
	"conexioncarga/internal/repositories"

	"github.com/sirupsen/logrus"
)

// Filters accepted by ListMine.
const (
	FilterAll       = "all"
	FilterPublished = "published"
	FilterExpired   = "expired"
)

// DurationPolicy bounds the publication window requested by a poster, in hours.
type DurationPolicy struct {
	Default int
	Min     int
	Max     int
}

// DefaultDurationPolicy is 24 hours, clamped to one week.
var DefaultDurationPolicy = DurationPolicy{Default: 24, Min: 1, Max: 168}

// Hours resolves a requested duration: absent or zero means the default,
// anything else is clamped to [Min, Max].
func (p DurationPolicy) Hours(requested *int) int {
	if requested == nil || *requested == 0 {
		return p.Default
	}
	h := *requested
	if h < p.Min {
		return p.Min
	}
	if h > p.Max {
		return p.Max
	}
	return h
}

// CreateCargoInput holds the poster-supplied fields of a new listing.
type CreateCargoInput struct {
	CompanyID     *string
	Origin        string
	Destination   string
	CargoType     string
	Weight        float64
	Value         int64
	Commercial    *string
	Contact       *string
	Observations  *string
	Driver        *string
	VehicleType   *string
	DepartureAt   time.Time
	ArrivalAt     *time.Time
	PremiumTrip   bool
	DurationHours int
}

// CargoService owns creation, duplicate rejection and time-based expiration of listings.
type CargoService struct {
	repo    repositories.CargoRepository
	now     Clock
	logger  *logrus.Logger
	posters keyedMutex
}

// NewCargoService creates a new CargoService.
func NewCargoService(repo repositories.CargoRepository, now Clock, logger *logrus.Logger) *CargoService {
	if now == nil {
		now = SystemClock
	}
	return &CargoService{
		repo:   repo,
		now:    now,
		logger: logger,
	}
}

// Create publishes a new listing unless the poster already has an active identical one.
func (s *CargoService) Create(ctx context.Context, posterID string, in CreateCargoInput) (*models.Cargo, error) {
	now := s.now()
	duration := in.DurationHours
	if duration <= 0 {
		duration = DefaultDurationPolicy.Default
	}

	cargo := &models.Cargo{
		PosterID:      posterID,
		CompanyID:     in.CompanyID,
		Origin:        in.Origin,
		Destination:   in.Destination,
		CargoType:     in.CargoType,
		Weight:        models.RoundWeight(in.Weight),
		Value:         in.Value,
		Commercial:    in.Commercial,
		Contact:       in.Contact,
		Observations:  in.Observations,
		Driver:        in.Driver,
		VehicleType:   in.VehicleType,
		DepartureAt:   in.DepartureAt.UTC(),
		ArrivalAt:     utcPtr(in.ArrivalAt),
		Status:        models.CargoStatusPublished,
		Active:        true,
		PremiumTrip:   in.PremiumTrip,
		DurationHours: duration,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	unlock := s.posters.Lock(posterID)
	defer unlock()

	err := s.repo.WithinTx(ctx, func(repo repositories.CargoRepository) error {
		if err := s.rejectDuplicate(ctx, repo, cargo, now); err != nil {
			return err
		}
		return repo.Create(ctx, cargo)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateListing) {
			s.logger.WithFields(logrus.Fields{"poster_id": posterID}).Info("duplicate listing rejected")
			return nil, err
		}
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"cargo_id":       cargo.ID,
		"poster_id":      posterID,
		"duration_hours": cargo.DurationHours,
	}).Info("listing published")
	return cargo, nil
}

// ListPublic returns a page of published listings, newest first, with every
// listing whose window has closed marked inactive and left out.
func (s *CargoService) ListPublic(ctx context.Context, offset, limit int) ([]models.Cargo, error) {
	cargos, err := s.repo.ListPublished(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list public listings: %w", err)
	}
	if err := s.sweep(ctx, cargos, s.now()); err != nil {
		return nil, err
	}

	visible := make([]models.Cargo, 0, len(cargos))
	for _, c := range cargos {
		if c.Active {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// ListMine returns the poster's listings filtered by state and paginated after filtering.
func (s *CargoService) ListMine(ctx context.Context, posterID, filter string, offset, limit int) ([]models.Cargo, error) {
	if filter == "" {
		filter = FilterAll
	}
	if filter != FilterAll && filter != FilterPublished && filter != FilterExpired {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, filter)
	}

	cargos, err := s.repo.ListByPoster(ctx, posterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings of poster %s: %w", posterID, err)
	}
	if err := s.sweep(ctx, cargos, s.now()); err != nil {
		return nil, err
	}

	filtered := make([]models.Cargo, 0, len(cargos))
	for _, c := range cargos {
		switch {
		case filter == FilterPublished && !c.Active:
		case filter == FilterExpired && c.Active:
		default:
			filtered = append(filtered, c)
		}
	}
	return page(filtered, offset, limit), nil
}

// Get returns a single listing, sweeping it if its window has closed.
func (s *CargoService) Get(ctx context.Context, id string) (*models.Cargo, error) {
	cargo, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	single := []models.Cargo{*cargo}
	if err := s.sweep(ctx, single, s.now()); err != nil {
		return nil, err
	}
	return &single[0], nil
}

// Expire deactivates a listing on request of its owner. The status is left as is.
func (s *CargoService) Expire(ctx context.Context, id, requesterID string) (*models.Cargo, error) {
	cargo, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if cargo.PosterID != requesterID {
		return nil, ErrForbidden
	}

	cargo.Active = false
	cargo.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, cargo); err != nil {
		return nil, fmt.Errorf("failed to expire listing %s: %w", id, err)
	}

	s.logger.WithFields(logrus.Fields{"cargo_id": id, "poster_id": requesterID}).Info("listing expired by owner")
	return cargo, nil
}

// Reactivate republishes a listing with a fresh window, applying any provided field updates.
// It fails with ErrDuplicateListing if that would leave two identical active listings.
func (s *CargoService) Reactivate(ctx context.Context, id, requesterID string, upd models.CargoUpdate) (*models.Cargo, error) {
	unlock := s.posters.Lock(requesterID)
	defer unlock()

	var cargo *models.Cargo
	err := s.repo.WithinTx(ctx, func(repo repositories.CargoRepository) error {
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrListingNotFound
			}
			return err
		}
		if current.PosterID != requesterID {
			return ErrForbidden
		}

		now := s.now()
		applyCargoUpdate(current, upd)
		current.Active = true
		current.CreatedAt = now
		current.UpdatedAt = now

		if err := s.rejectDuplicate(ctx, repo, current, now); err != nil {
			return err
		}
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		cargo = current
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrListingNotFound) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrDuplicateListing) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to reactivate listing %s: %w", id, err)
	}

	s.logger.WithFields(logrus.Fields{
		"cargo_id":       id,
		"poster_id":      requesterID,
		"duration_hours": cargo.DurationHours,
	}).Info("listing republished")
	return cargo, nil
}

func (s *CargoService) find(ctx context.Context, id string) (*models.Cargo, error) {
	cargo, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get listing %s: %w", id, err)
	}
	return cargo, nil
}

func (s *CargoService) rejectDuplicate(ctx context.Context, repo repositories.CargoRepository, cargo *models.Cargo, now time.Time) error {
	candidates, err := repo.FindActiveByPoster(ctx, cargo.PosterID, cargo.Weight, cargo.Value)
	if err != nil {
		return err
	}
	if dup := findDuplicate(cargo, candidates, now); dup != nil {
		return fmt.Errorf("%w (listing %s)", ErrDuplicateListing, dup.ID)
	}
	return nil
}

// sweep flips to inactive, in place and in the store, every listing whose window closed.
func (s *CargoService) sweep(ctx context.Context, cargos []models.Cargo, now time.Time) error {
	var stale []string
	for i := range cargos {
		if cargos[i].Active && !cargos[i].IsActiveAt(now) {
			cargos[i].Active = false
			cargos[i].UpdatedAt = now
			stale = append(stale, cargos[i].ID)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if err := s.repo.Deactivate(ctx, stale, now); err != nil {
		return fmt.Errorf("failed to persist expired listings: %w", err)
	}
	s.logger.WithField("count", len(stale)).Debug("expired listings swept")
	return nil
}

func applyCargoUpdate(c *models.Cargo, upd models.CargoUpdate) {
	if upd.CompanyID != nil {
		c.CompanyID = upd.CompanyID
	}
	if upd.Origin != nil {
		c.Origin = *upd.Origin
	}
	if upd.Destination != nil {
		c.Destination = *upd.Destination
	}
	if upd.CargoType != nil {
		c.CargoType = *upd.CargoType
	}
	if upd.Weight != nil {
		c.Weight = models.RoundWeight(*upd.Weight)
	}
	if upd.Value != nil {
		c.Value = *upd.Value
	}
	if upd.Commercial != nil {
		c.Commercial = upd.Commercial
	}
	if upd.Contact != nil {
		c.Contact = upd.Contact
	}
	if upd.Observations != nil {
		c.Observations = upd.Observations
	}
	if upd.Driver != nil {
		c.Driver = upd.Driver
	}
	if upd.VehicleType != nil {
		c.VehicleType = upd.VehicleType
	}
	if upd.DepartureAt != nil {
		c.DepartureAt = upd.DepartureAt.UTC()
	}
	if upd.ArrivalAt != nil {
		c.ArrivalAt = utcPtr(upd.ArrivalAt)
	}
	if upd.PremiumTrip != nil {
		c.PremiumTrip = *upd.PremiumTrip
	}
	if upd.DurationHours != nil && *upd.DurationHours > 0 {
		c.DurationHours = *upd.DurationHours
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func page(cargos []models.Cargo, offset, limit int) []models.Cargo {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(cargos) {
		return []models.Cargo{}
	}
	end := len(cargos)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return cargos[offset:end]
}
