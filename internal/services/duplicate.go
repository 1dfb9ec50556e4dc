package services

import (
	"strings"
	"time"

	"conexioncarga/internal/models"
)

// duplicateKey is the normalized tuple two listings of the same poster are compared on.
type duplicateKey struct {
	origin      string
	destination string
	cargoType   string
	weight      float64
	value       int64
	departure   time.Time
	arrival     *time.Time
}

func newDuplicateKey(c *models.Cargo) duplicateKey {
	k := duplicateKey{
		origin:      normalizeText(c.Origin),
		destination: normalizeText(c.Destination),
		cargoType:   normalizeText(c.CargoType),
		weight:      c.Weight,
		value:       c.Value,
		departure:   truncateMinute(c.DepartureAt),
	}
	if c.ArrivalAt != nil {
		a := truncateMinute(*c.ArrivalAt)
		k.arrival = &a
	}
	return k
}

func (k duplicateKey) matches(o duplicateKey) bool {
	if k.origin != o.origin || k.destination != o.destination || k.cargoType != o.cargoType {
		return false
	}
	if k.weight != o.weight || k.value != o.value {
		return false
	}
	if !k.departure.Equal(o.departure) {
		return false
	}
	if k.arrival == nil || o.arrival == nil {
		return k.arrival == nil && o.arrival == nil
	}
	return k.arrival.Equal(*o.arrival)
}

// findDuplicate returns the first candidate that is logically active at now and
// matches c, skipping c itself.
func findDuplicate(c *models.Cargo, candidates []models.Cargo, now time.Time) *models.Cargo {
	key := newDuplicateKey(c)
	for i := range candidates {
		other := &candidates[i]
		if other.ID == c.ID || other.PosterID != c.PosterID {
			continue
		}
		if !other.IsActiveAt(now) {
			continue
		}
		if key.matches(newDuplicateKey(other)) {
			return other
		}
	}
	return nil
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func truncateMinute(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}
