package processing

import (
	"fmt"
	"math"

	"tripledger/internal/models"
)

// ValidateTrip rejects trip data that must not reach segment computation.
// Pings must already be in chronological order; equal timestamps are allowed.
func ValidateTrip(t models.Trip) error {
	if t.TripID == "" {
		return fmt.Errorf("%w: trip_id is required", ErrInvalidInput)
	}
	if math.IsNaN(t.EmissionFactor) || math.IsInf(t.EmissionFactor, 0) || t.EmissionFactor < 0 {
		return fmt.Errorf("%w: trip %s: emission factor %v must be positive or unset", ErrInvalidInput, t.TripID, t.EmissionFactor)
	}
	for i, p := range t.Pings {
		if !finite(p.Latitude) || !finite(p.Longitude) {
			return fmt.Errorf("%w: trip %s: ping %d has a missing coordinate", ErrInvalidInput, t.TripID, i)
		}
		if p.Latitude < -90 || p.Latitude > 90 {
			return fmt.Errorf("%w: trip %s: ping %d latitude %v out of range", ErrInvalidInput, t.TripID, i, p.Latitude)
		}
		if p.Longitude < -180 || p.Longitude > 180 {
			return fmt.Errorf("%w: trip %s: ping %d longitude %v out of range", ErrInvalidInput, t.TripID, i, p.Longitude)
		}
		if p.Timestamp.IsZero() {
			return fmt.Errorf("%w: trip %s: ping %d has no timestamp", ErrInvalidInput, t.TripID, i)
		}
		if i > 0 && p.Timestamp.Before(t.Pings[i-1].Timestamp) {
			return fmt.Errorf("%w: trip %s: ping %d is not in chronological order", ErrInvalidInput, t.TripID, i)
		}
	}
	return nil
}

// ValidateTrips validates every trip and rejects duplicate trip IDs
func ValidateTrips(trips []models.Trip) error {
	seen := make(map[string]struct{}, len(trips))
	for _, t := range trips {
		if err := ValidateTrip(t); err != nil {
			return err
		}
		if _, dup := seen[t.TripID]; dup {
			return fmt.Errorf("%w: duplicate trip_id %s", ErrInvalidInput, t.TripID)
		}
		seen[t.TripID] = struct{}{}
	}
	return nil
}

// InvalidTrips returns the validation failure of every bad trip, keyed by
// trip ID. A repeated trip ID is reported on its second occurrence.
func InvalidTrips(trips []models.Trip) map[string]error {
	bad := make(map[string]error)
	seen := make(map[string]struct{}, len(trips))
	for _, t := range trips {
		if err := ValidateTrip(t); err != nil {
			bad[t.TripID] = err
			continue
		}
		if _, dup := seen[t.TripID]; dup {
			bad[t.TripID] = fmt.Errorf("%w: duplicate trip_id %s", ErrInvalidInput, t.TripID)
		}
		seen[t.TripID] = struct{}{}
	}
	return bad
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
