// Package quality scores telemetry completeness and flags anomalous trips.
//
// Thresholds are fixed so historical scores stay reproducible.
package quality

import (
	"tripledger/calculation/geo"
	"tripledger/internal/models"
)

const (
	sparsePingCount     = 5
	sparsePenalty       = 0.1
	maxAvgGapKm         = 500.0
	gapPenalty          = 0.3
	idleMinPings        = 3
	idleMaxDistanceKm   = 1.0
	routeDeviationRatio = 1.5
)

// ConfidenceScore returns a heuristic [0,1] rating for a trip's pings.
// An empty ping sequence scores 0.
func ConfidenceScore(pings []models.Position, totalDistance float64) float64 {
	if len(pings) == 0 {
		return 0.0
	}
	score := 1.0
	if len(pings) < sparsePingCount {
		score -= sparsePenalty
	}
	if totalDistance/float64(len(pings)) > maxAvgGapKm {
		score -= gapPenalty
	}
	return clamp(score)
}

// AnomalyFlags returns the anomaly tags for a trip, idle before deviation.
// vehicleType is reserved for per-vehicle thresholds and is unused today.
func AnomalyFlags(pings []models.Position, totalDistance float64, vehicleType string) []models.Flag {
	flags := []models.Flag{}

	if len(pings) >= idleMinPings && totalDistance < idleMaxDistanceKm {
		flags = append(flags, models.FlagExcessiveIdleTime)
	}

	if len(pings) >= 2 {
		displacement := geo.DistanceKm(pings[0], pings[len(pings)-1])
		if totalDistance > displacement*routeDeviationRatio {
			flags = append(flags, models.FlagRouteDeviation)
		}
	}
	return flags
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
