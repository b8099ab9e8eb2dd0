// Package recommend maps a vehicle type and emissions total to mitigation suggestions.
package recommend

import (
	"strings"

	"tripledger/internal/models"
)

// HeavyEmissionsThresholdKg is the trip total above which heavy vehicles get a route suggestion
const HeavyEmissionsThresholdKg = 100.0

var (
	airIndicators   = []string{"Air", "Plane"}
	heavyIndicators = []string{"Heavy"}
)

var (
	modeShift = models.Recommendation{
		Type:                  models.RecommendModeShift,
		PotentialReductionPct: 90,
		Rationale:             "Switching from Air to Ocean freight significantly reduces carbon intensity.",
	}
	routeOptimization = models.Recommendation{
		Type:                  models.RecommendRouteOptimization,
		PotentialReductionPct: 12,
		Rationale:             "Historical lower-emission route exists.",
	}
	electrification = models.Recommendation{
		Type:                  models.RecommendElectrification,
		PotentialReductionPct: 40,
		Rationale:             "Transitioning to EV trucks for this route segment.",
	}
)

// For returns the recommendations for a trip. Rules stack; the result is never empty.
func For(vehicleType string, totalEmissions float64) []models.Recommendation {
	var out []models.Recommendation

	if containsAny(vehicleType, airIndicators) {
		out = append(out, modeShift)
	}
	if containsAny(vehicleType, heavyIndicators) && totalEmissions > HeavyEmissionsThresholdKg {
		out = append(out, routeOptimization)
	}
	if len(out) == 0 {
		out = append(out, electrification)
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
