// Package segment turns consecutive ping pairs into distance and emissions.
package segment

import (
	"tripledger/calculation/geo"
	"tripledger/internal/models"
)

// Totals is the unrounded accumulation over a trip's segments
type Totals struct {
	Segments        []models.Segment
	DistanceKm      float64
	EmissionsKgCO2e float64
}

// Compute returns the segment from a to b for the given emission factor.
// A zero factor yields zero emissions; negative factors are not rejected here.
func Compute(a, b models.Position, factor float64) models.Segment {
	distance := geo.DistanceKm(a, b)
	return models.Segment{
		FromTimestamp:   a.Timestamp,
		ToTimestamp:     b.Timestamp,
		DistanceKm:      distance,
		EmissionsKgCO2e: distance * factor,
	}
}

// Accumulate walks pings in order and sums every consecutive pair.
// Pings must already be in chronological order.
func Accumulate(pings []models.Position, factor float64) Totals {
	var t Totals
	if len(pings) < 2 {
		return t
	}
	t.Segments = make([]models.Segment, 0, len(pings)-1)
	for i := 0; i < len(pings)-1; i++ {
		seg := Compute(pings[i], pings[i+1], factor)
		t.DistanceKm += seg.DistanceKm
		t.EmissionsKgCO2e += seg.EmissionsKgCO2e
		t.Segments = append(t.Segments, seg)
	}
	return t
}
