package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripledger/calculation/geo"
	"tripledger/internal/models"
)

func TestCompute(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	a := models.Position{Latitude: 0, Longitude: 0, Timestamp: t0}
	b := models.Position{Latitude: 0, Longitude: 1, Timestamp: t0.Add(time.Hour)}

	seg := Compute(a, b, 0.65)
	assert.Equal(t, t0, seg.FromTimestamp)
	assert.Equal(t, t0.Add(time.Hour), seg.ToTimestamp)
	assert.InDelta(t, geo.DistanceKm(a, b), seg.DistanceKm, 1e-12)
	assert.InDelta(t, seg.DistanceKm*0.65, seg.EmissionsKgCO2e, 1e-12)
}

func TestCompute_ZeroFactorZeroesEmissions(t *testing.T) {
	seg := Compute(models.Position{}, models.Position{Latitude: 1}, 0)
	assert.Greater(t, seg.DistanceKm, 0.0)
	assert.Equal(t, 0.0, seg.EmissionsKgCO2e)
}

func TestAccumulate(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	pings := []models.Position{
		{Latitude: 0, Longitude: 0, Timestamp: t0},
		{Latitude: 0, Longitude: 1, Timestamp: t0.Add(time.Hour)},
		{Latitude: 1, Longitude: 1, Timestamp: t0.Add(2 * time.Hour)},
	}

	totals := Accumulate(pings, 1.2)
	require.Len(t, totals.Segments, 2)

	var dist float64
	for _, s := range totals.Segments {
		dist += s.DistanceKm
	}
	assert.InDelta(t, dist, totals.DistanceKm, 1e-9)
	assert.InDelta(t, dist*1.2, totals.EmissionsKgCO2e, 1e-9)
}

func TestAccumulate_TooFewPings(t *testing.T) {
	assert.Empty(t, Accumulate(nil, 1).Segments)
	one := Accumulate([]models.Position{{Latitude: 10}}, 1)
	assert.Empty(t, one.Segments)
	assert.Equal(t, 0.0, one.DistanceKm)
}
