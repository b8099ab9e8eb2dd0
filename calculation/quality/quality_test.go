package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tripledger/internal/models"
)

// line returns n pings evenly spaced along the equator, stepDeg apart
func line(n int, stepDeg float64) []models.Position {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Position, n)
	for i := range out {
		out[i] = models.Position{Latitude: 0, Longitude: float64(i) * stepDeg, Timestamp: t0.Add(time.Duration(i) * time.Minute)}
	}
	return out
}

func TestConfidenceScore(t *testing.T) {
	tests := []struct {
		name     string
		pings    []models.Position
		distance float64
		want     float64
	}{
		{"empty", nil, 0, 0.0},
		{"ten pings over 100 km", line(10, 0.1), 100, 1.0},
		{"sparse", line(4, 0.1), 30, 0.9},
		{"large gaps", line(6, 10), 6000, 0.7},
		{"sparse and large gaps", line(2, 10), 1200, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ConfidenceScore(tt.pings, tt.distance), 1e-9)
		})
	}
}

func TestConfidenceScore_AlwaysInUnitRange(t *testing.T) {
	for n := 0; n < 12; n++ {
		for _, d := range []float64{0, 1, 499 * float64(n), 1e7} {
			s := ConfidenceScore(line(n, 1), d)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}

func TestAnomalyFlags_Idle(t *testing.T) {
	pings := line(5, 0.0005)
	flags := AnomalyFlags(pings, 0.4, "Light-Duty Van")
	assert.Contains(t, flags, models.FlagExcessiveIdleTime)
}

func TestAnomalyFlags_IdleNeedsThreePings(t *testing.T) {
	flags := AnomalyFlags(line(2, 0), 0, "Light-Duty Van")
	assert.NotContains(t, flags, models.FlagExcessiveIdleTime)
}

func TestAnomalyFlags_RouteDeviation(t *testing.T) {
	t0 := time.Now().UTC()
	// out and back: long path, almost no displacement
	pings := []models.Position{
		{Latitude: 0, Longitude: 0, Timestamp: t0},
		{Latitude: 0, Longitude: 1, Timestamp: t0.Add(time.Hour)},
		{Latitude: 0, Longitude: 0.01, Timestamp: t0.Add(2 * time.Hour)},
	}
	flags := AnomalyFlags(pings, 221.3, "Heavy-Duty Truck")
	assert.Equal(t, []models.Flag{models.FlagRouteDeviation}, flags)
}

func TestAnomalyFlags_BothFire(t *testing.T) {
	t0 := time.Now().UTC()
	pings := []models.Position{
		{Latitude: 10, Longitude: 10, Timestamp: t0},
		{Latitude: 10, Longitude: 10.001, Timestamp: t0.Add(time.Minute)},
		{Latitude: 10, Longitude: 10, Timestamp: t0.Add(2 * time.Minute)},
	}
	flags := AnomalyFlags(pings, 0.2, "")
	assert.Equal(t, []models.Flag{models.FlagExcessiveIdleTime, models.FlagRouteDeviation}, flags)
}

func TestAnomalyFlags_StraightTripIsClean(t *testing.T) {
	pings := line(10, 0.1)
	assert.Empty(t, AnomalyFlags(pings, 100.07, "Medium-Duty Truck"))
}
