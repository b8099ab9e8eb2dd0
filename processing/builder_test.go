package processing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"regexp"
	"sync"
	"testing"
	"time"

	"tripledger/calculation/geo"
	"tripledger/config"
	"tripledger/internal/models"
	"tripledger/ledger/integrity"
	"tripledger/ledger/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestBuilder(opts Options) (*Builder, *store.MemoryStore) {
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return fixedNow }
	}
	s := store.NewMemoryStore()
	return NewBuilder(s, config.DefaultEmissionFactors(), opts, quietLogger()), s
}

func ping(lat, lon float64, minute int) models.Position {
	return models.Position{Latitude: lat, Longitude: lon, Timestamp: fixedNow.Add(time.Duration(minute) * time.Minute)}
}

func threePingTrip() models.Trip {
	return models.Trip{
		TripID:         "TRIP-001",
		SupplierID:     "SUP-001",
		SupplierName:   "Green Haulage",
		VehicleID:      "VH-1",
		VehicleType:    "Medium-Duty Truck",
		EmissionFactor: 0.65,
		Pings:          []models.Position{ping(0, 0, 0), ping(0, 1, 30), ping(1, 1, 60)},
	}
}

func defaults() (models.EmissionFactorTable, models.EmissionFactorMetadata) {
	f := config.DefaultEmissionFactors()
	return f.Factors, f.Metadata
}

func TestProcess_EndToEndThreePings(t *testing.T) {
	b, s := newTestBuilder(Options{})
	table, meta := defaults()
	trip := threePingTrip()

	res, err := b.Process(context.Background(), []models.Trip{trip}, table, meta)
	require.NoError(t, err)
	require.Contains(t, res.AuditRecords, "TRIP-001")

	rawDistance := geo.DistanceKm(trip.Pings[0], trip.Pings[1]) + geo.DistanceKm(trip.Pings[1], trip.Pings[2])
	rec := res.AuditRecords["TRIP-001"]
	assert.Equal(t, round(rawDistance, 2), rec.TotalDistanceKm)
	assert.InDelta(t, 222.39, rec.TotalDistanceKm, 1e-9)
	assert.Equal(t, round(rawDistance*0.65, 2), rec.TotalEmissionsKgCO2e)
	assert.InDelta(t, 144.55, rec.TotalEmissionsKgCO2e, 1e-9)
	assert.Equal(t, 0.9, rec.ConfidenceScore, "fewer than 5 pings")
	assert.Empty(t, rec.Flags)
	require.Len(t, rec.Recommendations, 1)
	assert.Equal(t, models.RecommendElectrification, rec.Recommendations[0].Type)
	assert.Equal(t, models.StateSealed, rec.State)
	assert.Equal(t, fixedNow, rec.CalculatedAt)
	assert.Equal(t, "SUP-001", rec.SupplierID)
	assert.Equal(t, meta, rec.EmissionFactorSource)
	assert.Equal(t, integrity.SchemeFlat, rec.RootScheme)
	require.Len(t, rec.Segments, 2)
	assert.Equal(t, round(geo.DistanceKm(trip.Pings[0], trip.Pings[1]), 4), rec.Segments[0].DistanceKm)
	assert.Regexp(t, regexp.MustCompile(`^AUD-TRIP-001-20240301-[0-9A-F]{8}$`), rec.AuditID)

	rendered, err := b.VerifyAndRender("TRIP-001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, rendered.IntegrityStatus)
	assert.Empty(t, rendered.TamperEvidence)
	assert.Empty(t, b.ListViolations())

	// Overwrite the total directly in the store, leaving the hashes alone
	require.NoError(t, s.Update("TRIP-001", func(r *models.AuditRecord) { r.TotalEmissionsKgCO2e = 1.0 }))

	rendered, err = b.VerifyAndRender("TRIP-001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompromised, rendered.IntegrityStatus)
	require.Len(t, rendered.TamperEvidence, 1)
	v := rendered.TamperEvidence[0]
	assert.Equal(t, integrity.FieldTotalEmissions, v.Field)
	assert.Equal(t, models.SeverityCritical, v.Severity)
	assert.Equal(t, rec.AuditID, v.AuditID)

	for i := 0; i < 3; i++ {
		_, err = b.VerifyAndRender("TRIP-001")
		require.NoError(t, err)
	}
	assert.Len(t, b.ListViolations(), 1, "repeated reads append no duplicates")
}

func TestProcess_ResolvesFactorFromTable(t *testing.T) {
	b, _ := newTestBuilder(Options{})
	table, meta := defaults()
	trip := threePingTrip()
	trip.EmissionFactor = 0
	trip.VehicleType = "Cargo Plane"

	res, err := b.Process(context.Background(), []models.Trip{trip}, table, meta)
	require.NoError(t, err)
	rec := res.AuditRecords[trip.TripID]
	assert.Equal(t, 2.5, rec.EmissionFactor)
	assert.Equal(t, models.RecommendModeShift, rec.Recommendations[0].Type)

	trip.VehicleType = "Hovercraft"
	res, err = b.Process(context.Background(), []models.Trip{trip}, table, meta)
	require.NoError(t, err)
	assert.Equal(t, 0.8, res.AuditRecords[trip.TripID].EmissionFactor, "unknown types use the default entry")
}

func TestProcess_EmptyPings(t *testing.T) {
	b, _ := newTestBuilder(Options{})
	table, meta := defaults()
	trip := models.Trip{TripID: "EMPTY", VehicleID: "V", VehicleType: "Light-Duty Van"}

	res, err := b.Process(context.Background(), []models.Trip{trip}, table, meta)
	require.NoError(t, err)
	rec := res.AuditRecords["EMPTY"]
	assert.Zero(t, rec.TotalDistanceKm)
	assert.Zero(t, rec.ConfidenceScore)
	assert.Empty(t, rec.Segments)
	assert.NotNil(t, rec.Flags)
	assert.Len(t, rec.Recommendations, 1)

	rendered, err := b.VerifyAndRender("EMPTY")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, rendered.IntegrityStatus)
}

func TestProcess_InvalidInputKeepsPreviousRun(t *testing.T) {
	b, _ := newTestBuilder(Options{})
	table, meta := defaults()
	_, err := b.Process(context.Background(), []models.Trip{threePingTrip()}, table, meta)
	require.NoError(t, err)
	before, err := b.VerifyAndRender("TRIP-001")
	require.NoError(t, err)

	bad := threePingTrip()
	bad.TripID = "BAD"
	bad.Pings[1].Latitude = math.NaN()
	_, err = b.Process(context.Background(), []models.Trip{threePingTrip(), bad}, table, meta)
	assert.ErrorIs(t, err, ErrInvalidInput)

	after, err := b.VerifyAndRender("TRIP-001")
	require.NoError(t, err)
	assert.Equal(t, before.AuditID, after.AuditID, "failed run must not replace records")
	assert.Equal(t, []string{"TRIP-001"}, b.TripIDs())
}

func TestProcess_CancelledContext(t *testing.T) {
	b, _ := newTestBuilder(Options{Concurrency: 2})
	table, meta := defaults()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Process(ctx, []models.Trip{threePingTrip()}, table, meta)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, b.TripIDs())
}

func TestProcess_ParallelRunIsComplete(t *testing.T) {
	b, _ := newTestBuilder(Options{Concurrency: 8, RootScheme: integrity.SchemeBinary})
	table, meta := defaults()

	trips := make([]models.Trip, 50)
	for i := range trips {
		trip := threePingTrip()
		trip.TripID = fmt.Sprintf("TRIP-%03d", i)
		trip.SupplierID = fmt.Sprintf("SUP-%d", i%3)
		trips[i] = trip
	}

	res, err := b.Process(context.Background(), trips, table, meta)
	require.NoError(t, err)
	assert.Len(t, res.AuditRecords, 50)
	assert.Len(t, res.SupplierTotals, 3)
	assert.Equal(t, 17, res.SupplierTotals["SUP-0"].TripCount)

	// Supplier emissions add up the published trip totals in input order
	want := 0.0
	for _, trip := range trips {
		if trip.SupplierID == "SUP-0" {
			want += res.AuditRecords[trip.TripID].TotalEmissionsKgCO2e
		}
	}
	assert.Equal(t, want, res.SupplierTotals["SUP-0"].TotalEmissionsKgCO2e)

	auditIDs := make(map[string]struct{})
	for _, id := range b.TripIDs() {
		rendered, err := b.VerifyAndRender(id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusVerified, rendered.IntegrityStatus)
		assert.Equal(t, integrity.SchemeBinary, rendered.RootScheme)
		auditIDs[rendered.AuditID] = struct{}{}
	}
	assert.Len(t, auditIDs, 50)
}

func TestVerifyAndRender_NotFound(t *testing.T) {
	b, _ := newTestBuilder(Options{})
	_, err := b.VerifyAndRender("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyAndRender_ConcurrentReadsLogOnce(t *testing.T) {
	b, s := newTestBuilder(Options{})
	table, meta := defaults()
	_, err := b.Process(context.Background(), []models.Trip{threePingTrip()}, table, meta)
	require.NoError(t, err)
	require.NoError(t, s.Update("TRIP-001", func(r *models.AuditRecord) {
		r.TotalDistanceKm = 1
		r.ConfidenceScore = 0.1
	}))

	var mu sync.Mutex
	var forwarded []models.ViolationRecord
	b.SetViolationHandler(func(v models.ViolationRecord) {
		mu.Lock()
		forwarded = append(forwarded, v)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = b.VerifyAndRender("TRIP-001")
		}()
	}
	wg.Wait()

	assert.Len(t, b.ListViolations(), 2)
	assert.Len(t, forwarded, 2, "handler sees each new violation once")
	report := b.IntegrityEvents()
	assert.Equal(t, SystemCompromised, report.IntegrityStatus)
	assert.Equal(t, 2, report.EventCount)
}

func TestTamper(t *testing.T) {
	table, meta := defaults()

	t.Run("disabled", func(t *testing.T) {
		b, _ := newTestBuilder(Options{})
		assert.ErrorIs(t, b.Tamper("TRIP-001", integrity.FieldTotalEmissions, "1"), ErrSimulationDisabled)
	})

	b, _ := newTestBuilder(Options{SimulationEnabled: true})
	_, err := b.Process(context.Background(), []models.Trip{threePingTrip()}, table, meta)
	require.NoError(t, err)

	tests := []struct {
		name    string
		trip    string
		field   string
		value   string
		wantErr error
	}{
		{"unprotected field", "TRIP-001", "segments", "1", ErrUnknownField},
		{"salt field", "TRIP-001", "audit_id", "x", ErrUnknownField},
		{"not a number", "TRIP-001", integrity.FieldConfidence, "high", ErrInvalidInput},
		{"NaN", "TRIP-001", integrity.FieldTotalEmissions, "NaN", ErrInvalidInput},
		{"infinite", "TRIP-001", integrity.FieldTotalDistance, "+Inf", ErrInvalidInput},
		{"unknown trip", "TRIP-404", integrity.FieldConfidence, "0.5", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(b.Tamper(tt.trip, tt.field, tt.value), tt.wantErr))
		})
	}

	require.NoError(t, b.Tamper("TRIP-001", integrity.FieldVehicleID, "VH-EVIL"))
	rendered, err := b.VerifyAndRender("TRIP-001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompromised, rendered.IntegrityStatus)
	require.Len(t, rendered.TamperEvidence, 1)
	assert.Equal(t, integrity.FieldVehicleID, rendered.TamperEvidence[0].Field)
	assert.Equal(t, "VH-EVIL", rendered.VehicleID)
}
