package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripledger/internal/models"
)

func record(tripID string) *models.AuditRecord {
	return &models.AuditRecord{
		AuditID:     "AUD-" + tripID,
		TripID:      tripID,
		VehicleID:   "V1",
		Flags:       []models.Flag{models.FlagRouteDeviation},
		FieldHashes: map[string]string{"vehicle_id": "abc"},
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Put(record("T1")))

	got, err := s.Get("T1")
	require.NoError(t, err)
	got.VehicleID = "changed"
	got.FieldHashes["vehicle_id"] = "changed"
	got.Flags[0] = models.FlagExcessiveIdleTime

	again, err := s.Get("T1")
	require.NoError(t, err)
	assert.Equal(t, "V1", again.VehicleID)
	assert.Equal(t, "abc", again.FieldHashes["vehicle_id"])
	assert.Equal(t, models.FlagRouteDeviation, again.Flags[0])
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Update("missing", func(*models.AuditRecord) {}), ErrNotFound)
}

func TestMemoryStore_UpdateMutatesInPlace(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Put(record("T1")))
	require.NoError(t, s.Update("T1", func(r *models.AuditRecord) { r.TotalEmissionsKgCO2e = 42 }))

	got, err := s.Get("T1")
	require.NoError(t, err)
	assert.Equal(t, 42.0, got.TotalEmissionsKgCO2e)
}

func TestMemoryStore_ReplaceAll(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Put(record("old")))

	s.ReplaceAll(map[string]*models.AuditRecord{"T2": record("T2"), "T1": record("T1")})
	assert.Equal(t, []string{"T1", "T2"}, s.TripIDs())
	assert.Len(t, s.Records(), 2)
}

func TestMemoryStore_AppendViolationDeduplicates(t *testing.T) {
	s := NewMemoryStore()
	v := models.ViolationRecord{AuditID: "A1", Field: "vehicle_id", Severity: models.SeverityCritical}

	assert.True(t, s.AppendViolation(v))
	assert.False(t, s.AppendViolation(v))
	assert.True(t, s.AppendViolation(models.ViolationRecord{AuditID: "A1", Field: "confidence_score"}))
	assert.True(t, s.AppendViolation(models.ViolationRecord{AuditID: "A2", Field: "vehicle_id"}))
	assert.Len(t, s.Violations(), 3)
}

func TestMemoryStore_ConcurrentAppendKeepsOnePerField(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AppendViolation(models.ViolationRecord{AuditID: "A1", Field: "total_trip_emissions_kg_co2e"})
		}()
	}
	wg.Wait()
	assert.Len(t, s.Violations(), 1)
}

func TestMemoryStore_Reset(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Put(record("T1")))
	s.AppendViolation(models.ViolationRecord{AuditID: "A1", Field: "f"})

	s.ResetViolations()
	assert.Empty(t, s.Violations())
	assert.Len(t, s.TripIDs(), 1)
	assert.True(t, s.AppendViolation(models.ViolationRecord{AuditID: "A1", Field: "f"}))

	s.Reset()
	assert.Empty(t, s.TripIDs())
	assert.Empty(t, s.Violations())
}

func TestMemoryStore_PutRequiresTripID(t *testing.T) {
	assert.Error(t, NewMemoryStore().Put(&models.AuditRecord{}))
	assert.Error(t, NewMemoryStore().Put(nil))
}
