package integrity

import (
	"fmt"
	"time"

	"tripledger/internal/models"
)

// Protected field names, as they appear in FieldHashes
const (
	FieldTotalDistance  = "total_trip_distance_km"
	FieldTotalEmissions = "total_trip_emissions_kg_co2e"
	FieldConfidence     = "confidence_score"
	FieldVehicleID      = "vehicle_id"
)

// FieldDataHash names the root digest in violation records
const FieldDataHash = "data_hash"

// ProtectedFields is the exact list hashed by Seal and checked by Verify.
// AuditID and CalculatedAt are salts only and are not covered.
var ProtectedFields = []string{
	FieldTotalDistance,
	FieldTotalEmissions,
	FieldConfidence,
	FieldVehicleID,
}

// IsProtected reports whether field is in ProtectedFields
func IsProtected(field string) bool {
	for _, f := range ProtectedFields {
		if f == field {
			return true
		}
	}
	return false
}

// ProtectedValue returns the canonical text of a protected field's current value
func ProtectedValue(r *models.AuditRecord, field string) (string, bool) {
	switch field {
	case FieldTotalDistance:
		return FormatFloat(r.TotalDistanceKm), true
	case FieldTotalEmissions:
		return FormatFloat(r.TotalEmissionsKgCO2e), true
	case FieldConfidence:
		return FormatFloat(r.ConfidenceScore), true
	case FieldVehicleID:
		return r.VehicleID, true
	default:
		return "", false
	}
}

// Seal computes the field digests and root of r. Numeric fields must be final.
func Seal(r *models.AuditRecord, scheme string) error {
	if r.AuditID == "" || r.CalculatedAt.IsZero() {
		return fmt.Errorf("cannot seal record for trip %s: audit_id and calculated_at are required", r.TripID)
	}
	if scheme == "" {
		scheme = SchemeFlat
	}
	if !ValidScheme(scheme) {
		return fmt.Errorf("unsupported root scheme %q", scheme)
	}

	hashes := make(map[string]string, len(ProtectedFields))
	for _, field := range ProtectedFields {
		value, _ := ProtectedValue(r, field)
		hashes[field] = FieldHash(value, r.AuditID, r.CalculatedAt)
	}
	r.FieldHashes = hashes
	r.RootScheme = scheme
	r.DataHash = Root(scheme, hashes)
	return nil
}

// Verify recomputes every protected digest from the record's current values
// and the root over the stored digests. It returns ok=false with one CRITICAL
// violation per mismatch. Nothing is cached; call it on every read.
func Verify(r *models.AuditRecord, detectedAt time.Time) (bool, []models.ViolationRecord) {
	var violations []models.ViolationRecord

	for _, field := range ProtectedFields {
		value, _ := ProtectedValue(r, field)
		stored := r.FieldHashes[field]
		recalculated := FieldHash(value, r.AuditID, r.CalculatedAt)
		if stored != recalculated {
			violations = append(violations, violation(r, field, stored, recalculated, detectedAt))
		}
	}

	recalculatedRoot := Root(r.RootScheme, r.FieldHashes)
	if recalculatedRoot != r.DataHash {
		violations = append(violations, violation(r, FieldDataHash, r.DataHash, recalculatedRoot, detectedAt))
	}

	return len(violations) == 0, violations
}

func violation(r *models.AuditRecord, field, stored, recalculated string, at time.Time) models.ViolationRecord {
	return models.ViolationRecord{
		AuditID:          r.AuditID,
		TripID:           r.TripID,
		Field:            field,
		Severity:         models.SeverityCritical,
		Message:          fmt.Sprintf("Integrity Hash Mismatch for %s", field),
		StoredHash:       stored,
		RecalculatedHash: recalculated,
		DetectedAt:       at,
	}
}
