package models

import (
	"fmt"
	"time"
)

// RecordState tracks an audit record through one processing run
type RecordState string

const (
	StateIngested RecordState = "INGESTED"
	StateComputed RecordState = "COMPUTED"
	StateHashed   RecordState = "HASHED"
	StateSealed   RecordState = "SEALED"
)

var stateOrder = map[RecordState]int{
	StateIngested: 0,
	StateComputed: 1,
	StateHashed:   2,
	StateSealed:   3,
}

// Advance returns next if it is the immediate successor of s.
// The empty state may only advance to StateIngested.
func (s RecordState) Advance(next RecordState) (RecordState, error) {
	if s == "" {
		if next == StateIngested {
			return next, nil
		}
		return s, fmt.Errorf("invalid state transition: <none> -> %s", next)
	}
	cur, ok := stateOrder[s]
	if !ok {
		return s, fmt.Errorf("unknown record state %q", s)
	}
	n, ok := stateOrder[next]
	if !ok || n != cur+1 {
		return s, fmt.Errorf("invalid state transition: %s -> %s", s, next)
	}
	return next, nil
}

// IntegrityStatus is computed on every read, never stored
type IntegrityStatus string

const (
	StatusVerified    IntegrityStatus = "VERIFIED"
	StatusCompromised IntegrityStatus = "COMPROMISED"
)

// Severity of a detected violation
type Severity string

const SeverityCritical Severity = "CRITICAL"

// Flag is an anomaly tag attached to a trip
type Flag string

const (
	FlagExcessiveIdleTime Flag = "excessive_idle_time"
	FlagRouteDeviation    Flag = "route_deviation"
)

// RecommendationType names a mitigation suggestion
type RecommendationType string

const (
	RecommendModeShift         RecommendationType = "mode_shift"
	RecommendRouteOptimization RecommendationType = "route_optimization"
	RecommendElectrification   RecommendationType = "vehicle_electrification"
)

// Recommendation is a single mitigation suggestion for a trip
type Recommendation struct {
	Type                  RecommendationType `json:"type"`
	PotentialReductionPct int                `json:"potential_reduction_pct"`
	Rationale             string             `json:"rationale"`
}

// EmissionFactorMetadata is the versioned provenance block attached to every record
type EmissionFactorMetadata struct {
	Source         string `json:"source" yaml:"source"`
	Version        string `json:"version" yaml:"version"`
	ValidityPeriod string `json:"validity_period" yaml:"validity_period"`
	Unit           string `json:"unit" yaml:"unit"`
	Link           string `json:"link,omitempty" yaml:"link"`
}

// DataSources records where the inputs of a record came from
type DataSources struct {
	GPS            string `json:"gps"`
	EmissionFactor string `json:"emission_factor"`
}

// AuditRecord is the sealed, tamper-evident result of processing one trip
type AuditRecord struct {
	AuditID              string                 `json:"audit_id"`
	TripID               string                 `json:"trip_id"`
	SupplierID           string                 `json:"supplier_id"`
	VehicleID            string                 `json:"vehicle_id"`
	VehicleType          string                 `json:"vehicle_type"`
	EmissionFactor       float64                `json:"emission_factor_per_km"`
	EmissionFactorSource EmissionFactorMetadata `json:"emission_factor_source"`
	CalculatedAt         time.Time              `json:"calculated_at"`
	IngestedAt           time.Time              `json:"ingested_at"`
	DataSources          DataSources            `json:"data_sources"`
	Segments             []Segment              `json:"segments"`
	TotalDistanceKm      float64                `json:"total_trip_distance_km"`
	TotalEmissionsKgCO2e float64                `json:"total_trip_emissions_kg_co2e"`
	ConfidenceScore      float64                `json:"confidence_score"`
	Flags                []Flag                 `json:"flags"`
	Recommendations      []Recommendation       `json:"recommendations"`
	Methodology          string                 `json:"methodology,omitempty"`
	FieldHashes          map[string]string      `json:"field_hashes"`
	DataHash             string                 `json:"data_hash"`
	RootScheme           string                 `json:"root_scheme"`
	State                RecordState            `json:"state"`
}

// Clone returns a deep copy so readers never share slices or maps with the store
func (r *AuditRecord) Clone() *AuditRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.Segments != nil {
		out.Segments = append(make([]Segment, 0, len(r.Segments)), r.Segments...)
	}
	if r.Flags != nil {
		out.Flags = append(make([]Flag, 0, len(r.Flags)), r.Flags...)
	}
	if r.Recommendations != nil {
		out.Recommendations = append(make([]Recommendation, 0, len(r.Recommendations)), r.Recommendations...)
	}
	if r.FieldHashes != nil {
		out.FieldHashes = make(map[string]string, len(r.FieldHashes))
		for k, v := range r.FieldHashes {
			out.FieldHashes[k] = v
		}
	}
	return &out
}

// ViolationRecord is one entry of the append-only tamper log
type ViolationRecord struct {
	AuditID          string    `json:"audit_id"`
	TripID           string    `json:"trip_id"`
	Field            string    `json:"field"`
	Severity         Severity  `json:"severity"`
	Message          string    `json:"message"`
	StoredHash       string    `json:"stored_hash"`
	RecalculatedHash string    `json:"recalculated_hash"`
	DetectedAt       time.Time `json:"detected_at"`
}

// RenderedRecord is what a read of a sealed record returns
type RenderedRecord struct {
	*AuditRecord
	IntegrityStatus IntegrityStatus   `json:"integrity_status"`
	TamperEvidence  []ViolationRecord `json:"tamper_evidence,omitempty"`
}
