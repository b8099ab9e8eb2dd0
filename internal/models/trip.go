package models

import "time"

// Position is a single GPS ping of a trip
type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// Segment is the distance/emissions contribution between two adjacent pings
type Segment struct {
	FromTimestamp   time.Time `json:"from_timestamp"`
	ToTimestamp     time.Time `json:"to_timestamp"`
	DistanceKm      float64   `json:"distance_km"`
	EmissionsKgCO2e float64   `json:"emissions_kg_co2e"`
}

// Trip is the input entity handed to the record builder by an ingestion source
type Trip struct {
	TripID       string `json:"trip_id"`
	SupplierID   string `json:"supplier_id"`
	SupplierName string `json:"supplier_name"`
	VehicleID    string `json:"vehicle_id"`
	VehicleType  string `json:"vehicle_type"`
	// EmissionFactor in kg CO2e per km. Zero means resolve from the factor table.
	EmissionFactor float64    `json:"emission_factor,omitempty"`
	Pings          []Position `json:"gps_pings"`
}

// TripMessage defines the broker message structure for a single trip submission
// Used by the ingestion publisher and the Kafka trip source
type TripMessage struct {
	RequestID    string    `json:"request_id"`
	SupplierID   string    `json:"supplier_id"`
	SupplierName string    `json:"supplier_name"`
	VehicleID    string    `json:"vehicle_id"`
	VehicleType  string    `json:"vehicle_type"`
	TripID       string    `json:"trip_id"`
	Pings        []RawPing `json:"gps_pings"`
	PublishedAt  string    `json:"published_at"` // RFC3339Nano
}

// RawPing is a ping as received from telemetry. Coordinates are pointers so a
// missing field can be told apart from a zero coordinate.
type RawPing struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Timestamp string   `json:"timestamp"`
}
