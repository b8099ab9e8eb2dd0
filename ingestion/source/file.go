package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"tripledger/internal/models"
)

// SupplierFile is the supplier telemetry document: suppliers own vehicles,
// vehicles own trips.
type SupplierFile struct {
	Suppliers []SupplierEntry `json:"suppliers"`
}

// SupplierEntry is one supplier of SupplierFile
type SupplierEntry struct {
	SupplierID string         `json:"supplier_id"`
	Name       string         `json:"name"`
	Vehicles   []VehicleEntry `json:"vehicles"`
}

// VehicleEntry is one vehicle of a supplier
type VehicleEntry struct {
	VehicleID string      `json:"vehicle_id"`
	Type      string      `json:"type"`
	Trips     []TripEntry `json:"trips"`
}

// TripEntry is one trip of a vehicle
type TripEntry struct {
	TripID   string           `json:"trip_id"`
	GPSPings []models.RawPing `json:"gps_pings"`
}

// Flatten returns the trips of the document in file order
func (f *SupplierFile) Flatten() []models.Trip {
	var trips []models.Trip
	for _, s := range f.Suppliers {
		for _, v := range s.Vehicles {
			vehicleType := v.Type
			if vehicleType == "" {
				vehicleType = models.DefaultVehicleType
			}
			for _, t := range v.Trips {
				trips = append(trips, models.Trip{
					TripID:       t.TripID,
					SupplierID:   s.SupplierID,
					SupplierName: s.Name,
					VehicleID:    v.VehicleID,
					VehicleType:  vehicleType,
					Pings:        ConvertPings(t.GPSPings),
				})
			}
		}
	}
	return trips
}

// FileSource reads a SupplierFile from disk on every Load
type FileSource struct {
	path   string
	logger *log.Logger
}

// NewFileSource creates a FileSource for path
func NewFileSource(path string, logger *log.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

// Name implements Source
func (s *FileSource) Name() string { return "file" }

// Load implements Source
func (s *FileSource) Load(ctx context.Context) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := ReadSupplierFile(s.path)
	if err != nil {
		return nil, err
	}
	trips := doc.Flatten()
	s.logger.Printf("File source: loaded %d trips from %d suppliers (%s)", len(trips), len(doc.Suppliers), s.path)
	return &Batch{Trips: trips}, nil
}

// ReadSupplierFile decodes the document at path
func ReadSupplierFile(path string) (*SupplierFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trip data file '%s': %w", path, err)
	}
	var doc SupplierFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse trip data file '%s': %w", path, err)
	}
	return &doc, nil
}

// Close implements Source
func (s *FileSource) Close() error { return nil }

var _ Source = (*FileSource)(nil)
