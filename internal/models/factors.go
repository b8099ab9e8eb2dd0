package models

// DefaultVehicleType is the factor-table key used for unknown vehicle types
const DefaultVehicleType = "default"

// EmissionFactorTable maps vehicle type to kg CO2e per km
type EmissionFactorTable map[string]float64

// Resolve returns the factor for vehicleType, falling back to the default entry
func (t EmissionFactorTable) Resolve(vehicleType string) float64 {
	if f, ok := t[vehicleType]; ok {
		return f
	}
	return t[DefaultVehicleType]
}
