package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v2"

	"tripledger/internal/models"
)

// EmissionFactorConfig is the emission-factor table together with its provenance
type EmissionFactorConfig struct {
	Factors     models.EmissionFactorTable    `yaml:"factors"`
	Metadata    models.EmissionFactorMetadata `yaml:"metadata"`
	Methodology string                        `yaml:"methodology"`
}

// DefaultEmissionFactors returns the built-in DEFRA 2024.1 table
func DefaultEmissionFactors() *EmissionFactorConfig {
	return &EmissionFactorConfig{
		Factors: models.EmissionFactorTable{
			models.DefaultVehicleType: 0.8,
			"Light-Duty Van":          0.3,
			"Medium-Duty Truck":       0.65,
			"Heavy-Duty Truck":        1.2,
			"Refrigerated Truck":      1.8, // refrigeration unit uses extra fuel
			"Cargo Ship":              0.02,
			"Cargo Plane":             2.5,
		},
		Metadata: models.EmissionFactorMetadata{
			Source:         "DEFRA (Department for Environment, Food & Rural Affairs)",
			Version:        "2024.1",
			ValidityPeriod: "2024-01-01 to 2024-12-31",
			Unit:           "kg CO2e / km",
			Link:           "https://www.gov.uk/government/collections/government-conversion-factors-for-company-reporting",
		},
		Methodology: defaultMethodology,
	}
}

const defaultMethodology = `GHG Protocol Scope 3 Category 4 & 9 (Upstream & Downstream Transportation)
Calculation Method: Distance-based method using GPS-verified actual distances.

Formula: Emissions_total = sum(Distance_segment x EmissionFactor_vehicle)

Assumptions:
1. Great-circle distance is calculated between distinct GPS pings.
2. Emission factors assume average load factors as per DEFRA 2024 guidelines.
3. Refrigerated transport includes an additional 50% uplift for cooling unit emissions.

Limitations:
- Does not account for road gradient or specific traffic conditions.
- Uses standard vehicle class averages rather than engine-specific telemetry.
`

// Validate requires a positive default factor and no non-positive entries
func (c *EmissionFactorConfig) Validate() error {
	if f, ok := c.Factors[models.DefaultVehicleType]; !ok || f <= 0 {
		return fmt.Errorf("emission factor table must define a positive '%s' entry", models.DefaultVehicleType)
	}
	for vehicleType, f := range c.Factors {
		if f <= 0 {
			return fmt.Errorf("emission factor for '%s' must be positive, got %v", vehicleType, f)
		}
	}
	if c.Metadata.Source == "" || c.Metadata.Version == "" {
		return fmt.Errorf("emission factor metadata requires source and version")
	}
	return nil
}

// LoadEmissionFactors reads the factor file at path. An empty path or a
// missing file yields the built-in table.
func LoadEmissionFactors(path string) (*EmissionFactorConfig, error) {
	if path == "" {
		fmt.Println("Warning: emission_factors_path not set, using built-in emission factors")
		return DefaultEmissionFactors(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("Warning: emission factor file '%s' not found, using built-in emission factors\n", path)
		return DefaultEmissionFactors(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read emission factor file '%s': %w", path, err)
	}

	var cfg EmissionFactorConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse emission factor file '%s': %w", path, err)
	}
	if cfg.Methodology == "" {
		cfg.Methodology = defaultMethodology
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("emission factor file '%s': %w", path, err)
	}
	return &cfg, nil
}
