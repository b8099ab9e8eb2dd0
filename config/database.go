package config

import "fmt"

// DatabaseConfig defines the Postgres connection used by the SQL trip source
type DatabaseConfig struct {
	DSN            string `yaml:"dsn" json:"dsn"`                         // PostgreSQL connection string
	MaxConnections int    `yaml:"max_connections" json:"max_connections"` // Maximum number of connections
	MinConnections int    `yaml:"min_connections" json:"min_connections"` // Minimum number of connections
	MaxIdleTime    string `yaml:"max_idle_time" json:"max_idle_time"`     // Maximum time a connection can be idle
	MaxLifetime    string `yaml:"max_lifetime" json:"max_lifetime"`       // Maximum lifetime of a connection
	QueryTimeout   string `yaml:"query_timeout" json:"query_timeout"`     // Timeout for loading one batch of trips
	TripsTable     string `yaml:"trips_table" json:"trips_table"`         // Table with one row per trip
	PingsTable     string `yaml:"pings_table" json:"pings_table"`         // Table with one row per GPS ping
}

// SetDefaults sets sensible default values for the database configuration
func (c *DatabaseConfig) SetDefaults() {
	if c.MaxConnections <= 0 {
		c.MaxConnections = 4
		fmt.Printf("Warning: database.max_connections not set or invalid, defaulting to %d\n", c.MaxConnections)
	}
	if c.MinConnections <= 0 {
		c.MinConnections = 1
		fmt.Printf("Warning: database.min_connections not set or invalid, defaulting to %d\n", c.MinConnections)
	}
	if c.MaxIdleTime == "" {
		c.MaxIdleTime = "1h"
		fmt.Printf("Warning: database.max_idle_time not set, defaulting to %s\n", c.MaxIdleTime)
	}
	if c.MaxLifetime == "" {
		c.MaxLifetime = "24h"
		fmt.Printf("Warning: database.max_lifetime not set, defaulting to %s\n", c.MaxLifetime)
	}
	if c.QueryTimeout == "" {
		c.QueryTimeout = "30s"
		fmt.Printf("Warning: database.query_timeout not set, defaulting to %s\n", c.QueryTimeout)
	}
	if c.TripsTable == "" {
		c.TripsTable = "trips"
		fmt.Printf("Warning: database.trips_table not set, defaulting to %s\n", c.TripsTable)
	}
	if c.PingsTable == "" {
		c.PingsTable = "gps_pings"
		fmt.Printf("Warning: database.pings_table not set, defaulting to %s\n", c.PingsTable)
	}
}

// Validate validates the database configuration
func (c *DatabaseConfig) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("database max_connections must be positive")
	}
	if c.MinConnections < 0 {
		return fmt.Errorf("database min_connections cannot be negative")
	}
	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min_connections (%d) cannot be greater than max_connections (%d)",
			c.MinConnections, c.MaxConnections)
	}
	if !isIdentifier(c.TripsTable) || !isIdentifier(c.PingsTable) {
		return fmt.Errorf("database trips_table and pings_table must be plain SQL identifiers")
	}
	return nil
}

// LogConfiguration logs the database configuration (excluding sensitive DSN)
func (c *DatabaseConfig) LogConfiguration() {
	fmt.Printf("Database Configuration:\n")
	fmt.Printf("  Max Connections: %d\n", c.MaxConnections)
	fmt.Printf("  Min Connections: %d\n", c.MinConnections)
	fmt.Printf("  Query Timeout: %s\n", c.QueryTimeout)
	fmt.Printf("  Tables: %s, %s\n", c.TripsTable, c.PingsTable)
	fmt.Printf("  DSN: [configured]\n") // Don't log the actual DSN for security
}

// isIdentifier accepts [A-Za-z_][A-Za-z0-9_]* so table names can be spliced into SQL
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
