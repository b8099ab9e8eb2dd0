package source

import (
	"context"
	"fmt"
	"log"
	"time"

	"tripledger/config"
	"tripledger/internal/models"

	"github.com/jackc/pgx/v4/pgxpool"
)

// PostgresSource reads trips and pings from two SQL tables:
//
//	trips(trip_id, supplier_id, supplier_name, vehicle_id, vehicle_type, emission_factor)
//	gps_pings(trip_id, latitude, longitude, recorded_at)
//
// A NULL emission_factor resolves from the factor table; NULL coordinates are
// rejected by validation.
type PostgresSource struct {
	pool         *pgxpool.Pool
	tripsTable   string
	pingsTable   string
	queryTimeout time.Duration
	logger       *log.Logger
}

// NewPostgresSource connects a pool using cfg
func NewPostgresSource(ctx context.Context, cfg config.DatabaseConfig, logger *log.Logger) (*PostgresSource, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConnections)
	poolCfg.MinConns = int32(cfg.MinConnections)
	if d, err := time.ParseDuration(cfg.MaxIdleTime); err == nil {
		poolCfg.MaxConnIdleTime = d
	}
	if d, err := time.ParseDuration(cfg.MaxLifetime); err == nil {
		poolCfg.MaxConnLifetime = d
	}

	queryTimeout, err := time.ParseDuration(cfg.QueryTimeout)
	if err != nil {
		logger.Printf("Warning: Invalid query_timeout '%s', using default 30s", cfg.QueryTimeout)
		queryTimeout = 30 * time.Second
	}

	pool, err := pgxpool.ConnectConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Printf("Postgres source connected (tables: %s, %s)", cfg.TripsTable, cfg.PingsTable)

	return &PostgresSource{
		pool:         pool,
		tripsTable:   cfg.TripsTable,
		pingsTable:   cfg.PingsTable,
		queryTimeout: queryTimeout,
		logger:       logger,
	}, nil
}

// Name implements Source
func (s *PostgresSource) Name() string { return "postgres" }

// Load implements Source
func (s *PostgresSource) Load(ctx context.Context) (*Batch, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	// Table names are validated identifiers, see DatabaseConfig.Validate
	tripRows, err := s.pool.Query(queryCtx, fmt.Sprintf(
		`SELECT trip_id, supplier_id, supplier_name, vehicle_id, vehicle_type, emission_factor
		 FROM %s ORDER BY trip_id`, s.tripsTable))
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}

	var trips []models.Trip
	index := make(map[string]int)
	for tripRows.Next() {
		var (
			t      models.Trip
			factor *float64
		)
		if err := tripRows.Scan(&t.TripID, &t.SupplierID, &t.SupplierName, &t.VehicleID, &t.VehicleType, &factor); err != nil {
			tripRows.Close()
			return nil, fmt.Errorf("failed to scan trip row: %w", err)
		}
		if factor != nil {
			t.EmissionFactor = *factor
		}
		if t.VehicleType == "" {
			t.VehicleType = models.DefaultVehicleType
		}
		index[t.TripID] = len(trips)
		trips = append(trips, t)
	}
	tripRows.Close()
	if err := tripRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trips: %w", err)
	}

	pingRows, err := s.pool.Query(queryCtx, fmt.Sprintf(
		`SELECT trip_id, latitude, longitude, recorded_at
		 FROM %s ORDER BY trip_id, recorded_at`, s.pingsTable))
	if err != nil {
		return nil, fmt.Errorf("failed to query gps pings: %w", err)
	}
	defer pingRows.Close()

	orphans := 0
	for pingRows.Next() {
		var (
			tripID   string
			lat, lon *float64
			at       time.Time
		)
		if err := pingRows.Scan(&tripID, &lat, &lon, &at); err != nil {
			return nil, fmt.Errorf("failed to scan gps ping row: %w", err)
		}
		i, ok := index[tripID]
		if !ok {
			orphans++
			continue
		}
		trips[i].Pings = append(trips[i].Pings, models.Position{
			Latitude:  coordinate(lat),
			Longitude: coordinate(lon),
			Timestamp: at,
		})
	}
	if err := pingRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read gps pings: %w", err)
	}
	if orphans > 0 {
		s.logger.Printf("Postgres source: ignored %d pings without a matching trip", orphans)
	}

	s.logger.Printf("Postgres source: loaded %d trips", len(trips))
	return &Batch{Trips: trips}, nil
}

// Close implements Source
func (s *PostgresSource) Close() error {
	s.pool.Close()
	return nil
}

var _ Source = (*PostgresSource)(nil)
