// Package source loads raw trips for a processing run. Every source returns
// the complete trip collection it knows about; a run replaces all records.
package source

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"tripledger/config"
	"tripledger/internal/messaging/consumer"
	"tripledger/internal/models"
)

// Batch is the result of one Load
type Batch struct {
	Trips []models.Trip

	ack    func(success bool)
	reject func(tripID string, reason error)
}

// NewBatch wraps trips with an optional completion callback
func NewBatch(trips []models.Trip, ack func(success bool)) *Batch {
	return &Batch{Trips: trips, ack: ack}
}

// Reject reports a trip of the batch that failed validation. Sources that
// accumulate trips (Kafka) quarantine it so later runs are not blocked by it.
// Call Reject before Done.
func (b *Batch) Reject(tripID string, reason error) {
	if b != nil && b.reject != nil {
		b.reject(tripID, reason)
	}
}

// Done reports the outcome of the run that used the batch
func (b *Batch) Done(success bool) {
	if b != nil && b.ack != nil {
		b.ack(success)
	}
}

// Source yields the trips for a processing run
type Source interface {
	// Name identifies the source in logs and data_sources provenance
	Name() string

	// Load returns every trip currently known to the source
	Load(ctx context.Context) (*Batch, error)

	// Close releases connections held by the source
	Close() error
}

// New builds the source selected by cfg.Source.Type
func New(ctx context.Context, cfg *config.EngineConfig, logger *log.Logger) (Source, error) {
	switch cfg.Source.Type {
	case config.SourceFile:
		return NewFileSource(cfg.Source.FilePath, logger), nil
	case config.SourceKafka:
		c, err := consumer.NewKafkaConsumer(cfg.KafkaConsumer, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
		}
		drain, err := time.ParseDuration(cfg.Source.DrainTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid source.drain_timeout: %w", err)
		}
		return NewKafkaSource(c, drain, cfg.Source.MaxMessages, logger), nil
	case config.SourcePostgres:
		return NewPostgresSource(ctx, cfg.Database, logger)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Source.Type)
	}
}

// timestampLayouts are tried in order; the last two accept timestamps without a zone as UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// parseTimestamp returns the zero time for anything it cannot read, which
// the record builder rejects as invalid input.
func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// coordinate maps a missing value to NaN so validation can reject it
func coordinate(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// ConvertPings turns raw telemetry into positions sorted by timestamp
func ConvertPings(raw []models.RawPing) []models.Position {
	pings := make([]models.Position, 0, len(raw))
	for _, p := range raw {
		pings = append(pings, models.Position{
			Latitude:  coordinate(p.Latitude),
			Longitude: coordinate(p.Longitude),
			Timestamp: parseTimestamp(p.Timestamp),
		})
	}
	SortPings(pings)
	return pings
}

// SortPings orders pings chronologically, keeping the input order for ties
func SortPings(pings []models.Position) {
	sort.SliceStable(pings, func(i, j int) bool {
		return pings[i].Timestamp.Before(pings[j].Timestamp)
	})
}

// TripFromMessage converts a broker message into a trip
func TripFromMessage(msg *models.TripMessage) models.Trip {
	return models.Trip{
		TripID:       msg.TripID,
		SupplierID:   msg.SupplierID,
		SupplierName: msg.SupplierName,
		VehicleID:    msg.VehicleID,
		VehicleType:  msg.VehicleType,
		Pings:        ConvertPings(msg.Pings),
	}
}
