// Package processing turns trips into sealed audit records and serves them
// back with a fresh integrity verdict on every read.
//
// A run computes every record off to the side and swaps the complete set into
// the store at once, so readers never see a partially rebuilt collection.
// The violation log is only ever appended to, except by an explicit
// administrative reprocess configured to reset it.
package processing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"tripledger/calculation/quality"
	"tripledger/calculation/recommend"
	"tripledger/calculation/segment"
	"tripledger/config"
	"tripledger/ingestion/source"
	"tripledger/internal/models"
	"tripledger/ledger/integrity"
	"tripledger/ledger/store"
)

// Options tune a Builder
type Options struct {
	RootScheme                 string // flat (default) or binary
	Concurrency                int    // trips computed in parallel
	SimulationEnabled          bool   // allow Tamper
	ResetViolationsOnReprocess bool   // Reprocess clears the violation log
	GPSSource                  string // data_sources.gps label; defaults to the source name
	Clock                      func() time.Time
}

// SupplierTotal aggregates the trips of one supplier: the sum of the rounded
// trip emissions and of the unrounded trip distances
type SupplierTotal struct {
	SupplierID           string  `json:"supplier_id"`
	Name                 string  `json:"name"`
	TotalEmissionsKgCO2e float64 `json:"total_emissions_kg_co2e"`
	TotalDistanceKm      float64 `json:"total_distance_km"`
	TripCount            int     `json:"trip_count"`
}

// ProcessResult is the outcome of one run
type ProcessResult struct {
	AuditRecords   map[string]*models.AuditRecord
	SupplierTotals map[string]SupplierTotal
}

// runSummary is what reporting needs from the last successful run
type runSummary struct {
	supplierTotals map[string]SupplierTotal
	completedAt    time.Time
}

// Builder owns the record store for its lifetime
type Builder struct {
	store   store.Store
	factors *config.EmissionFactorConfig
	opts    Options
	logger  *log.Logger

	source      source.Source
	anchorer    *Anchorer
	onViolation func(models.ViolationRecord)

	runMu   sync.Mutex // one run at a time
	mu      sync.RWMutex
	summary *runSummary
}

// NewBuilder creates a Builder over s. factors supplies the table, metadata
// and methodology used by Run and Reprocess.
func NewBuilder(s store.Store, factors *config.EmissionFactorConfig, opts Options, logger *log.Logger) *Builder {
	if opts.RootScheme == "" {
		opts.RootScheme = integrity.SchemeFlat
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if factors == nil {
		factors = config.DefaultEmissionFactors()
	}
	return &Builder{
		store:   s,
		factors: factors,
		opts:    opts,
		logger:  logger,
	}
}

// SetSource sets the source used by Run and Reprocess
func (b *Builder) SetSource(src source.Source) { b.source = src }

// SetAnchorer enables anchoring of sealed roots after every run
func (b *Builder) SetAnchorer(a *Anchorer) { b.anchorer = a }

// SetViolationHandler registers fn to be called once for every newly logged violation
func (b *Builder) SetViolationHandler(fn func(models.ViolationRecord)) { b.onViolation = fn }

func (b *Builder) now() time.Time {
	return b.opts.Clock().UTC()
}

// Process validates trips, computes and seals one record per trip, and swaps
// the set into the store. On any error the previous set stays visible.
func (b *Builder) Process(ctx context.Context, trips []models.Trip, table models.EmissionFactorTable, meta models.EmissionFactorMetadata) (*ProcessResult, error) {
	b.runMu.Lock()
	defer b.runMu.Unlock()
	return b.process(ctx, trips, table, meta)
}

// process is Process without taking runMu
func (b *Builder) process(ctx context.Context, trips []models.Trip, table models.EmissionFactorTable, meta models.EmissionFactorMetadata) (*ProcessResult, error) {
	if err := ValidateTrips(trips); err != nil {
		b.logger.Printf("Run rejected: %v", err)
		return nil, err
	}

	results, err := b.computeAll(ctx, trips, table, meta)
	if err != nil {
		b.logger.Printf("Run aborted, keeping previous records: %v", err)
		return nil, err
	}

	records := make(map[string]*models.AuditRecord, len(results))
	totals := make(map[string]SupplierTotal)
	for i, c := range results {
		records[c.record.TripID] = c.record
		trip := trips[i]
		st := totals[trip.SupplierID]
		st.SupplierID = trip.SupplierID
		if st.Name == "" {
			st.Name = trip.SupplierName
		}
		// Emissions add up the published 2 dp trip totals so the supplier
		// figure matches the records; distance adds the unrounded totals.
		st.TotalEmissionsKgCO2e += c.record.TotalEmissionsKgCO2e
		st.TotalDistanceKm += c.distance
		st.TripCount++
		totals[trip.SupplierID] = st
	}

	// Records and summary are published together so reports never mix runs
	b.mu.Lock()
	b.store.ReplaceAll(records)
	b.summary = &runSummary{supplierTotals: totals, completedAt: b.now()}
	b.mu.Unlock()

	b.logger.Printf("Run complete: %d trips sealed for %d suppliers", len(records), len(totals))

	if b.anchorer != nil {
		sealed := make([]*models.AuditRecord, 0, len(results))
		for _, c := range results {
			sealed = append(sealed, c.record)
		}
		if err := b.anchorer.Anchor(ctx, sealed); err != nil {
			b.logger.Printf("Anchoring failed, records remain sealed locally: %v", err)
		}
	}

	out := &ProcessResult{
		AuditRecords:   make(map[string]*models.AuditRecord, len(records)),
		SupplierTotals: totals,
	}
	for id, r := range records {
		out.AuditRecords[id] = r.Clone()
	}
	return out, nil
}

// assemble drives one trip through INGESTED -> COMPUTED -> HASHED -> SEALED
func (b *Builder) assemble(trip models.Trip, table models.EmissionFactorTable, meta models.EmissionFactorMetadata) (computed, error) {
	calculatedAt := b.now()
	rec := &models.AuditRecord{
		TripID:      trip.TripID,
		SupplierID:  trip.SupplierID,
		VehicleID:   trip.VehicleID,
		VehicleType: trip.VehicleType,
		IngestedAt:  calculatedAt,
	}
	if err := advance(rec, models.StateIngested); err != nil {
		return computed{}, err
	}

	factor := trip.EmissionFactor
	if factor == 0 {
		factor = table.Resolve(trip.VehicleType)
	}
	if factor <= 0 {
		return computed{}, fmt.Errorf("%w: no positive emission factor for vehicle type %q", ErrInvalidInput, trip.VehicleType)
	}

	totals := segment.Accumulate(trip.Pings, factor)

	rec.EmissionFactor = factor
	rec.EmissionFactorSource = meta
	rec.DataSources = models.DataSources{GPS: b.gpsLabel(), EmissionFactor: meta.Source}
	rec.Methodology = b.factors.Methodology
	rec.Segments = make([]models.Segment, len(totals.Segments))
	for i, s := range totals.Segments {
		s.DistanceKm = round(s.DistanceKm, 4)
		s.EmissionsKgCO2e = round(s.EmissionsKgCO2e, 4)
		rec.Segments[i] = s
	}
	rec.TotalDistanceKm = round(totals.DistanceKm, 2)
	rec.TotalEmissionsKgCO2e = round(totals.EmissionsKgCO2e, 2)
	rec.ConfidenceScore = quality.ConfidenceScore(trip.Pings, totals.DistanceKm)
	rec.Flags = quality.AnomalyFlags(trip.Pings, totals.DistanceKm, trip.VehicleType)
	rec.Recommendations = recommend.For(trip.VehicleType, totals.EmissionsKgCO2e)
	if err := advance(rec, models.StateComputed); err != nil {
		return computed{}, err
	}

	// Salts are fixed here and never recomputed for this record
	rec.AuditID = NewAuditID(trip.TripID, calculatedAt)
	rec.CalculatedAt = calculatedAt
	if err := integrity.Seal(rec, b.opts.RootScheme); err != nil {
		return computed{}, err
	}
	if err := advance(rec, models.StateHashed); err != nil {
		return computed{}, err
	}
	if err := advance(rec, models.StateSealed); err != nil {
		return computed{}, err
	}

	return computed{record: rec, distance: totals.DistanceKm}, nil
}

func advance(rec *models.AuditRecord, next models.RecordState) error {
	state, err := rec.State.Advance(next)
	if err != nil {
		return fmt.Errorf("trip %s: %w", rec.TripID, err)
	}
	rec.State = state
	return nil
}

func (b *Builder) gpsLabel() string {
	if b.opts.GPSSource != "" {
		return b.opts.GPSSource
	}
	if b.source != nil {
		return b.source.Name()
	}
	return "unspecified"
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Run loads every trip from the configured source and processes them with
// the configured emission factors.
func (b *Builder) Run(ctx context.Context) (*ProcessResult, error) {
	if b.source == nil {
		return nil, errors.New("no trip source configured")
	}

	// Load and process under one lock so runs publish in load order
	b.runMu.Lock()
	defer b.runMu.Unlock()

	batch, err := b.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load trips from %s source: %w", b.source.Name(), err)
	}
	res, err := b.process(ctx, batch.Trips, b.factors.Factors, b.factors.Metadata)
	if errors.Is(err, ErrInvalidInput) {
		for id, reason := range InvalidTrips(batch.Trips) {
			batch.Reject(id, reason)
		}
	}
	batch.Done(err == nil)
	return res, err
}

// Reprocess is the administrative repair: it rebuilds every record from the
// source and, when configured, clears the violation log afterwards.
func (b *Builder) Reprocess(ctx context.Context, reason string) (*ProcessResult, error) {
	b.logger.Printf("ADMIN reprocess requested: %s", reason)
	res, err := b.Run(ctx)
	if err != nil {
		b.logger.Printf("ADMIN reprocess failed: %v", err)
		return nil, err
	}
	if b.opts.ResetViolationsOnReprocess {
		cleared := len(b.store.Violations())
		b.store.ResetViolations()
		b.logger.Printf("ADMIN reprocess cleared %d violation log entries", cleared)
	}
	b.logger.Printf("ADMIN reprocess complete: %d records rebuilt", len(res.AuditRecords))
	return res, nil
}

// VerifyAndRender reads the record for tripID, verifies it, logs any new
// violations and returns the record with its integrity verdict.
func (b *Builder) VerifyAndRender(tripID string) (*models.RenderedRecord, error) {
	rec, err := b.store.Get(tripID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: audit record for trip_id '%s'", ErrNotFound, tripID)
		}
		return nil, err
	}

	ok, violations := integrity.Verify(rec, b.now())
	for _, v := range violations {
		if b.store.AppendViolation(v) {
			b.logger.Printf("INTEGRITY VIOLATION: trip %s audit %s field %s", v.TripID, v.AuditID, v.Field)
			if b.onViolation != nil {
				b.onViolation(v)
			}
		}
	}

	rendered := &models.RenderedRecord{AuditRecord: rec, IntegrityStatus: models.StatusVerified}
	if !ok {
		rendered.IntegrityStatus = models.StatusCompromised
		rendered.TamperEvidence = violations
	}
	return rendered, nil
}

// ListViolations returns the violation log in append order
func (b *Builder) ListViolations() []models.ViolationRecord {
	return b.store.Violations()
}

// TripIDs lists the trips of the current record set
func (b *Builder) TripIDs() []string {
	return b.store.TripIDs()
}

// Tamper overwrites one protected field of a stored record without touching
// its hashes. Demo use only; disabled unless simulation is enabled.
func (b *Builder) Tamper(tripID, field, value string) error {
	if !b.opts.SimulationEnabled {
		return ErrSimulationDisabled
	}
	if !integrity.IsProtected(field) {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	var apply func(*models.AuditRecord)
	if field == integrity.FieldVehicleID {
		apply = func(r *models.AuditRecord) { r.VehicleID = value }
	} else {
		v, err := parseFloat(value)
		if err != nil {
			return fmt.Errorf("%w: %s needs a number: %v", ErrInvalidInput, field, err)
		}
		if !finite(v) {
			return fmt.Errorf("%w: %s needs a finite number, got %s", ErrInvalidInput, field, value)
		}
		apply = func(r *models.AuditRecord) {
			switch field {
			case integrity.FieldTotalDistance:
				r.TotalDistanceKm = v
			case integrity.FieldTotalEmissions:
				r.TotalEmissionsKgCO2e = v
			case integrity.FieldConfidence:
				r.ConfidenceScore = v
			}
		}
	}

	if err := b.store.Update(tripID, apply); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: trip ID %s", ErrNotFound, tripID)
		}
		return err
	}
	b.logger.Printf("SIMULATION: %s of trip %s overwritten with %s, hashes untouched", field, tripID, value)
	return nil
}
