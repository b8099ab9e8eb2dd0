package processing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tripledger/internal/models"
)

// computed is one assembled record plus its unrounded distance, which feeds
// supplier aggregation
type computed struct {
	record   *models.AuditRecord
	distance float64
}

type job struct {
	index int
	trip  models.Trip
}

// computeAll assembles one sealed record per trip using a bounded pool of
// goroutines. Trips are independent; results keep the input order. The first
// failing trip (by input position) fails the whole call.
func (b *Builder) computeAll(ctx context.Context, trips []models.Trip, table models.EmissionFactorTable, meta models.EmissionFactorMetadata) ([]computed, error) {
	concurrency := b.opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	if concurrency > len(trips) {
		concurrency = len(trips)
	}

	results := make([]computed, len(trips))
	errs := make([]error, len(trips))
	jobs := make(chan job)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					errs[j.index] = ctx.Err()
					continue
				}
				c, err := b.assemble(j.trip, table, meta)
				if err != nil {
					errs[j.index] = fmt.Errorf("worker %d: trip %s: %w", workerID, j.trip.TripID, err)
					continue
				}
				results[j.index] = c
			}
		}(i + 1)
	}

feed:
	for i, t := range trips {
		select {
		case jobs <- job{index: i, trip: t}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	b.logger.Printf("Computed %d records with %d workers in %v", len(trips), concurrency, time.Since(start))
	return results, nil
}
