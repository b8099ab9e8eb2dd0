package source

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"tripledger/internal/messaging/consumer"
	"tripledger/internal/models"
)

// maxConsumeFailures ends a drain early when the broker keeps failing
const maxConsumeFailures = 3

// KafkaSource drains trip messages from a consumer and keeps the latest
// version of every trip seen so far. Load returns that full snapshot.
//
// A kafka-go reader never redelivers a message within its session, so every
// drained message is committed once the run that used it finishes, whatever
// the outcome. Trips the run rejects are quarantined instead of retried.
type KafkaSource struct {
	consumer     consumer.Consumer
	drainTimeout time.Duration
	maxMessages  int
	logger       *log.Logger

	mu          sync.Mutex
	trips       map[string]models.Trip
	quarantined map[string]error // trip_id -> validation failure
}

// NewKafkaSource creates a KafkaSource; each Load stops after drainTimeout
// without a message or after maxMessages messages.
func NewKafkaSource(c consumer.Consumer, drainTimeout time.Duration, maxMessages int, logger *log.Logger) *KafkaSource {
	if maxMessages <= 0 {
		maxMessages = 10000
	}
	return &KafkaSource{
		consumer:     c,
		drainTimeout: drainTimeout,
		maxMessages:  maxMessages,
		logger:       logger,
		trips:        make(map[string]models.Trip),
		quarantined:  make(map[string]error),
	}
}

// Name implements Source
func (s *KafkaSource) Name() string { return "kafka" }

// prior is the snapshot entry a drained message replaced
type prior struct {
	trip    models.Trip
	existed bool
}

// Load implements Source. The batch must be finished with Done, after any
// Reject calls for trips that failed validation.
func (s *KafkaSource) Load(ctx context.Context) (*Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := make(map[string]prior)
	var acks []func(success bool)
	commit := func() {
		for _, a := range acks {
			a(true)
		}
	}

	received, failures := 0, 0
	for received < s.maxMessages {
		consumeCtx, cancel := context.WithTimeout(ctx, s.drainTimeout)
		msg, ack, err := s.consumer.Consume(consumeCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				// Received trips stay in the snapshot for the next Load
				commit()
				s.logger.Printf("Kafka source: drain cancelled after %d messages, kept for next run", received)
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, consumer.ErrClosed) {
				break // drained
			}
			s.logger.Printf("Kafka source: consumer error: %v", err)
			failures++
			if failures >= maxConsumeFailures {
				break
			}
			continue
		}
		if msg == nil {
			continue
		}
		received++
		if _, seen := replaced[msg.TripID]; !seen {
			old, existed := s.trips[msg.TripID]
			replaced[msg.TripID] = prior{trip: old, existed: existed}
		}
		s.trips[msg.TripID] = TripFromMessage(msg)
		delete(s.quarantined, msg.TripID)
		if ack != nil {
			acks = append(acks, ack)
		}
	}

	ids := make([]string, 0, len(s.trips))
	for id := range s.trips {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	trips := make([]models.Trip, 0, len(ids))
	for _, id := range ids {
		trips = append(trips, s.trips[id])
	}
	s.logger.Printf("Kafka source: drained %d new messages, %d trips known", received, len(trips))

	return &Batch{
		Trips: trips,
		reject: func(tripID string, reason error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if p, ok := replaced[tripID]; ok && p.existed {
				s.trips[tripID] = p.trip
			} else {
				delete(s.trips, tripID)
			}
			s.quarantined[tripID] = reason
			s.logger.Printf("Kafka source: quarantined trip %s: %v", tripID, reason)
		},
		ack: func(success bool) {
			commit()
			if !success {
				s.logger.Printf("Kafka source: run failed, %d drained messages committed and kept in the snapshot", len(acks))
			}
		},
	}, nil
}

// Quarantined returns the trips dropped from the snapshot after failing
// validation, with the reason
func (s *KafkaSource) Quarantined() map[string]error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]error, len(s.quarantined))
	for id, err := range s.quarantined {
		out[id] = err
	}
	return out
}

// Close implements Source
func (s *KafkaSource) Close() error {
	return s.consumer.Close()
}

var _ Source = (*KafkaSource)(nil)
