package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tripledger/ingestion/source"
	"tripledger/internal/messaging/producer"
	"tripledger/internal/models"

	"github.com/google/uuid"
)

// ErrInvalidTrip is returned for a submission missing identifying fields
var ErrInvalidTrip = errors.New("invalid trip submission")

// ErrBackpressure is returned when the publisher refuses a message
var ErrBackpressure = errors.New("publisher buffer full")

// Publisher accepts messages for asynchronous publishing
type Publisher interface {
	Submit(msg producer.Message) bool
}

// TripInput defines the information required for a trip submission
type TripInput struct {
	SupplierID   string
	SupplierName string
	VehicleID    string
	VehicleType  string
	TripID       string
	Pings        []models.RawPing
}

// TripResult defines the return information after successful submission
type TripResult struct {
	RequestID  string
	TripID     string
	PingCount  int
	ReceivedAt time.Time
}

// Service is the trip feeder: it stamps submissions with a request ID and
// hands them to the publisher. Ping validation happens in the audit engine.
type Service struct {
	publisher Publisher
	logger    *log.Logger
}

// NewService creates a new Service instance
func NewService(p Publisher, l *log.Logger) *Service {
	return &Service{publisher: p, logger: l}
}

// SubmitTrip queues one trip message
func (s *Service) SubmitTrip(ctx context.Context, input *TripInput) (*TripResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input.TripID == "" {
		return nil, fmt.Errorf("%w: trip_id is required", ErrInvalidTrip)
	}
	if input.VehicleID == "" {
		return nil, fmt.Errorf("%w: vehicle_id is required for trip %s", ErrInvalidTrip, input.TripID)
	}

	receivedAt := time.Now().UTC()
	requestID := uuid.NewString()
	vehicleType := input.VehicleType
	if vehicleType == "" {
		vehicleType = models.DefaultVehicleType
	}

	msg := &models.TripMessage{
		RequestID:    requestID,
		SupplierID:   input.SupplierID,
		SupplierName: input.SupplierName,
		VehicleID:    input.VehicleID,
		VehicleType:  vehicleType,
		TripID:       input.TripID,
		Pings:        input.Pings,
		PublishedAt:  receivedAt.Format(time.RFC3339Nano),
	}

	// Key by trip so every version of a trip lands on the same partition
	if !s.publisher.Submit(producer.Message{Key: input.TripID, Value: msg}) {
		return nil, fmt.Errorf("%w: trip %s was not queued", ErrBackpressure, input.TripID)
	}

	return &TripResult{
		RequestID:  requestID,
		TripID:     input.TripID,
		PingCount:  len(input.Pings),
		ReceivedAt: receivedAt,
	}, nil
}

// SubmitFile queues every trip of a supplier telemetry document and returns
// how many were queued before the first error.
func (s *Service) SubmitFile(ctx context.Context, doc *source.SupplierFile) (int, error) {
	queued := 0
	for _, sup := range doc.Suppliers {
		for _, v := range sup.Vehicles {
			for _, t := range v.Trips {
				_, err := s.SubmitTrip(ctx, &TripInput{
					SupplierID:   sup.SupplierID,
					SupplierName: sup.Name,
					VehicleID:    v.VehicleID,
					VehicleType:  v.Type,
					TripID:       t.TripID,
					Pings:        t.GPSPings,
				})
				if err != nil {
					return queued, err
				}
				queued++
			}
		}
	}
	s.logger.Printf("Queued %d trips from %d suppliers", queued, len(doc.Suppliers))
	return queued, nil
}
