package consumer

import (
	"context"

	"tripledger/internal/models"
)

// Consumer defines the interface for trip message queue consumers.
type Consumer interface {
	// Consume blocks until a trip message is received or the context is cancelled.
	// It returns the message, an acknowledgement callback, and any error that occurred.
	// The ack callback: ack(true) once the run that used the trip is sealed;
	// ack(false) if the run failed (message will be redelivered).
	Consume(ctx context.Context) (msg *models.TripMessage, ack func(success bool), err error)

	// Close gracefully shuts down the consumer connection.
	Close() error
}
