package producer

import (
	"context"
)

// Message is a keyed payload; Value is serialized as JSON
type Message struct {
	Key   string
	Value any
}

// Producer defines the interface for message queue producer
type Producer interface {
	// Publish sends a single message to the configured topic
	Publish(ctx context.Context, msg Message) error

	// PublishBatch sends messages in batch to the configured topic
	PublishBatch(ctx context.Context, msgs []Message) error

	// Close closes the producer connection
	Close() error
}
