package producer

import (
	"context"
	"errors"
	"sync"
)

// ErrProducerClosed is returned after Close
var ErrProducerClosed = errors.New("producer closed")

// MockProducer records published messages in memory
type MockProducer struct {
	mu       sync.Mutex
	messages []Message
	batches  int
	closed   bool
	FailWith error // when set, every publish returns it
}

// NewMockProducer creates an empty MockProducer
func NewMockProducer() *MockProducer {
	return &MockProducer{}
}

// Publish records one message
func (m *MockProducer) Publish(_ context.Context, msg Message) error {
	return m.PublishBatch(context.Background(), []Message{msg})
}

// PublishBatch records msgs as a single batch
func (m *MockProducer) PublishBatch(_ context.Context, msgs []Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrProducerClosed
	}
	if m.FailWith != nil {
		return m.FailWith
	}
	m.messages = append(m.messages, msgs...)
	m.batches++
	return nil
}

// Messages returns a copy of everything published so far
func (m *MockProducer) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Batches returns the number of successful publish calls
func (m *MockProducer) Batches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches
}

// Close marks the producer closed
func (m *MockProducer) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

var _ Producer = (*MockProducer)(nil)
