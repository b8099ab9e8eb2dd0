package consumer

import (
	"context"
	"errors"
	"log"
	"sync"

	"tripledger/internal/models"
)

// ErrClosed is returned by MockConsumer after Close
var ErrClosed = errors.New("message channel closed")

// MockConsumer serves a fixed set of trip messages from memory. Like a
// kafka-go reader session it delivers every message once; a NACK only
// records that the offset was not committed.
type MockConsumer struct {
	logger   *log.Logger
	messages chan *models.TripMessage

	mu    sync.Mutex
	acked map[string]bool // trip_id -> last ack value
}

// NewMockConsumer creates a MockConsumer preloaded with msgs.
func NewMockConsumer(logger *log.Logger, msgs ...*models.TripMessage) *MockConsumer {
	mc := &MockConsumer{
		logger:   logger,
		messages: make(chan *models.TripMessage, len(msgs)+5),
		acked:    make(map[string]bool),
	}
	for _, msg := range msgs {
		mc.messages <- msg
	}
	logger.Printf("[MockConsumer] Loaded %d predefined trip messages", len(msgs))
	return mc
}

// Consume reads the next queued message.
func (m *MockConsumer) Consume(ctx context.Context) (msg *models.TripMessage, ack func(success bool), err error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case msg, ok := <-m.messages:
		if !ok || msg == nil {
			return nil, nil, ErrClosed
		}
		ackCallback := func(success bool) {
			m.mu.Lock()
			m.acked[msg.TripID] = success
			m.mu.Unlock()
			if !success {
				m.logger.Printf("[MockConsumer] NACK received for trip_id=%s. Offset will not be committed.", msg.TripID)
			}
		}
		return msg, ackCallback, nil
	}
}

// Push queues one more message, as if it had just been produced. It blocks
// when the buffer (preloaded count plus five) is full.
func (m *MockConsumer) Push(msg *models.TripMessage) {
	m.messages <- msg
}

// Acked reports the last ack value recorded for tripID.
func (m *MockConsumer) Acked(tripID string) (success, seen bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	success, seen = m.acked[tripID]
	return success, seen
}

// Close closes the message channel.
func (m *MockConsumer) Close() error {
	m.logger.Println("[MockConsumer] Closing...")
	close(m.messages)
	return nil
}

var _ Consumer = (*MockConsumer)(nil)
