package producer

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"tripledger/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestBatchPublisher_FlushesOnSize(t *testing.T) {
	mock := NewMockProducer()
	bp := NewBatchPublisher(config.BatchProcessorConfig{
		BatchSize:          2,
		BatchTimeout:       time.Hour,
		MaxBufferSize:      10,
		FlushChannelBuffer: 4,
	}, mock, quietLogger())

	require.True(t, bp.Submit(Message{Key: "a", Value: 1}))
	require.True(t, bp.Submit(Message{Key: "b", Value: 2}))

	assert.Eventually(t, func() bool { return len(mock.Messages()) == 2 }, time.Second, 5*time.Millisecond)
	bp.Close()

	published, dropped := bp.Stats()
	assert.Equal(t, 2, published)
	assert.Zero(t, dropped)
}

func TestBatchPublisher_CloseDrainsBuffer(t *testing.T) {
	mock := NewMockProducer()
	bp := NewBatchPublisher(config.BatchProcessorConfig{
		BatchSize:          100,
		BatchTimeout:       time.Hour,
		MaxBufferSize:      100,
		FlushChannelBuffer: 1,
	}, mock, quietLogger())

	for i := 0; i < 3; i++ {
		require.True(t, bp.Submit(Message{Key: "k", Value: i}))
	}
	bp.Close()

	assert.Len(t, mock.Messages(), 3)
	assert.False(t, bp.Submit(Message{Key: "late"}), "submit after close must be refused")
	bp.Close() // idempotent
}

func TestBatchPublisher_TimerFlush(t *testing.T) {
	mock := NewMockProducer()
	bp := NewBatchPublisher(config.BatchProcessorConfig{
		BatchSize:          100,
		BatchTimeout:       10 * time.Millisecond,
		MaxBufferSize:      100,
		FlushChannelBuffer: 1,
	}, mock, quietLogger())
	defer bp.Close()

	require.True(t, bp.Submit(Message{Key: "k", Value: "v"}))
	assert.Eventually(t, func() bool { return mock.Batches() == 1 }, time.Second, 5*time.Millisecond)
}

func TestBatchPublisher_CountsFailures(t *testing.T) {
	mock := NewMockProducer()
	mock.FailWith = errors.New("broker down")
	bp := NewBatchPublisher(config.BatchProcessorConfig{
		BatchSize:          10,
		BatchTimeout:       time.Hour,
		MaxBufferSize:      1,
		FlushChannelBuffer: 1,
	}, mock, quietLogger())

	require.True(t, bp.Submit(Message{Key: "a"}))
	assert.False(t, bp.Submit(Message{Key: "b"}), "buffer at capacity")
	bp.Close()

	published, dropped := bp.Stats()
	assert.Zero(t, published)
	assert.Equal(t, 2, dropped)
}
