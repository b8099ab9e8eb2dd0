package consumer

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"tripledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockConsumer_DeliversOnce(t *testing.T) {
	mc := NewMockConsumer(log.New(io.Discard, "", 0),
		&models.TripMessage{TripID: "T1"},
		&models.TripMessage{TripID: "T2"},
	)
	ctx := context.Background()

	msg, ack, err := mc.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T1", msg.TripID)
	ack(false)

	msg, ack, err = mc.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T2", msg.TripID)
	ack(true)

	ok, seen := mc.Acked("T1")
	assert.True(t, seen)
	assert.False(t, ok)
	ok, seen = mc.Acked("T2")
	assert.True(t, seen)
	assert.True(t, ok)

	// The NACK does not bring T1 back within the session

	timeout, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, _, err = mc.Consume(timeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, mc.Close())
	_, _, err = mc.Consume(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}
