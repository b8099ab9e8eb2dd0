package producer

import (
	"context"
	"log"
	"sync"
	"time"

	"tripledger/config"
)

// BatchPublisher buffers messages and hands them to a Producer in batches,
// flushing when the batch is full or the timer fires.
type BatchPublisher struct {
	batchSize     int
	batchTimeout  time.Duration
	maxBufferSize int
	logger        *log.Logger
	producer      Producer

	// Buffers
	buffer      []Message
	bufferMutex sync.Mutex
	closed      bool
	flushChan   chan []Message

	// Counters
	statsMutex sync.Mutex
	published  int
	dropped    int

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBatchPublisher creates a new batch publisher and starts its background goroutines
func NewBatchPublisher(cfg config.BatchProcessorConfig, p Producer, logger *log.Logger) *BatchPublisher {
	cfg.SetDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	bp := &BatchPublisher{
		batchSize:     cfg.BatchSize,
		batchTimeout:  cfg.BatchTimeout,
		maxBufferSize: cfg.MaxBufferSize,
		logger:        logger,
		producer:      p,
		buffer:        make([]Message, 0, cfg.BatchSize),
		flushChan:     make(chan []Message, cfg.FlushChannelBuffer),
		ctx:           ctx,
		cancel:        cancel,
	}

	bp.wg.Add(2)
	go bp.batchTimer()
	go bp.batchProcessor()

	return bp
}

// Submit adds a message to the buffer. It returns false if the publisher is
// closed or the buffer is at max_buffer_size.
func (bp *BatchPublisher) Submit(msg Message) bool {
	bp.bufferMutex.Lock()
	if bp.closed {
		bp.bufferMutex.Unlock()
		return false
	}
	if len(bp.buffer) >= bp.maxBufferSize {
		bp.bufferMutex.Unlock()
		bp.countDropped(1)
		bp.logger.Printf("Batch buffer full (%d), dropping message (Key: %s)", bp.maxBufferSize, msg.Key)
		return false
	}
	bp.buffer = append(bp.buffer, msg)
	shouldFlush := len(bp.buffer) >= bp.batchSize
	bp.bufferMutex.Unlock()

	if shouldFlush {
		bp.flushIfNeeded()
	}
	return true
}

// batchTimer handles periodic flushing
func (bp *BatchPublisher) batchTimer() {
	defer bp.wg.Done()

	ticker := time.NewTicker(bp.batchTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			bp.flushIfNeeded()
		case <-bp.ctx.Done():
			return
		}
	}
}

// batchProcessor publishes flushed batches
func (bp *BatchPublisher) batchProcessor() {
	defer bp.wg.Done()

	for {
		select {
		case batch := <-bp.flushChan:
			bp.processBatch(batch)
		case <-bp.ctx.Done():
			return
		}
	}
}

// drain publishes queued batches and the remaining buffer; it runs after
// the background goroutines have stopped
func (bp *BatchPublisher) drain() {
	for {
		select {
		case batch := <-bp.flushChan:
			bp.processBatch(batch)
		default:
			bp.bufferMutex.Lock()
			remaining := bp.buffer
			bp.buffer = nil
			bp.bufferMutex.Unlock()
			bp.processBatch(remaining)
			return
		}
	}
}

// flushIfNeeded moves the buffer onto the flush channel if it has entries
func (bp *BatchPublisher) flushIfNeeded() {
	bp.bufferMutex.Lock()
	if len(bp.buffer) == 0 {
		bp.bufferMutex.Unlock()
		return
	}

	batch := make([]Message, len(bp.buffer))
	copy(batch, bp.buffer)
	bp.buffer = bp.buffer[:0] // Reset buffer
	bp.bufferMutex.Unlock()

	select {
	case bp.flushChan <- batch:
	default:
		// If flush channel is full, put it back in buffer
		bp.bufferMutex.Lock()
		bp.buffer = append(batch, bp.buffer...)
		bp.bufferMutex.Unlock()
		bp.logger.Printf("Flush channel full, will flush on next timer")
	}
}

// processBatch hands one batch to the producer
func (bp *BatchPublisher) processBatch(batch []Message) {
	if len(batch) == 0 {
		return
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := bp.producer.PublishBatch(ctx, batch); err != nil {
		bp.countDropped(len(batch))
		bp.logger.Printf("Batch publish failed (%d messages dropped): %v", len(batch), err)
		return
	}

	bp.statsMutex.Lock()
	bp.published += len(batch)
	bp.statsMutex.Unlock()
	bp.logger.Printf("Batch published: %d messages in %v", len(batch), time.Since(start))
}

func (bp *BatchPublisher) countDropped(n int) {
	bp.statsMutex.Lock()
	bp.dropped += n
	bp.statsMutex.Unlock()
}

// Stats returns how many messages were published and dropped so far
func (bp *BatchPublisher) Stats() (published, dropped int) {
	bp.statsMutex.Lock()
	defer bp.statsMutex.Unlock()
	return bp.published, bp.dropped
}

// Close flushes the remaining buffer and stops the background goroutines.
// The underlying producer is left open.
func (bp *BatchPublisher) Close() {
	bp.bufferMutex.Lock()
	if bp.closed {
		bp.bufferMutex.Unlock()
		return
	}
	bp.closed = true
	bp.bufferMutex.Unlock()

	bp.cancel()
	bp.wg.Wait()
	bp.drain()
}
