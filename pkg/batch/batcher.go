package batch

import (
	"context"
	"sync"
	"time"
)

// Operation represents a single operation to be batched
type Operation interface {
	Execute(ctx context.Context) error
}

// Processor processes a batch of operations
type Processor interface {
	ProcessBatch(ctx context.Context, operations []Operation) error
}

// Batcher accumulates operations and hands them to a Processor either when
// the batch fills or on the flush interval.
type Batcher struct {
	batchSize     int
	batchInterval time.Duration
	processor     Processor

	mu        sync.Mutex
	pending   []Operation
	flushChan chan struct{}
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewBatcher creates a batcher and starts its flush loop
func NewBatcher(batchSize int, batchInterval time.Duration, processor Processor) *Batcher {
	b := &Batcher{
		batchSize:     batchSize,
		batchInterval: batchInterval,
		processor:     processor,
		pending:       make([]Operation, 0, batchSize),
		flushChan:     make(chan struct{}, 1),
		stopChan:      make(chan struct{}),
	}

	go b.run()

	return b
}

// Add queues an operation, triggering a flush when the batch is full
func (b *Batcher) Add(op Operation) {
	b.mu.Lock()
	b.pending = append(b.pending, op)
	shouldFlush := len(b.pending) >= b.batchSize
	b.mu.Unlock()

	if shouldFlush {
		select {
		case b.flushChan <- struct{}{}:
		default:
		}
	}
}

// Flush immediately processes all pending operations
func (b *Batcher) Flush(ctx context.Context) error {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return nil
	}

	ops := make([]Operation, len(b.pending))
	copy(ops, b.pending)
	b.pending = b.pending[:0]
	b.mu.Unlock()

	return b.processor.ProcessBatch(ctx, ops)
}

func (b *Batcher) run() {
	ticker := time.NewTicker(b.batchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = b.Flush(context.Background())
		case <-b.flushChan:
			_ = b.Flush(context.Background())
		case <-b.stopChan:
			// Final flush on stop
			_ = b.Flush(context.Background())
			return
		}
	}
}

// Stop stops the batcher and flushes remaining operations
func (b *Batcher) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopChan)
	})
}

// PendingCount returns the number of queued operations
func (b *Batcher) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
