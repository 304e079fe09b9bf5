// Package intake serializes inbound batches from every transport into a
// single FIFO lane so they are applied in arrival order.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/eventscope/internal/types"
)

// ErrStopped is returned by Enqueue after Stop.
var ErrStopped = errors.New("intake stopped")

// Processor applies one batch and returns the number of admitted events.
type Processor func(batch []types.RawEvent) int

// Queue is a bounded single-lane FIFO drained by one goroutine.
type Queue struct {
	lane      chan []types.RawEvent
	processor Processor
	pending   atomic.Int64
	received  atomic.Int64
	admitted  atomic.Int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

// NewQueue creates a Queue holding up to capacity pending batches.
func NewQueue(capacity int, processor Processor) *Queue {
	if capacity <= 0 {
		capacity = 100
	}
	return &Queue{
		lane:      make(chan []types.RawEvent, capacity),
		processor: processor,
	}
}

// Start launches the drain goroutine. Must be called before Enqueue.
func (q *Queue) Start(ctx context.Context) {
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.wg.Add(1)
	go q.drain()
}

// Stop closes the lane, lets pending batches finish and waits.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.stopped {
		q.stopped = true
		close(q.lane)
	}
	q.mu.Unlock()
	q.wg.Wait()
	if q.cancel != nil {
		q.cancel()
	}
}

// Enqueue adds a batch to the lane. Returns an error if the lane is full.
func (q *Queue) Enqueue(batch []types.RawEvent) error {
	if len(batch) == 0 {
		return nil
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return ErrStopped
	}

	q.pending.Add(1)
	select {
	case q.lane <- batch:
		q.received.Add(int64(len(batch)))
		return nil
	default:
		q.pending.Add(-1)
		return fmt.Errorf("intake queue full (%d batches pending)", len(q.lane))
	}
}

func (q *Queue) drain() {
	defer q.wg.Done()
	for {
		select {
		case batch, ok := <-q.lane:
			if !ok {
				return
			}
			n := q.processor(batch)
			q.admitted.Add(int64(n))
			q.pending.Add(-1)
			slog.Debug("batch applied", "size", len(batch), "admitted", n)
		case <-q.ctx.Done():
			return
		}
	}
}

// WaitIdle blocks until every enqueued batch has been processed,
// or the timeout expires. Returns true if idle, false if timed out.
func (q *Queue) WaitIdle(timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if q.pending.Load() == 0 {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Counts returns raw events received and admitted so far.
func (q *Queue) Counts() (received, admitted int64) {
	return q.received.Load(), q.admitted.Load()
}
