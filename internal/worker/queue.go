package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrQueueClosed = errors.New("order queue closed")

type Enqueuer interface {
	Enqueue(ctx context.Context, orderID string) error
}

// OrderQueue hands order ids from intake to an OrderWorker. Close may run
// while requests are still enqueueing; late ids get ErrQueueClosed instead
// of a send on a closed channel.
type OrderQueue struct {
	mu     sync.RWMutex
	ch     chan string
	closed bool
}

func NewOrderQueue(size int) *OrderQueue {
	return &OrderQueue{ch: make(chan string, size)}
}

// C is the receive side consumed by the worker.
func (q *OrderQueue) C() <-chan string {
	return q.ch
}

func (q *OrderQueue) Enqueue(ctx context.Context, orderID string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("enqueue order id=%s: %w", orderID, ErrQueueClosed)
	}
	select {
	case q.ch <- orderID:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueue order id=%s: %w", orderID, ctx.Err())
	}
}

// Close stops intake and lets the worker drain what was already queued.
// It waits for in-progress Enqueue calls and is safe to call more than once.
func (q *OrderQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}
