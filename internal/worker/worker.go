package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// interface in consumer side
type Processor interface {
	ProcessOrder(ctx context.Context, orderID string) error
}

// OrderWorker receives order ids and runs each delivery in its own goroutine.
// Deliveries are independent; there is no concurrency limit.
type OrderWorker struct {
	Queue     <-chan string
	Processor Processor
	Logger    *zap.Logger
}

func NewOrderWorker(queue <-chan string, processor Processor, logger *zap.Logger) *OrderWorker {
	return &OrderWorker{Queue: queue, Processor: processor, Logger: logger}
}

// Run returns once the queue is closed or ctx is canceled, and only after
// every started delivery has finished.
func (w *OrderWorker) Run(ctx context.Context) {
	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("worker_stopped", zap.String("reason", "context_canceled"))
			return
		case orderID, ok := <-w.Queue:
			if !ok {
				w.Logger.Info("worker_stopped", zap.String("reason", "queue_closed"))
				return
			}
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				w.process(ctx, orderID)
			}()
		}
	}
}

func (w *OrderWorker) process(ctx context.Context, orderID string) {
	defer func() {
		if r := recover(); r != nil {
			w.Logger.Error("worker_process_panic", zap.String("order_id", orderID), zap.Error(fmt.Errorf("%v", r)))
		}
	}()

	if err := w.Processor.ProcessOrder(ctx, orderID); err != nil {
		w.Logger.Error("worker_process_failed", zap.String("order_id", orderID), zap.Error(err))
	}
}
