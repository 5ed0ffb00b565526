package notify

import (
	"context"

	"go.uber.org/zap"
)

// BestEffort wraps a secondary channel whose outages must not change the
// outcome of a delivery. Errors are logged and dropped.
type BestEffort struct {
	next   Notifier
	name   string
	logger *zap.Logger
}

func NewBestEffort(name string, next Notifier, logger *zap.Logger) *BestEffort {
	return &BestEffort{next: next, name: name, logger: logger}
}

func (b *BestEffort) SendSong(ctx context.Context, d Delivery) error {
	if err := b.next.SendSong(ctx, d); err != nil {
		b.logger.Warn("notify_mirror_failed",
			zap.String("notifier", b.name),
			zap.String("kind", "song"),
			zap.String("order_id", d.OrderID),
			zap.Error(err),
		)
	}
	return nil
}

func (b *BestEffort) SendFailure(ctx context.Context, f Failure) error {
	if err := b.next.SendFailure(ctx, f); err != nil {
		b.logger.Warn("notify_mirror_failed",
			zap.String("notifier", b.name),
			zap.String("kind", "failure"),
			zap.String("order_id", f.OrderID),
			zap.Error(err),
		)
	}
	return nil
}
