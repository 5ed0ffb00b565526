package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier stands in for an email provider: messages are logged, not sent.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("email")}
}

func (n *LogNotifier) SendSong(_ context.Context, d Delivery) error {
	body, err := SongEmailBody(d)
	if err != nil {
		return err
	}
	n.logger.Info("email_sent",
		zap.String("order_id", d.OrderID),
		zap.String("to", d.Email),
		zap.String("song_url", d.SongURL),
		zap.String("body", body),
	)
	return nil
}

func (n *LogNotifier) SendFailure(_ context.Context, f Failure) error {
	n.logger.Warn("error_email_sent",
		zap.String("order_id", f.OrderID),
		zap.String("to", f.Email),
		zap.String("reason", f.Reason),
	)
	return nil
}
